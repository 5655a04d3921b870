package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/comment"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

type CommentService interface {
	Create(ctx context.Context, petID, authorID uuid.UUID, text string) (*comment.Comment, error)
	ListByPet(ctx context.Context, petID uuid.UUID) ([]*comment.Comment, error)
	Edit(ctx context.Context, commentID uuid.UUID, text string) (*comment.Comment, error)
	Delete(ctx context.Context, commentID uuid.UUID) error

	// AddReply returns the parent comment with all replies loaded.
	AddReply(ctx context.Context, commentID, authorID uuid.UUID, text string) (*comment.Comment, error)
	EditReply(ctx context.Context, commentID, replyID uuid.UUID, text string) (*comment.Comment, error)
	DeleteReply(ctx context.Context, commentID, replyID uuid.UUID) (*comment.Comment, error)
}

type commentService struct {
	db       *gorm.DB
	log      *logger.Logger
	comments repos.CommentRepo
}

func NewCommentService(db *gorm.DB, log *logger.Logger, comments repos.CommentRepo) CommentService {
	return &commentService{
		db:       db,
		log:      log.With("service", "CommentService"),
		comments: comments,
	}
}

func (cs *commentService) Create(ctx context.Context, petID, authorID uuid.UUID, text string) (*comment.Comment, error) {
	text = strings.TrimSpace(text)
	if petID == uuid.Nil || authorID == uuid.Nil || text == "" {
		return nil, apierr.BadRequest("missing_fields", fmt.Errorf("petId, authorId, and text are required"))
	}

	c := &comment.Comment{PetID: petID, AuthorID: authorID, Text: text}
	if err := cs.comments.Create(ctx, nil, c); err != nil {
		return nil, apierr.Store(fmt.Errorf("create comment: %w", err))
	}
	return cs.load(ctx, c.ID)
}

func (cs *commentService) ListByPet(ctx context.Context, petID uuid.UUID) ([]*comment.Comment, error) {
	out, err := cs.comments.ListByPet(ctx, nil, petID)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("list comments: %w", err))
	}
	return out, nil
}

func (cs *commentService) Edit(ctx context.Context, commentID uuid.UUID, text string) (*comment.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierr.BadRequest("missing_fields", fmt.Errorf("text is required to update comment"))
	}
	c, err := cs.comments.UpdateText(ctx, nil, commentID, text)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("update comment: %w", err))
	}
	if c == nil {
		return nil, apierr.NotFound(fmt.Errorf("comment %s not found", commentID))
	}
	return c, nil
}

func (cs *commentService) Delete(ctx context.Context, commentID uuid.UUID) error {
	deleted, err := cs.comments.Delete(ctx, nil, commentID)
	if err != nil {
		return apierr.Store(fmt.Errorf("delete comment: %w", err))
	}
	if !deleted {
		return apierr.NotFound(fmt.Errorf("comment %s not found", commentID))
	}
	return nil
}

func (cs *commentService) AddReply(ctx context.Context, commentID, authorID uuid.UUID, text string) (*comment.Comment, error) {
	text = strings.TrimSpace(text)
	if authorID == uuid.Nil || text == "" {
		return nil, apierr.BadRequest("missing_fields", fmt.Errorf("authorId and text are required"))
	}

	parent, err := cs.comments.GetByID(ctx, nil, commentID)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("load comment: %w", err))
	}
	if parent == nil {
		return nil, apierr.NotFound(fmt.Errorf("comment %s not found", commentID))
	}

	reply := &comment.Reply{CommentID: commentID, AuthorID: authorID, Text: text}
	if err := cs.comments.AddReply(ctx, nil, reply); err != nil {
		return nil, apierr.Store(fmt.Errorf("add reply: %w", err))
	}
	return cs.load(ctx, commentID)
}

func (cs *commentService) EditReply(ctx context.Context, commentID, replyID uuid.UUID, text string) (*comment.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierr.BadRequest("missing_fields", fmt.Errorf("text is required to update reply"))
	}
	updated, err := cs.comments.UpdateReplyText(ctx, nil, commentID, replyID, text)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("update reply: %w", err))
	}
	if !updated {
		return nil, apierr.NotFound(fmt.Errorf("reply %s not found on comment %s", replyID, commentID))
	}
	return cs.load(ctx, commentID)
}

func (cs *commentService) DeleteReply(ctx context.Context, commentID, replyID uuid.UUID) (*comment.Comment, error) {
	deleted, err := cs.comments.DeleteReply(ctx, nil, commentID, replyID)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("delete reply: %w", err))
	}
	if !deleted {
		return nil, apierr.NotFound(fmt.Errorf("reply %s not found on comment %s", replyID, commentID))
	}
	return cs.load(ctx, commentID)
}

func (cs *commentService) load(ctx context.Context, commentID uuid.UUID) (*comment.Comment, error) {
	c, err := cs.comments.GetByID(ctx, nil, commentID)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("reload comment: %w", err))
	}
	if c == nil {
		return nil, apierr.NotFound(fmt.Errorf("comment %s not found", commentID))
	}
	return c, nil
}
