package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/comment"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

type CommentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, c *comment.Comment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*comment.Comment, error)
	ListByPet(ctx context.Context, tx *gorm.DB, petID uuid.UUID) ([]*comment.Comment, error)
	UpdateText(ctx context.Context, tx *gorm.DB, id uuid.UUID, text string) (*comment.Comment, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)

	AddReply(ctx context.Context, tx *gorm.DB, reply *comment.Reply) error
	UpdateReplyText(ctx context.Context, tx *gorm.DB, commentID, replyID uuid.UUID, text string) (bool, error)
	DeleteReply(ctx context.Context, tx *gorm.DB, commentID, replyID uuid.UUID) (bool, error)
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return &commentRepo{db: db, log: baseLog.With("repo", "CommentRepo")}
}

func (r *commentRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func withAuthors(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "avatar_url")
		}).
		Preload("Replies").
		Preload("Replies.Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "avatar_url")
		})
}

func (r *commentRepo) Create(ctx context.Context, tx *gorm.DB, c *comment.Comment) error {
	return r.conn(tx).WithContext(ctx).Create(c).Error
}

func (r *commentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*comment.Comment, error) {
	var c comment.Comment
	err := withAuthors(r.conn(tx).WithContext(ctx)).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *commentRepo) ListByPet(ctx context.Context, tx *gorm.DB, petID uuid.UUID) ([]*comment.Comment, error) {
	var comments []*comment.Comment
	err := withAuthors(r.conn(tx).WithContext(ctx)).
		Where("pet_id = ?", petID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepo) UpdateText(ctx context.Context, tx *gorm.DB, id uuid.UUID, text string) (*comment.Comment, error) {
	res := r.conn(tx).WithContext(ctx).
		Model(&comment.Comment{}).
		Where("id = ?", id).
		Update("text", text)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, tx, id)
}

func (r *commentRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	conn := r.conn(tx).WithContext(ctx)
	if err := conn.Where("comment_id = ?", id).Delete(&comment.Reply{}).Error; err != nil {
		return false, err
	}
	res := conn.Where("id = ?", id).Delete(&comment.Comment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *commentRepo) AddReply(ctx context.Context, tx *gorm.DB, reply *comment.Reply) error {
	return r.conn(tx).WithContext(ctx).Create(reply).Error
}

func (r *commentRepo) UpdateReplyText(ctx context.Context, tx *gorm.DB, commentID, replyID uuid.UUID, text string) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Model(&comment.Reply{}).
		Where("id = ? AND comment_id = ?", replyID, commentID).
		Update("text", text)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *commentRepo) DeleteReply(ctx context.Context, tx *gorm.DB, commentID, replyID uuid.UUID) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Where("id = ? AND comment_id = ?", replyID, commentID).
		Delete(&comment.Reply{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
