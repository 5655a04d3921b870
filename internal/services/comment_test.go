package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

func newCommentService(t *testing.T) CommentService {
	t.Helper()
	gdb := newTestDB(t)
	log := logger.NewNop()
	return NewCommentService(gdb, log, repos.NewCommentRepo(gdb, log))
}

func TestCommentLifecycle(t *testing.T) {
	svc := newCommentService(t)
	ctx := context.Background()

	petID := uuid.New()
	author := uuid.New()

	c, err := svc.Create(ctx, petID, author, "  Is he good with kids?  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Text != "Is he good with kids?" {
		t.Fatalf("text not trimmed: %q", c.Text)
	}

	edited, err := svc.Edit(ctx, c.ID, "Is he good with cats?")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Text != "Is he good with cats?" {
		t.Fatalf("edit not applied: %q", edited.Text)
	}

	items, err := svc.ListByPet(ctx, petID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != c.ID {
		t.Fatalf("list returned %d comments", len(items))
	}

	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, err = svc.ListByPet(ctx, petID)
	if err != nil {
		t.Fatalf("relist: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("comment survived deletion")
	}
}

func TestCommentValidation(t *testing.T) {
	svc := newCommentService(t)
	ctx := context.Background()

	var ae *apierr.Error
	if _, err := svc.Create(ctx, uuid.New(), uuid.New(), "   "); !errors.As(err, &ae) || ae.Code != "missing_fields" {
		t.Fatalf("blank text: expected missing_fields, got %v", err)
	}
	if _, err := svc.Create(ctx, uuid.Nil, uuid.New(), "hi"); !errors.As(err, &ae) || ae.Code != "missing_fields" {
		t.Fatalf("missing pet: expected missing_fields, got %v", err)
	}
}

func TestReplyThread(t *testing.T) {
	svc := newCommentService(t)
	ctx := context.Background()

	petID := uuid.New()
	asker := uuid.New()
	owner := uuid.New()

	c, err := svc.Create(ctx, petID, asker, "Does he shed a lot?")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	withReply, err := svc.AddReply(ctx, c.ID, owner, "Only in spring.")
	if err != nil {
		t.Fatalf("add reply: %v", err)
	}
	if len(withReply.Replies) != 1 || withReply.Replies[0].Text != "Only in spring." {
		t.Fatalf("reply not attached: %+v", withReply.Replies)
	}
	replyID := withReply.Replies[0].ID

	edited, err := svc.EditReply(ctx, c.ID, replyID, "Only in spring, and he loves brushing.")
	if err != nil {
		t.Fatalf("edit reply: %v", err)
	}
	if edited.Replies[0].Text != "Only in spring, and he loves brushing." {
		t.Fatalf("reply edit not applied")
	}

	after, err := svc.DeleteReply(ctx, c.ID, replyID)
	if err != nil {
		t.Fatalf("delete reply: %v", err)
	}
	if len(after.Replies) != 0 {
		t.Fatalf("reply survived deletion")
	}
}

func TestReplyToMissingComment(t *testing.T) {
	svc := newCommentService(t)

	_, err := svc.AddReply(context.Background(), uuid.New(), uuid.New(), "hello?")
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "not_found" {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestReplyOnWrongParentNotFound(t *testing.T) {
	svc := newCommentService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, uuid.New(), uuid.New(), "first")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(ctx, uuid.New(), uuid.New(), "second")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	withReply, err := svc.AddReply(ctx, first.ID, uuid.New(), "a reply")
	if err != nil {
		t.Fatalf("add reply: %v", err)
	}

	// Editing the reply through the wrong parent must not match.
	_, err = svc.EditReply(ctx, second.ID, withReply.Replies[0].ID, "hijack")
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "not_found" {
		t.Fatalf("expected not_found, got %v", err)
	}
}
