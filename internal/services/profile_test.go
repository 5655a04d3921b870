package services

import (
	"context"
	"errors"
	"testing"

	"github.com/adopaw/adopaw-backend/internal/domain/profile"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

func newProfileService(t *testing.T) ProfileService {
	t.Helper()
	gdb := newTestDB(t)
	log := logger.NewNop()
	return NewProfileService(gdb, log, repos.NewProfileRepo(gdb, log))
}

func TestProfileCreateAndFetch(t *testing.T) {
	svc := newProfileService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &profile.Profile{
		SupaID: " supa-1 ",
		Email:  " Alice@Example.COM ",
		Name:   "Alice",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SupaID != "supa-1" || created.Email != "alice@example.com" {
		t.Fatalf("identity not normalized: %+v", created)
	}

	got, err := svc.GetBySupaID(ctx, "supa-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("fetched wrong profile")
	}
}

func TestProfileCreateValidation(t *testing.T) {
	svc := newProfileService(t)
	ctx := context.Background()

	var ae *apierr.Error
	if _, err := svc.Create(ctx, &profile.Profile{Email: "a@b.co"}); !errors.As(err, &ae) || ae.Code != "missing_fields" {
		t.Fatalf("missing supaId: got %v", err)
	}
	if _, err := svc.Create(ctx, &profile.Profile{SupaID: "s", Email: "not-an-email"}); !errors.As(err, &ae) || ae.Code != "invalid_email" {
		t.Fatalf("bad email: got %v", err)
	}
}

func TestProfileCreateConflict(t *testing.T) {
	svc := newProfileService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &profile.Profile{SupaID: "supa-1", Email: "a@b.co"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, &profile.Profile{SupaID: "supa-1", Email: "other@b.co"})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "conflict" {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestProfileUpdateAndDelete(t *testing.T) {
	svc := newProfileService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &profile.Profile{SupaID: "supa-1", Email: "a@b.co"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, "supa-1", map[string]any{"name": "Alice", "bio": "cat person"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Alice" || updated.Bio != "cat person" {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := svc.Delete(ctx, "supa-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var ae *apierr.Error
	if _, err := svc.GetBySupaID(ctx, "supa-1"); !errors.As(err, &ae) || ae.Code != "not_found" {
		t.Fatalf("expected not_found after delete, got %v", err)
	}
	if err := svc.Delete(ctx, "supa-1"); !errors.As(err, &ae) || ae.Code != "not_found" {
		t.Fatalf("double delete: expected not_found, got %v", err)
	}
}
