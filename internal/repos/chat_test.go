package repos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/adopaw/adopaw-backend/internal/db"
	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestEnsureByKeyReturnsExistingRow(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewChatRepo(gdb, logger.NewNop())
	ctx := context.Background()

	key, _ := chat.CanonicalKey(nil, []uuid.UUID{uuid.New(), uuid.New()})

	first := &chat.Chat{ChatKey: key, LastMessageAt: time.Now().UTC()}
	created, err := repo.EnsureByKey(ctx, nil, first)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if !created {
		t.Fatalf("expected first ensure to insert")
	}

	// The second caller arrives with its own unsaved struct. The create hook
	// assigns it a fresh id before the conflict is detected; the reload must
	// still find the winner by key alone.
	second := &chat.Chat{ChatKey: key, LastMessageAt: time.Now().UTC()}
	created, err = repo.EnsureByKey(ctx, nil, second)
	if err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	if created {
		t.Fatalf("re-ensure must not report an insert")
	}
	if second.ID != first.ID {
		t.Fatalf("re-ensure loaded chat %s, want %s", second.ID, first.ID)
	}
}

func TestEnsureByKeyKeepsDistinctKeysApart(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewChatRepo(gdb, logger.NewNop())
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	petID := uuid.New()

	generalKey, _ := chat.CanonicalKey(nil, []uuid.UUID{alice, bob})
	petKey, _ := chat.CanonicalKey(&petID, []uuid.UUID{alice, bob})

	general := &chat.Chat{ChatKey: generalKey, LastMessageAt: time.Now().UTC()}
	if _, err := repo.EnsureByKey(ctx, nil, general); err != nil {
		t.Fatalf("ensure general: %v", err)
	}

	aboutPet := &chat.Chat{ChatKey: petKey, PetID: &petID, LastMessageAt: time.Now().UTC()}
	created, err := repo.EnsureByKey(ctx, nil, aboutPet)
	if err != nil {
		t.Fatalf("ensure pet chat: %v", err)
	}
	if !created || aboutPet.ID == general.ID {
		t.Fatalf("pet chat must get its own row")
	}
}
