package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/repo"
)

// realChatRepo adapts the free repo functions to the ChatRepo contract.
type realChatRepo struct{}

func (realChatRepo) GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id, userID)
}

func (realChatRepo) GetChatWithMessages(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	return repo.GetChatWithMessages(ctx, db, id, userID)
}

func (realChatRepo) CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountChats(ctx, db, userID)
}

func (realChatRepo) ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, userID, offset, limit)
}

func (realChatRepo) DeleteChat(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteChat(ctx, db, id, userID)
}

func (realChatRepo) ChatsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return repo.ChatsStats(ctx, db, userID)
}

func TestChatServiceGetAndDelete(t *testing.T) {
	db := newServiceDB(t)
	svc := NewChatService(db, realChatRepo{})
	ctx := context.Background()

	created, err := repo.CreateChat(ctx, db, "u1", "algebra")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if _, err := repo.CreateMessage(db, created.ID, domain.RoleUser, "problem", false); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	chat, err := svc.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(chat.Messages) != 1 {
		t.Fatalf("expected history loaded, got %d messages", len(chat.Messages))
	}

	if _, err := svc.Get(ctx, "u2", created.ID); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("foreign Get: got %v", err)
	}

	if err := svc.Delete(ctx, "u2", created.ID); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("foreign Delete: got %v", err)
	}
	if err := svc.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "u1", created.ID); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("repeat Delete: got %v", err)
	}
}

func TestChatServiceListPage(t *testing.T) {
	db := newServiceDB(t)
	svc := NewChatService(db, realChatRepo{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := repo.CreateChat(ctx, db, "u1", "chat"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	items, total, err := svc.ListPage(ctx, "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 5 || len(items) != 2 {
		t.Fatalf("page 1: total=%d len=%d", total, len(items))
	}

	items, total, err = svc.ListPage(ctx, "u1", 3, 2)
	if err != nil {
		t.Fatalf("ListPage last: %v", err)
	}
	if total != 5 || len(items) != 1 {
		t.Fatalf("page 3: total=%d len=%d", total, len(items))
	}

	// Invalid inputs fall back to the defaults rather than erroring.
	items, total, err = svc.ListPage(ctx, "u1", 0, -1)
	if err != nil {
		t.Fatalf("ListPage defaults: %v", err)
	}
	if total != 5 || len(items) != 5 {
		t.Fatalf("defaulted page: total=%d len=%d", total, len(items))
	}

	items, total, err = svc.ListPage(ctx, "nobody", 1, 10)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty user: items=%d total=%d err=%v", len(items), total, err)
	}
}

func TestChatServiceAppend(t *testing.T) {
	db := newServiceDB(t)
	svc := NewChatService(db, realChatRepo{})
	ctx := context.Background()

	created, err := repo.CreateChat(ctx, db, "u1", "t")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	if _, err := svc.Append(ctx, "u1", created.ID, "moderator", "hi", false); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("bad role: got %v", err)
	}
	if _, err := svc.Append(ctx, "u1", created.ID, domain.RoleUser, "  ", false); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("empty content: got %v", err)
	}
	if _, err := svc.Append(ctx, "u1", "missing", domain.RoleUser, "hi", false); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("missing chat: got %v", err)
	}

	chat, err := svc.Append(ctx, "u1", created.ID, domain.RoleUser, "extra note", false)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(chat.Messages) != 1 || chat.Messages[0].Content != "extra note" {
		t.Fatalf("append not persisted: %+v", chat.Messages)
	}
	if chat.HasResources {
		t.Fatalf("plain append must not flag resources: %+v", chat)
	}

	chat, err = svc.Append(ctx, "u1", created.ID, domain.RoleAssistant, "## Videos", true)
	if err != nil {
		t.Fatalf("resource Append: %v", err)
	}
	if !chat.HasResources {
		t.Fatalf("resource append must set has_resources: %+v", chat)
	}
}

func TestChatServiceStats(t *testing.T) {
	db := newServiceDB(t)
	svc := NewChatService(db, realChatRepo{})
	ctx := context.Background()

	count, maxTS, err := svc.Stats(ctx, "u1")
	if err != nil || count != 0 || maxTS != nil {
		t.Fatalf("empty stats: count=%d ts=%v err=%v", count, maxTS, err)
	}

	if _, err := repo.CreateChat(ctx, db, "u1", "a"); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if _, err := repo.CreateChat(ctx, db, "u2", "b"); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	count, maxTS, err = svc.Stats(ctx, "u1")
	if err != nil || count != 1 || maxTS == nil {
		t.Fatalf("scoped stats: count=%d ts=%v err=%v", count, maxTS, err)
	}
}
