package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/repo"
	"github.com/hintly/go-hints-backend/internal/resources"
)

// fakeResources serves a fixed set and records the problem it was asked about.
type fakeResources struct {
	set      []resources.Resource
	fallback bool
	asked    string
	calls    int
}

func (f *fakeResources) Resources(_ context.Context, problem string) ([]resources.Resource, bool) {
	f.calls++
	f.asked = problem
	return f.set, f.fallback
}

func seedCompletedChat(t *testing.T, svc *HintService, userID string) *domain.Chat {
	t.Helper()
	ctx := context.Background()
	chat, err := svc.Submit(ctx, userID, "", "Explain photosynthesis in plants")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	chat, err = svc.NextHint(ctx, userID, chat.ID)
	if err != nil {
		t.Fatalf("NextHint: %v", err)
	}
	if !chat.IsCompleted {
		t.Fatalf("fixture chat not completed: %+v", chat)
	}
	return chat
}

func TestGenerateRequiresCompletedChat(t *testing.T) {
	db := newServiceDB(t)
	hints := &HintService{DB: db, AI: &fakeHints{reply: "hint"}}
	svc := &ResourceService{DB: db, AI: &fakeResources{}}
	ctx := context.Background()

	chat, err := hints.Submit(ctx, "u1", "", "a biology question")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, _, err := svc.Generate(ctx, "u1", chat.ID); !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted, got %v", err)
	}
	if _, _, err := svc.Generate(ctx, "u1", "missing"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
	if _, _, err := svc.Generate(ctx, "u2", chat.ID); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("foreign chat: got %v", err)
	}
}

func TestGeneratePersistsResourceMessage(t *testing.T) {
	db := newServiceDB(t)
	hints := &HintService{DB: db, AI: &fakeHints{reply: "hint"}}
	ai := &fakeResources{set: resources.Fallback("photosynthesis biology")}
	svc := &ResourceService{DB: db, AI: ai}
	ctx := context.Background()

	chat := seedCompletedChat(t, hints, "u1")

	msg, created, err := svc.Generate(ctx, "u1", chat.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !created {
		t.Fatal("first Generate must report created=true")
	}
	if msg.Role != domain.RoleAssistant || !msg.IsResource {
		t.Fatalf("unexpected resource message: %+v", msg)
	}
	if !strings.Contains(msg.Content, "##") {
		t.Fatalf("expected rendered markdown, got %q", msg.Content)
	}
	if ai.asked != "Explain photosynthesis in plants" {
		t.Fatalf("model asked about wrong problem: %q", ai.asked)
	}

	got, err := repo.GetChat(ctx, db, chat.ID, "u1")
	if err != nil {
		t.Fatalf("reload chat: %v", err)
	}
	if !got.HasResources {
		t.Fatalf("has_resources not set: %+v", got)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	db := newServiceDB(t)
	hints := &HintService{DB: db, AI: &fakeHints{reply: "hint"}}
	ai := &fakeResources{set: resources.Starter()}
	svc := &ResourceService{DB: db, AI: ai}
	ctx := context.Background()

	chat := seedCompletedChat(t, hints, "u1")

	first, created, err := svc.Generate(ctx, "u1", chat.ID)
	if err != nil || !created {
		t.Fatalf("first Generate: created=%v err=%v", created, err)
	}
	second, created, err := svc.Generate(ctx, "u1", chat.ID)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if created {
		t.Fatal("second Generate must not create a new message")
	}
	if second.ID != first.ID {
		t.Fatalf("expected the stored message back, got %q vs %q", second.ID, first.ID)
	}
	if ai.calls != 1 {
		t.Fatalf("model called %d times, want 1", ai.calls)
	}
}

func TestStarterPassthrough(t *testing.T) {
	svc := &ResourceService{}

	set := svc.Starter()
	if len(set) == 0 {
		t.Fatal("starter set must not be empty")
	}
	for _, r := range set {
		if r.Topic == "" || len(r.Links) == 0 {
			t.Fatalf("incomplete starter resource: %+v", r)
		}
	}
}
