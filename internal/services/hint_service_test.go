package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/genai"
	"github.com/hintly/go-hints-backend/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.User{}, &domain.Chat{}, &domain.Message{}, &domain.HintFeedback{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fakeHints records calls and replies from a scripted queue.
type fakeHints struct {
	calls []genai.Stage
	reply string
	err   error

	lastProblem string
	lastHistory []genai.Turn
}

func (f *fakeHints) Hint(_ context.Context, stage genai.Stage, problem string, history []genai.Turn) (string, error) {
	f.calls = append(f.calls, stage)
	f.lastProblem = problem
	f.lastHistory = history
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestSubmitCreatesChatWithFirstHint(t *testing.T) {
	db := newServiceDB(t)
	ai := &fakeHints{reply: "Think about isolating x."}
	svc := &HintService{DB: db, AI: ai}

	chat, err := svc.Submit(context.Background(), "u1", "", "Solve the equation 2x + 3 = 9 for x")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if chat.HintsUsed != 1 || chat.IsCompleted {
		t.Fatalf("expected one hint used, not completed: %+v", chat)
	}
	if len(chat.Messages) != 2 {
		t.Fatalf("expected user+assistant messages, got %d", len(chat.Messages))
	}
	if chat.Messages[0].Role != domain.RoleUser || chat.Messages[1].Role != domain.RoleAssistant {
		t.Fatalf("wrong message roles: %+v", chat.Messages)
	}
	if chat.Messages[1].Content != "Think about isolating x." {
		t.Fatalf("hint not persisted verbatim: %q", chat.Messages[1].Content)
	}
	if len(ai.calls) != 1 || ai.calls[0] != genai.StageFirst {
		t.Fatalf("expected one first-stage call, got %v", ai.calls)
	}
	if len(ai.lastHistory) != 0 {
		t.Fatalf("first hint must not carry history, got %d turns", len(ai.lastHistory))
	}
}

func TestSubmitGeneratesTitle(t *testing.T) {
	db := newServiceDB(t)
	svc := &HintService{DB: db, AI: &fakeHints{reply: "hint"}}

	chat, err := svc.Submit(context.Background(), "u1", "", "solve the quadratic equation x^2 - 4 = 0")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if chat.Title == "" || chat.Title == "New chat" {
		t.Fatalf("expected generated title, got %q", chat.Title)
	}
	if strings.Contains(strings.ToLower(chat.Title), "the ") {
		t.Fatalf("stop words not removed from title: %q", chat.Title)
	}
	for _, w := range strings.Fields(chat.Title) {
		r := []rune(w)[0]
		if r >= 'a' && r <= 'z' {
			t.Fatalf("title not cased: %q", chat.Title)
		}
	}
}

func TestSubmitValidation(t *testing.T) {
	db := newServiceDB(t)
	svc := &HintService{DB: db, AI: &fakeHints{reply: "hint"}, MaxPromptRunes: 10}
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "u1", "", "   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if _, err := svc.Submit(ctx, "u1", "", "this prompt is longer than ten runes"); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestSubmitAdvancesToCompletion(t *testing.T) {
	db := newServiceDB(t)
	ai := &fakeHints{reply: "first hint"}
	svc := &HintService{DB: db, AI: ai}
	ctx := context.Background()

	chat, err := svc.Submit(ctx, "u1", "", "What is the derivative of x^2?")
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	ai.reply = "second, fuller hint"
	chat, err = svc.Submit(ctx, "u1", chat.ID, "I still don't get it")
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	if chat.HintsUsed != 2 || !chat.IsCompleted {
		t.Fatalf("expected completed chat after second hint: %+v", chat)
	}
	if len(chat.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(chat.Messages))
	}
	if ai.calls[len(ai.calls)-1] != genai.StageSecond {
		t.Fatalf("second hint must use the second stage, got %v", ai.calls)
	}
	// Stage two is asked about the original problem, not the follow-up.
	if ai.lastProblem != "What is the derivative of x^2?" {
		t.Fatalf("second stage got wrong problem: %q", ai.lastProblem)
	}
	if len(ai.lastHistory) != 2 {
		t.Fatalf("second stage must see prior exchange, got %d turns", len(ai.lastHistory))
	}

	// A third request is refused and changes nothing.
	if _, err := svc.Submit(ctx, "u1", chat.ID, "more"); !errors.Is(err, ErrMaxHints) {
		t.Fatalf("expected ErrMaxHints, got %v", err)
	}
	n, err := repo.CountMessages(db, chat.ID)
	if err != nil || n != 4 {
		t.Fatalf("message count after refused hint = %d, %v; want 4", n, err)
	}
}

func TestNextHintRecordsSyntheticRequest(t *testing.T) {
	db := newServiceDB(t)
	ai := &fakeHints{reply: "hint"}
	svc := &HintService{DB: db, AI: ai}
	ctx := context.Background()

	chat, err := svc.Submit(ctx, "u1", "", "Balance the chemical equation H2 + O2 -> H2O")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	chat, err = svc.NextHint(ctx, "u1", chat.ID)
	if err != nil {
		t.Fatalf("NextHint: %v", err)
	}
	if len(chat.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(chat.Messages))
	}
	if chat.Messages[2].Role != domain.RoleUser || chat.Messages[2].Content != "I need another hint for this problem." {
		t.Fatalf("synthetic request not recorded: %+v", chat.Messages[2])
	}
	if !chat.IsCompleted {
		t.Fatalf("expected completion after NextHint: %+v", chat)
	}
}

func TestSubmitUnknownChat(t *testing.T) {
	db := newServiceDB(t)
	svc := &HintService{DB: db, AI: &fakeHints{reply: "hint"}}

	if _, err := svc.Submit(context.Background(), "u1", "missing-id", "problem"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestSubmitForeignChat(t *testing.T) {
	db := newServiceDB(t)
	svc := &HintService{DB: db, AI: &fakeHints{reply: "hint"}}
	ctx := context.Background()

	chat, err := svc.Submit(ctx, "owner", "", "a problem about fractions")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Submit(ctx, "intruder", chat.ID, "let me in"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound for foreign user, got %v", err)
	}
}

func TestSubmitAIFailure(t *testing.T) {
	db := newServiceDB(t)
	svc := &HintService{DB: db, AI: &fakeHints{err: errors.New("model down")}}

	if _, err := svc.Submit(context.Background(), "u1", "", "problem"); !errors.Is(err, ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}

	// Nothing persisted when generation fails.
	var n int64
	if err := db.Model(&domain.Chat{}).Count(&n).Error; err != nil || n != 0 {
		t.Fatalf("chat count after failed generation = %d, %v; want 0", n, err)
	}
}

func TestAdvanceLosesRaceToConcurrentHint(t *testing.T) {
	db := newServiceDB(t)
	ai := &fakeHints{reply: "hint"}
	svc := &HintService{DB: db, AI: ai}
	ctx := context.Background()

	chat, err := svc.Submit(ctx, "u1", "", "geometry proof about triangles")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Simulate a request that read hints_used before another one advanced it.
	if err := repo.IncrementHints(ctx, db, chat.ID, 1); err != nil {
		t.Fatalf("IncrementHints: %v", err)
	}
	if _, err := svc.Submit(ctx, "u1", chat.ID, "another hint please"); !errors.Is(err, ErrMaxHints) {
		t.Fatalf("expected ErrMaxHints after losing the race, got %v", err)
	}
}

func TestTitleFromPromptEdgeCases(t *testing.T) {
	svc := &HintService{TitleMaxLen: 20}

	if got := svc.titleFromPrompt("!!! ??? ..."); got != "New chat" {
		t.Fatalf("titles need at least one word, got %q", got)
	}
	if got := svc.titleFromPrompt("the a an of to in"); got != "New chat" {
		t.Fatalf("all-stop-word prompt must fall back, got %q", got)
	}

	long := svc.titleFromPrompt("extraordinarily complicated electromagnetic induction experiment")
	if n := len([]rune(long)); n > 20 {
		t.Fatalf("title not clipped: %d runes", n)
	}
}
