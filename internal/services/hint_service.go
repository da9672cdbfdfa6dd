// Package services – HintService
//
// This file implements HintService, the application-level component that
// owns the hint-session state machine. A chat moves through three states:
//
//	NEW              no chat row yet
//	FIRST_HINT_GIVEN hints_used == 1
//	COMPLETED        hints_used == 2, is_completed == true
//
// Submit drives NEW -> FIRST_HINT_GIVEN (creating the chat) and, for an
// existing chat, FIRST_HINT_GIVEN -> COMPLETED. NextHint is the explicit
// "get another hint" action for the same second transition. Both append the
// user/assistant message pair and advance the counter in one transaction;
// the counter update is conditional on the value observed when the request
// started, so two concurrent hint requests cannot push a chat past its
// hint limit — the loser gets ErrMaxHints.
//
// Optional enhancement: the chat title is auto-generated from the first
// problem statement when still a placeholder.
//
// Observability: public methods are OpenTelemetry-instrumented; spans
// include chat/user identifiers.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/genai"
	"github.com/hintly/go-hints-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// anotherHintPrompt is the synthetic user message recorded for an
	// explicit second-hint request.
	anotherHintPrompt = "I need another hint for this problem."

	// default titles considered placeholders and eligible for auto-generation
	defaultTitleNew      = "New chat"
	defaultTitleUntitled = "Untitled"
)

// HintGenerator is the slice of the AI pipeline the state machine needs.
// Satisfied by *genai.Pipeline.
type HintGenerator interface {
	Hint(ctx context.Context, stage genai.Stage, problem string, history []genai.Turn) (string, error)
}

// HintService coordinates hint generation and chat-state persistence.
type HintService struct {
	DB *gorm.DB
	AI HintGenerator

	// MaxPromptRunes guards against oversized submissions; 0 disables.
	MaxPromptRunes int

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int
}

// Submit handles a problem submission. With an empty chatID it creates the
// chat and produces the first hint (NEW -> FIRST_HINT_GIVEN). With a chatID
// it advances an existing session by one hint, failing with ErrMaxHints once
// the chat has used both hints.
//
// The returned chat carries the full message history.
func (s *HintService) Submit(ctx context.Context, userID, chatID, prompt string) (*domain.Chat, error) {
	tr := otel.Tracer("services/HintService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	if chatID == "" {
		return s.firstHint(ctx, userID, prompt)
	}
	return s.advance(ctx, userID, chatID, prompt)
}

// NextHint handles the explicit "get another hint" action on an existing
// chat. A synthetic user request message is recorded alongside the hint.
func (s *HintService) NextHint(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	tr := otel.Tracer("services/HintService")
	ctx, span := tr.Start(ctx, "NextHint",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	return s.advance(ctx, userID, chatID, anotherHintPrompt)
}

// firstHint creates the chat and its first user/assistant exchange.
func (s *HintService) firstHint(ctx context.Context, userID, prompt string) (*domain.Chat, error) {
	hint, err := s.AI.Hint(ctx, genai.StageFirst, prompt, nil)
	if err != nil {
		return nil, ErrAIUnavailable
	}

	var chat *domain.Chat
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.CreateChat(ctx, tx, userID, s.titleFromPrompt(prompt))
		if err != nil {
			return err
		}
		if _, err := repo.CreateMessage(tx, c.ID, domain.RoleUser, prompt, false); err != nil {
			return err
		}
		if _, err := repo.CreateMessage(tx, c.ID, domain.RoleAssistant, hint, false); err != nil {
			return err
		}
		if err := repo.IncrementHints(ctx, tx, c.ID, 0); err != nil {
			return err
		}
		chat = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, userID, chat.ID)
}

// advance appends one more hint exchange to an existing chat. userPrompt is
// recorded as the user message; the problem sent to the model is the chat's
// original problem statement for the second stage.
func (s *HintService) advance(ctx context.Context, userID, chatID, userPrompt string) (*domain.Chat, error) {
	chat, err := repo.GetChat(ctx, s.DB, chatID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if chat.HintsUsed >= domain.MaxHints {
		return nil, ErrMaxHints
	}

	history, err := repo.ListMessages(s.DB.WithContext(ctx), chatID, 0)
	if err != nil {
		return nil, err
	}

	stage := genai.StageSecond
	problem := userPrompt
	if chat.HintsUsed == 0 {
		stage = genai.StageFirst
	} else {
		// The stage-two instruction wraps the original problem, not the
		// follow-up request.
		if first, err := repo.FirstUserMessage(s.DB.WithContext(ctx), chatID); err == nil {
			problem = first.Content
		}
	}

	hint, err := s.AI.Hint(ctx, stage, problem, toTurns(history))
	if err != nil {
		return nil, ErrAIUnavailable
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateMessage(tx, chatID, domain.RoleUser, userPrompt, false); err != nil {
			return err
		}
		if _, err := repo.CreateMessage(tx, chatID, domain.RoleAssistant, hint, false); err != nil {
			return err
		}
		return repo.IncrementHints(ctx, tx, chatID, chat.HintsUsed)
	})
	if errors.Is(err, repo.ErrStaleHints) {
		// A concurrent request advanced the session first; the transaction
		// rolled back, so no duplicate exchange was persisted.
		return nil, ErrMaxHints
	}
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, userID, chatID)
}

// reload fetches the chat with its full message list.
func (s *HintService) reload(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	c, err := repo.GetChatWithMessages(ctx, s.DB, chatID, userID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// toTurns converts stored messages to pipeline history.
func toTurns(msgs []domain.Message) []genai.Turn {
	out := make([]genai.Turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, genai.Turn{Role: m.Role, Content: m.Content})
	}
	return out
}

// --- Title generation helpers ---

// titleFromPrompt derives a concise title from the problem statement.
func (s *HintService) titleFromPrompt(prompt string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(strings.TrimSpace(prompt)), -1)
	if len(toks) == 0 {
		return defaultTitleNew
	}

	titleCaser := cases.Title(s.titleLocaleOrDefault())
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		return defaultTitleNew
	}
	return s.clipTitle(strings.Join(out, " "))
}

// clipTitle truncates a generated title to the configured maximum rune length.
func (s *HintService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

// titleLocaleOrDefault returns the configured locale for casing or English if unset.
func (s *HintService) titleLocaleOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.English
	}
	return s.TitleLocale
}

// Extract Unicode letters with optional trailing numbers (e.g., "2x").
var titleWordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
}
