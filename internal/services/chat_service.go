// Package services – ChatService
//
// This file implements the ChatService, which manages chat lifecycle
// operations that do not involve the generative model: listing (with
// pagination), fetching with history, deleting, and the generic append
// used to persist arbitrary messages (including resource messages) into a
// chat. The hint-progression state machine lives in HintService.
//
// Service-level errors (e.g., ErrChatNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/repo"
)

// ChatRepo defines the repository contract required by ChatService.
// Implementations are responsible for persistence of chat aggregates.
type ChatRepo interface {
	// GetChat fetches a chat by ID ensuring it belongs to the user.
	GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error)

	// GetChatWithMessages fetches a chat and its ordered message history.
	GetChatWithMessages(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error)

	// CountChats returns the total number of chats for pagination.
	CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListChatsPage returns a page of chats, most recently updated first.
	ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error)

	// DeleteChat hard-deletes a chat belonging to the user.
	DeleteChat(ctx context.Context, db *gorm.DB, id, userID string) error

	// ChatsStats returns the chat count and latest update time for a user.
	ChatsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error)
}

// ChatService provides chat-level operations: pagination, retrieval,
// deletion, and generic message appends. It enforces ownership constraints.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the chat repository used by this service.
	Repo ChatRepo
}

// NewChatService constructs a ChatService.
func NewChatService(db *gorm.DB, r ChatRepo) *ChatService {
	return &ChatService{DB: db, Repo: r}
}

// Get returns a chat with its full message history, or ErrChatNotFound.
func (s *ChatService) Get(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	c, err := s.Repo.GetChatWithMessages(ctx, s.DB, chatID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListPage returns a page of chats for a user, newest-updated first.
// It applies defaults for invalid page/pageSize and returns the total count.
func (s *ChatService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountChats(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Chat{}, 0, nil
	}

	items, err := s.Repo.ListChatsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Stats returns aggregate metadata for a user's chat list: the total number
// of chats and the most recent update time (nil when there are none).
// Handlers use it to derive conditional-response validators.
func (s *ChatService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return s.Repo.ChatsStats(ctx, s.DB, userID)
}

// Delete removes a chat (and its messages) irreversibly.
// Deleting a chat that does not exist or belongs to another user returns
// ErrChatNotFound; no other chat is affected either way.
func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	err := s.Repo.DeleteChat(ctx, s.DB, chatID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrChatNotFound
	}
	return err
}

// Append adds a single message to an existing chat. When the message is a
// resource message, the chat's has_resources flag is set in the same
// transaction; otherwise only the recency timestamp is bumped.
//
// Role must be "user" or "assistant" and content must be non-empty.
func (s *ChatService) Append(ctx context.Context, userID, chatID, role, content string, isResource bool) (*domain.Chat, error) {
	role = strings.TrimSpace(role)
	if role != domain.RoleUser && role != domain.RoleAssistant {
		return nil, ErrInvalidRole
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyPrompt
	}

	if _, err := s.Repo.GetChat(ctx, s.DB, chatID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateMessage(tx, chatID, role, content, isResource); err != nil {
			return err
		}
		if isResource {
			return repo.MarkResources(ctx, tx, chatID)
		}
		return repo.TouchChat(ctx, tx, chatID)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, chatID)
}
