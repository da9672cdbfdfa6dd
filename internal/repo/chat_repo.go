// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chat model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a chat is not found, functions return gorm.ErrRecordNotFound
//     (exported as ErrNotFound).
//   - IncrementHints additionally returns ErrStaleHints when the guard
//     column did not match, which callers translate to a hint-limit error.
//   - On other DB errors the raw gorm error is propagated.
//
// This repository is wrapped by higher-level services (see
// services.HintService and services.ResourceService) which enforce the
// hint-session state machine.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hintly/go-hints-backend/internal/domain"
)

// ErrStaleHints is returned by IncrementHints when the chat's hints_used
// column no longer matches the expected value, i.e. a concurrent request
// advanced the session first.
var ErrStaleHints = errors.New("hints_used changed concurrently")

// CreateChat inserts a new Chat row owned by userID with the given title.
// The chat ID is a randomly generated UUID (string), and CreatedAt is set
// to UTC. Counters and flags start at their zero values.
func CreateChat(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Chat, error) {
	c := &domain.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetChat fetches a single chat by its ID and owner (userID). If the record
// does not exist, it returns ErrNotFound.
func GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	var c domain.Chat
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetChatWithMessages fetches a chat and its full message history in
// insertion order (CreatedAt ASC, ID ASC as tiebreaker).
func GetChatWithMessages(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	c, err := GetChat(ctx, db, id, userID)
	if err != nil {
		return nil, err
	}
	msgs, err := ListMessages(db.WithContext(ctx), id, 0)
	if err != nil {
		return nil, err
	}
	c.Messages = msgs
	return c, nil
}

// CountChats returns the total number of chats owned by userID.
func CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListChats returns all chats belonging to userID, most recently updated
// first. It returns an empty slice if the user has no chats.
func ListChats(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&out).Error
	return out, err
}

// ListChatsPage returns a paginated slice of chats for userID, ordered by
// update time descending. Use CountChats to obtain the total for pagination
// metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteChat hard-deletes a chat owned by userID together with its messages
// and feedback. Children are removed explicitly inside one transaction
// rather than relying on SQLite cascade, which only fires on connections
// where the foreign_keys pragma is set. It returns ErrRecordNotFound when
// the chat does not exist, leaving every other chat untouched.
func DeleteChat(ctx context.Context, db *gorm.DB, id, userID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Chat{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("message_id IN (?)",
			tx.Model(&domain.Message{}).Select("id").Where("chat_id = ?", id),
		).Delete(&domain.HintFeedback{}).Error; err != nil {
			return err
		}
		return tx.Where("chat_id = ?", id).Delete(&domain.Message{}).Error
	})
}

// IncrementHints advances hints_used by one, but only if its current value
// still equals expected. The conditional update serializes concurrent hint
// requests against the same chat: the loser matches zero rows and gets
// ErrStaleHints instead of pushing the counter past domain.MaxHints.
//
// When the new value reaches domain.MaxHints, is_completed is set in the
// same statement.
func IncrementHints(ctx context.Context, db *gorm.DB, id string, expected int) error {
	updates := map[string]any{
		"hints_used": gorm.Expr("hints_used + 1"),
		"updated_at": time.Now().UTC(),
	}
	if expected+1 >= domain.MaxHints {
		updates["is_completed"] = true
	}
	res := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ? AND hints_used = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleHints
	}
	return nil
}

// MarkResources sets has_resources on a chat. It is a no-op in effect when
// the flag is already set (the row is still touched, refreshing updated_at).
func MarkResources(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"has_resources": true,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchChat bumps updated_at so appended messages move the chat to the top
// of the recency-ordered list.
func TouchChat(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

// UpdateChatTitle updates the title of a chat identified by id. If no rows
// are affected the chat is missing and ErrNotFound is returned.
func UpdateChatTitle(ctx context.Context, db *gorm.DB, id, title string) error {
	res := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", id).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
