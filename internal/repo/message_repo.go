// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model. Messages are append-only: there are deliberately no update or
// delete helpers here.
package repo

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hintly/go-hints-backend/internal/domain"
)

// CreateMessage appends a new message row to a chat.
func CreateMessage(db *gorm.DB, chatID, role, content string, isResource bool) (*domain.Message, error) {
	m := &domain.Message{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		Role:       role,
		Content:    content,
		IsResource: isResource,
		CreatedAt:  time.Now().UTC(),
	}
	return m, db.Create(m).Error
}

// ListMessages returns messages in conversation order (CreatedAt ASC, ID ASC).
func ListMessages(db *gorm.DB, chatID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.Where("chat_id = ?", chatID).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(db *gorm.DB, chatID string) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM messages WHERE chat_id = ?", chatID).Scan(&total).Error
	return total, err
}

// FirstUserMessage returns the earliest user-authored message of a chat,
// i.e. the original problem statement, or ErrNotFound when the chat has no
// user messages yet.
func FirstUserMessage(db *gorm.DB, chatID string) (*domain.Message, error) {
	var m domain.Message
	err := db.
		Where("chat_id = ? AND role = ?", chatID, domain.RoleUser).
		Order("created_at ASC, id ASC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ResourceMessage returns the chat's resources message (is_resource = true),
// or ErrNotFound when none has been appended. At most one such message
// exists per chat.
func ResourceMessage(db *gorm.DB, chatID string) (*domain.Message, error) {
	var m domain.Message
	err := db.
		Where("chat_id = ? AND is_resource = ?", chatID, true).
		Order("created_at ASC, id ASC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// HasResourceMessage reports whether the chat already carries a resources
// message. Used to verify the has_resources flag against the actual rows.
func HasResourceMessage(db *gorm.DB, chatID string) (bool, error) {
	_, err := ResourceMessage(db, chatID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// GetMessage fetches a message by ID.
func GetMessage(db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// LeaveFeedback creates a hint-feedback row for a message on behalf of userID.
func LeaveFeedback(db *gorm.DB, messageID, userID string, value int) error {
	fb := &domain.HintFeedback{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    userID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(fb).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
