// Package services – FeedbackService
//
// Thumbs-up / thumbs-down feedback on assistant hint messages. One vote per
// user per message, enforced by a unique index; feedback on user-authored
// messages or on chats owned by someone else is rejected.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/repo"
)

// FeedbackService records per-message hint feedback.
type FeedbackService struct {
	DB *gorm.DB
}

// Leave records feedback (value must be +1 or -1) from userID on an
// assistant message the user's own chat contains.
func (s *FeedbackService) Leave(ctx context.Context, userID, messageID string, value int) error {
	if value != 1 && value != -1 {
		return ErrInvalidFeedback
	}

	db := s.DB.WithContext(ctx)

	msg, err := repo.GetMessage(db, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	if msg.Role != domain.RoleAssistant {
		return ErrForbiddenFeedback
	}

	// Ownership: the message's chat must belong to the caller.
	if _, err := repo.GetChat(ctx, s.DB, msg.ChatID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbiddenFeedback
		}
		return err
	}

	if err := repo.LeaveFeedback(db, messageID, userID, value); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrDuplicateFeedback
		}
		return err
	}
	return nil
}
