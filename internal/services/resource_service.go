// Package services – ResourceService
//
// This file implements ResourceService, which produces the learning-resources
// step that closes a hint session. Resources are only available once a chat
// has used both hints (is_completed); generation is idempotent — a second
// request returns the stored resource message without another model call.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/repo"
	"github.com/hintly/go-hints-backend/internal/resources"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ResourceGenerator is the slice of the AI pipeline used for resource
// suggestions. Satisfied by *genai.Pipeline. The boolean reports whether the
// curated fallback was used instead of model output.
type ResourceGenerator interface {
	Resources(ctx context.Context, problem string) ([]resources.Resource, bool)
}

// ResourceService generates and persists learning-resource messages.
type ResourceService struct {
	DB *gorm.DB
	AI ResourceGenerator
}

// Generate produces the resources message for a completed chat. For a chat
// that already has one it returns the stored message unchanged. The second
// return value reports whether this call created the message.
func (s *ResourceService) Generate(ctx context.Context, userID, chatID string) (*domain.Message, bool, error) {
	tr := otel.Tracer("services/ResourceService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	chat, err := repo.GetChat(ctx, s.DB, chatID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrChatNotFound
		}
		return nil, false, err
	}
	if !chat.IsCompleted {
		return nil, false, ErrNotCompleted
	}

	if chat.HasResources {
		msg, err := repo.ResourceMessage(s.DB.WithContext(ctx), chatID)
		if err == nil {
			return msg, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
		// Flag set but message missing; regenerate below.
	}

	problem := ""
	if first, err := repo.FirstUserMessage(s.DB.WithContext(ctx), chatID); err == nil {
		problem = first.Content
	}

	set, usedFallback := s.AI.Resources(ctx, problem)
	span.SetAttributes(attribute.Bool("resources.fallback", usedFallback))
	content := resources.RenderMarkdown(set)

	var msg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.CreateMessage(tx, chatID, domain.RoleAssistant, content, true)
		if err != nil {
			return err
		}
		msg = m
		return repo.MarkResources(ctx, tx, chatID)
	})
	if err != nil {
		return nil, false, err
	}
	return msg, true, nil
}

// Starter returns the curated starter resource set shown before any
// problem has been submitted. No persistence, no model call.
func (s *ResourceService) Starter() []resources.Resource {
	return resources.Starter()
}
