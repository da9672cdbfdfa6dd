// Learning-resources HTTP handlers.
//
//   - GET  /chat/{id}/resources  (static starter set, no model call)
//   - POST /chat/resources       (generate and persist resources for a chat)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/resources"
	"github.com/hintly/go-hints-backend/internal/services"
)

// StarterResourcesResponse wraps the static resource set.
type StarterResourcesResponse struct {
	Resources []resources.Resource `json:"resources"`
}

// GenerateResourcesRequest selects the chat to generate resources for.
type GenerateResourcesRequest struct {
	ChatID string `json:"chat_id" binding:"required" format:"uuid"`
}

// GenerateResourcesResponse carries the persisted resources message.
type GenerateResourcesResponse struct {
	Message *domain.Message `json:"message"`
	// Created is false when the chat already had resources and the stored
	// message was returned instead.
	Created bool `json:"created"`
}

// StarterResources godoc
// @ID          starterResources
// @Summary     Get starter resources
// @Description Returns the curated starter resource set. No model call, no persistence.
// @Tags        Resources
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Chat ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.StarterResourcesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /chat/{id}/resources [get]
func (h *Handlers) StarterResources(c *gin.Context) {
	if _, err := uuid.Parse(c.Param("id")); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return
	}
	ok(c, http.StatusOK, StarterResourcesResponse{Resources: h.resSvc.Starter()})
}

// GenerateResources godoc
// @ID          generateResources
// @Summary     Generate learning resources
// @Description Generates and persists the learning-resources message for a completed
// @Description chat. Idempotent: a chat that already has resources returns the stored
// @Description message without another model call.
// @Tags        Resources
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.GenerateResourcesRequest  true  "Target chat"
// @Success     200  {object}  handlers.GenerateResourcesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Chat has hints remaining"
// @Failure     404  {object}  handlers.ErrorResponse  "Chat not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/resources [post]
func (h *Handlers) GenerateResources(c *gin.Context) {
	var req GenerateResourcesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_id required")
		return
	}
	if _, err := uuid.Parse(req.ChatID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_id must be a UUID")
		return
	}

	msg, created, err := h.resSvc.Generate(c.Request.Context(), userID(c), req.ChatID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChatNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
		case errors.Is(err, services.ErrNotCompleted):
			fail(c, http.StatusBadRequest, ErrCodeNotCompleted, "resources are available after both hints are used")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, GenerateResourcesResponse{Message: msg, Created: created})
}
