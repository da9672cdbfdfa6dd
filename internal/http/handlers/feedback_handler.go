// Feedback HTTP handler.
//
//   - POST /messages/{id}/feedback  (record +1/-1 feedback on a hint)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hintly/go-hints-backend/internal/services"
)

// LeaveFeedbackRequest is the JSON payload for rating a hint message.
// Value is +1 (helpful) or -1 (not helpful).
type LeaveFeedbackRequest struct {
	Value int `json:"value" binding:"required,oneof=-1 1" example:"1"`
}

// LeaveFeedback godoc
// @ID          leaveFeedback
// @Summary     Rate a hint
// @Description Records positive (+1) or negative (-1) feedback on an assistant message.
// @Tags        Feedback
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string  true  "Message ID (UUID)"  format(uuid)
// @Param       body  body  handlers.LeaveFeedbackRequest  true  "Feedback payload"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     403  {object}  handlers.ErrorResponse  "Not allowed to rate this message"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Feedback already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages/{id}/feedback [post]
func (h *Handlers) LeaveFeedback(c *gin.Context) {
	messageID := c.Param("id")
	if _, err := uuid.Parse(messageID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message id must be a UUID")
		return
	}

	var req LeaveFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		return
	}

	if err := h.fbSvc.Leave(c.Request.Context(), userID(c), messageID, req.Value); err != nil {
		switch {
		case errors.Is(err, services.ErrMessageNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
		case errors.Is(err, services.ErrInvalidFeedback):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		case errors.Is(err, services.ErrForbiddenFeedback):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "cannot leave feedback on this message")
		case errors.Is(err, services.ErrDuplicateFeedback):
			fail(c, http.StatusConflict, ErrCodeConflict, "feedback already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	c.Status(http.StatusNoContent)
}
