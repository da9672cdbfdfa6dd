// Chat HTTP handlers.
//
// This file exposes the hint-session endpoints:
//   - POST   /chat               (submit a problem: create a chat or advance one)
//   - POST   /chat/{id}/hint     (request the next hint)
//   - POST   /chat/{id}/message  (append a message verbatim)
//   - GET    /chats              (list, paginated, ETag support)
//   - DELETE /chat/{id}          (delete a chat and its messages)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate sentinel errors into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/http/middleware"
	"github.com/hintly/go-hints-backend/internal/resources"
	"github.com/hintly/go-hints-backend/internal/services"
	"github.com/hintly/go-hints-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// HintService drives the staged-hint state machine.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type HintService interface {
	// Submit records a problem and produces a hint, creating the chat when
	// chatID is empty.
	Submit(ctx context.Context, userID, chatID, prompt string) (*domain.Chat, error)
	// NextHint advances an existing chat by one hint.
	NextHint(ctx context.Context, userID, chatID string) (*domain.Chat, error)
}

// ChatService defines chat lifecycle operations consumed by HTTP handlers.
type ChatService interface {
	// Get returns a chat with its messages, scoped to userID.
	Get(ctx context.Context, userID, chatID string) (*domain.Chat, error)
	// ListPage returns a page of chats for a user and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error)
	// Delete removes a chat that belongs to userID.
	Delete(ctx context.Context, userID, chatID string) error
	// Append stores a message verbatim and returns the updated chat.
	Append(ctx context.Context, userID, chatID, role, content string, isResource bool) (*domain.Chat, error)
	// Stats returns the chat count and latest update time for a user,
	// used to derive conditional-response validators.
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
}

// ResourceService produces the learning-resources step of a session.
type ResourceService interface {
	// Generate creates (or returns the stored) resources message for a
	// completed chat. The boolean reports whether this call created it.
	Generate(ctx context.Context, userID, chatID string) (*domain.Message, bool, error)
	// Starter returns the static resource set shown before any submission.
	Starter() []resources.Resource
}

// FeedbackService captures per-message hint feedback.
type FeedbackService interface {
	// Leave submits a feedback value (-1 or 1) for messageID by userID.
	Leave(ctx context.Context, userID, messageID string, value int) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints and their service dependencies.
type Handlers struct {
	userSvc UserService
	hintSvc HintService
	chatSvc ChatService
	resSvc  ResourceService
	fbSvc   FeedbackService
	tokens  TokenIssuer

	// maxPromptRunes caps submitted problem length at the transport edge;
	// values < 1 fall back to defaultMaxPromptRunes.
	maxPromptRunes int
}

// New constructs a Handlers bound to the given services. maxPromptRunes
// comes from config and mirrors the limit the hint service enforces.
func New(userSvc UserService, hintSvc HintService, chatSvc ChatService, resSvc ResourceService, fbSvc FeedbackService, tokens TokenIssuer, maxPromptRunes int) *Handlers {
	if maxPromptRunes < 1 {
		maxPromptRunes = defaultMaxPromptRunes
	}
	return &Handlers{
		userSvc:        userSvc,
		hintSvc:        hintSvc,
		chatSvc:        chatSvc,
		resSvc:         resSvc,
		fbSvc:          fbSvc,
		tokens:         tokens,
		maxPromptRunes: maxPromptRunes,
	}
}

// userID extracts the authenticated user id set by the auth middleware.
func userID(c *gin.Context) string {
	return middleware.UserID(c)
}

//
// DTOs
//

// ChatMessageInput is one element of the messages array accepted by POST /chat.
type ChatMessageInput struct {
	Content string `json:"content"`
	Role    string `json:"role"`
	ChatID  string `json:"chat_id,omitempty"`
}

// SubmitRequest is the JSON payload for submitting a problem. The handler
// uses the last message's content as the prompt and its chat_id (when set)
// to continue an existing session.
type SubmitRequest struct {
	Messages []ChatMessageInput `json:"messages" binding:"required,min=1"`
}

// ChatResponse wraps a chat with its full message history.
type ChatResponse struct {
	Chat *domain.Chat `json:"chat"`
}

// AppendMessageRequest is the JSON payload for storing a message verbatim.
type AppendMessageRequest struct {
	Role       string `json:"role" binding:"required" example:"assistant"`
	Content    string `json:"content" binding:"required,min=1"`
	IsResource bool   `json:"is_resource,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListChatsResponse wraps a page of chats and pagination information.
type ListChatsResponse struct {
	Chats      []domain.Chat `json:"chats"`
	Pagination Pagination    `json:"pagination"`
}

//
// Helpers
//

// maxImageBytes caps uploaded problem images. Images are accepted for API
// compatibility but not processed; text extraction is not supported.
const maxImageBytes = 5 << 20

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text: CRLF/CR to LF, runs of 3+ LFs to a
// paragraph break, surrounding whitespace trimmed.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// defaultMaxPromptRunes is the transport-edge prompt cap used when no limit
// is configured.
const defaultMaxPromptRunes = 4000

// submitInput extracts (prompt, chatID) from either a JSON or multipart
// submission. Multipart accepts `message`, `chat_id` and an optional `image`
// file that is only size-checked.
func submitInput(c *gin.Context) (prompt, chatID string, err error) {
	ct := c.ContentType()
	if strings.HasPrefix(ct, "multipart/form-data") {
		if fh, ferr := c.FormFile("image"); ferr == nil && fh != nil {
			if fh.Size > maxImageBytes {
				return "", "", fmt.Errorf("image too large: max %d bytes", maxImageBytes)
			}
		}
		return c.PostForm("message"), c.PostForm("chat_id"), nil
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		return "", "", errors.New("messages required")
	}
	last := req.Messages[len(req.Messages)-1]
	return last.Content, last.ChatID, nil
}

//
// Handlers
//

// SubmitProblem godoc
// @ID          submitProblem
// @Summary     Submit a problem
// @Description Creates a new hint session for the submitted problem, or advances an
// @Description existing one when chat_id is provided. Accepts JSON or multipart form
// @Description (fields: message, chat_id, image). Uploaded images are size-checked only.
// @Tags        Chats
// @Accept      json
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.SubmitRequest  true  "Problem submission"
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or hint budget exhausted"
// @Failure     404  {object}  handlers.ErrorResponse  "Chat not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Hint generation failed"
// @Router      /chat [post]
func (h *Handlers) SubmitProblem(c *gin.Context) {
	prompt, chatID, err := submitInput(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if chatID != "" {
		if _, err := uuid.Parse(chatID); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_id must be a UUID")
			return
		}
	}

	prompt = sanitizeContent(prompt)
	if prompt == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	if utf8.RuneCountInString(prompt) > h.maxPromptRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", h.maxPromptRunes))
		return
	}

	chat, err := h.hintSvc.Submit(c.Request.Context(), userID(c), chatID, prompt)
	if err != nil {
		h.failHint(c, err)
		return
	}
	ok(c, http.StatusOK, ChatResponse{Chat: chat})
}

// NextHint godoc
// @ID          nextHint
// @Summary     Request the next hint
// @Description Records a hint request and returns the chat with the new hint appended.
// @Tags        Chats
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Chat ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Hint budget exhausted"
// @Failure     404  {object}  handlers.ErrorResponse  "Chat not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Hint generation failed"
// @Router      /chat/{id}/hint [post]
func (h *Handlers) NextHint(c *gin.Context) {
	chatID := c.Param("id")
	if _, err := uuid.Parse(chatID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return
	}

	chat, err := h.hintSvc.NextHint(c.Request.Context(), userID(c), chatID)
	if err != nil {
		h.failHint(c, err)
		return
	}
	ok(c, http.StatusOK, ChatResponse{Chat: chat})
}

// failHint maps hint-session errors onto HTTP responses.
func (h *Handlers) failHint(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
	case errors.Is(err, services.ErrMaxHints):
		fail(c, http.StatusBadRequest, ErrCodeMaxHintsUsed, "maximum hints already used for this chat")
	case errors.Is(err, services.ErrEmptyPrompt):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
	case errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message too long")
	case errors.Is(err, services.ErrAIUnavailable):
		fail(c, http.StatusInternalServerError, ErrCodeHintFailed, "hint generation failed, please retry")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// AppendMessage godoc
// @ID          appendMessage
// @Summary     Append a message verbatim
// @Description Stores a message on the chat without hint processing. Used by clients
// @Description to persist locally rendered assistant output.
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string  true  "Chat ID (UUID)"  format(uuid)
// @Param       body  body  handlers.AppendMessageRequest  true  "Message payload"
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Chat not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/{id}/message [post]
func (h *Handlers) AppendMessage(c *gin.Context) {
	chatID := c.Param("id")
	if _, err := uuid.Parse(chatID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return
	}

	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role and content required")
		return
	}

	chat, err := h.chatSvc.Append(c.Request.Context(), userID(c), chatID, req.Role, sanitizeContent(req.Content), req.IsResource)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChatNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
		case errors.Is(err, services.ErrInvalidRole):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role must be user or assistant")
		case errors.Is(err, services.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ChatResponse{Chat: chat})
}

// ListChats godoc
// @ID          listChats
// @Summary     List chats (paginated)
// @Description Returns a page of the user's chats, most recently updated first.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chats
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListChatsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check, best effort: a failed stats query skips caching
	// rather than failing the request.
	if count, maxTS, err := h.chatSvc.Stats(ctx, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"chats:%s:%d:%d"`, uid, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.chatSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListChatsResponse{
		Chats: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// DeleteChat godoc
// @ID          deleteChat
// @Summary     Delete a chat
// @Description Permanently removes a chat and all of its messages.
// @Tags        Chats
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Chat ID (UUID)"  format(uuid)
// @Success     200  {object}  map[string]bool
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Chat not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/{id} [delete]
func (h *Handlers) DeleteChat(c *gin.Context) {
	chatID := c.Param("id")
	if _, err := uuid.Parse(chatID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return
	}

	if err := h.chatSvc.Delete(c.Request.Context(), userID(c), chatID); err != nil {
		if errors.Is(err, services.ErrChatNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": true})
}
