// Auth HTTP handlers.
//
// This file exposes the account endpoints:
//   - POST /auth/signup  (create an account)
//   - POST /auth/login   (exchange credentials for a bearer token)
//
// Handlers are transport-thin: they validate and normalize inputs, delegate
// to UserService, and translate sentinel errors into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/services"
)

// UserService defines the account operations consumed by HTTP handlers.
type UserService interface {
	// Signup creates an account after validating name/email/password.
	Signup(ctx context.Context, name, email, password string) (*domain.User, error)
	// Authenticate verifies credentials and returns the account.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// TokenIssuer mints a signed session token for an authenticated account.
// Satisfied by *auth.Manager.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// SignupRequest is the JSON payload for creating an account.
type SignupRequest struct {
	Name     string `json:"name" example:"Ada Lovelace"`
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"correct horse"`
}

// SignupResponse echoes the created account.
type SignupResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// LoginRequest is the JSON payload for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"correct horse"`
}

// LoginResponse carries the bearer token and the account it belongs to.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Signup godoc
// @ID          signup
// @Summary     Create an account
// @Description Registers a new user. Email must be unique; password at least 6 characters.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.SignupRequest  true  "Signup payload"
// @Success     201  {object}  handlers.SignupResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failure or duplicate email"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/signup [post]
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email and password are required")
		case errors.Is(err, services.ErrBadEmail):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid email address")
		case errors.Is(err, services.ErrWeakPassword):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "password must be at least 6 characters")
		case errors.Is(err, services.ErrEmailTaken):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "an account with this email already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSignupFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, SignupResponse{UserID: u.ID, Name: u.Name, Email: u.Email})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a bearer token for the API.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}

	u, err := h.userSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Email)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue token")
		return
	}

	ok(c, http.StatusOK, LoginResponse{Token: token, User: u})
}
