// Package services – UserService
//
// This file implements the UserService, which owns account signup and
// credential verification. It validates signup input (required fields, email
// format, password strength), hashes passwords with bcrypt, and delegates
// persistence to the user repository. Service-level errors (ErrMissingFields,
// ErrBadEmail, ErrWeakPassword, ErrEmailTaken, ErrInvalidCredentials) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/repo"
)

// MinPasswordLen is the minimum accepted password length at signup.
const MinPasswordLen = 6

// emailRE is intentionally permissive: one "@", no whitespace, a dot in the
// domain part. Real validation happens when mail is delivered.
var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserService provides account operations: signup, credential checks, and
// email-based lookup for externally authenticated sessions.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

// NewUserService constructs a UserService with the default bcrypt cost.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db, Cost: bcrypt.DefaultCost}
}

// Signup validates the input, hashes the password, and creates the account.
//
// Validation mirrors the public signup form: all fields required, email must
// look like an address, password must have at least MinPasswordLen characters.
// A duplicate email yields ErrEmailTaken.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if !emailRE.MatchString(email) {
		return nil, ErrBadEmail
	}
	if len(password) < MinPasswordLen {
		return nil, ErrWeakPassword
	}

	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}

	u, err := repo.CreateUser(ctx, s.DB, name, email, string(hash), "")
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	return u, err
}

// Authenticate verifies an email/password pair and returns the account.
// Both an unknown email and a wrong password yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// FindOrCreate resolves a user by email, creating a passwordless row when
// none exists. Used for sessions established by an external identity
// provider that only carries name/email claims.
func (s *UserService) FindOrCreate(ctx context.Context, name, email string) (*domain.User, error) {
	if !emailRE.MatchString(strings.TrimSpace(email)) {
		return nil, ErrBadEmail
	}
	return repo.FindOrCreateUser(ctx, s.DB, strings.TrimSpace(name), email)
}
