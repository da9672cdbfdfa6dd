// Package services defines the business logic for accounts, chats, hints,
// and learning resources. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrMissingFields is returned when a signup request omits a required field.
	ErrMissingFields = errors.New("please fill in all fields")

	// ErrBadEmail is returned when an email address fails format validation.
	ErrBadEmail = errors.New("please enter a valid email address")

	// ErrWeakPassword is returned when a password is shorter than the minimum.
	ErrWeakPassword = errors.New("password must be at least 6 characters long")

	// ErrEmailTaken is returned when the signup email is already registered.
	ErrEmailTaken = errors.New("user already exists")

	// ErrInvalidCredentials is returned on a failed login attempt. It does not
	// distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Chat- and hint-related errors.
var (
	// ErrChatNotFound indicates that the requested chat does not exist or is
	// not accessible to the current user.
	ErrChatNotFound = errors.New("chat not found")

	// ErrEmptyPrompt is returned when a problem submission contains no text.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a submission exceeds the configured length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrMaxHints is returned when a hint is requested on a chat that has
	// already received its maximum number of hints. The chat is left unmodified.
	ErrMaxHints = errors.New("maximum hints already used for this chat")

	// ErrNotCompleted is returned when learning resources are requested before
	// the chat has used up its hints.
	ErrNotCompleted = errors.New("chat is not completed yet")

	// ErrAIUnavailable is returned when the generative model fails to produce
	// a hint. Hint-stage failures are surfaced, not retried; resource-stage
	// failures never produce this error (they fall back deterministically).
	ErrAIUnavailable = errors.New("hint generation failed")

	// ErrInvalidRole is returned when an appended message has a role other
	// than "user" or "assistant".
	ErrInvalidRole = errors.New("role must be user or assistant")
)

// Feedback-related errors.
var (
	// ErrInvalidFeedback is returned when a feedback value is outside {-1, 1}.
	ErrInvalidFeedback = errors.New("feedback value must be -1 or 1")

	// ErrMessageNotFound indicates the rated message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrForbiddenFeedback is returned when a user attempts to rate a message
	// they are not permitted to rate (foreign chat or a user-authored message).
	ErrForbiddenFeedback = errors.New("cannot leave feedback on this message")

	// ErrDuplicateFeedback is returned when a user rates a message twice.
	ErrDuplicateFeedback = errors.New("feedback already exists")
)
