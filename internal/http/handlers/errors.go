// HTTP-layer error codes.
//
// Codes are lowercase snake_case and stable: clients branch on them for
// programmatic handling, while `message` stays free to change. Generic codes
// mirror HTTP status semantics; domain codes cover hint-session outcomes that
// status alone cannot convey (a 400 may be a malformed body or an exhausted
// hint budget).
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeMaxHintsUsed     = "max_hints_used"
	ErrCodeNotCompleted     = "not_completed"
	ErrCodeHintFailed       = "hint_failed"
	ErrCodeSignupFailed     = "signup_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
