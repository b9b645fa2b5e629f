package domain

import "errors"

// Kind tags an error with the outcome class the transport layer renders.
type Kind int

const (
	KindInfrastructure Kind = iota
	KindUnauthenticated
	KindForbidden
	KindSelfAction
	KindNotFound
	KindConflict
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindSelfAction:
		return "self_action"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	default:
		return "infrastructure"
	}
}

// Authentication.
var (
	ErrNoToken            = errors.New("No token provided")
	ErrInvalidToken       = errors.New("Invalid token")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrAccountDeactivated = errors.New("Account is deactivated")
)

// Authorization.
var (
	ErrAccessDenied      = errors.New("Access denied")
	ErrSelfDelete        = errors.New("Cannot delete your own account")
	ErrSelfToggle        = errors.New("Cannot toggle your own status")
	ErrSelfDeactivate    = errors.New("Cannot deactivate your own account")
	ErrRoleNotAssignable = errors.New("Role cannot be self-assigned")
)

// Lookups. ErrInvalidID is returned by stores for ids that cannot name a record.
var (
	ErrInvalidID        = errors.New("Not found")
	ErrUserNotFound     = errors.New("User not found")
	ErrProjectNotFound  = errors.New("Project not found")
	ErrTaskNotFound     = errors.New("Task not found")
	ErrActivityNotFound = errors.New("Activity not found")
)

// Uniqueness.
var (
	ErrUserExists    = errors.New("User already exists")
	ErrEmailTaken    = errors.New("Email already exists")
	ErrUsernameTaken = errors.New("Username already exists")
)

// ErrInvalidInput is matched by every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError carries a client-facing message for a rejected payload.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid builds a ValidationError.
func Invalid(msg string) error { return &ValidationError{Msg: msg} }

// KindOf classifies err. Unknown errors are infrastructure failures.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInfrastructure
	case errors.Is(err, ErrNoToken), errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountDeactivated):
		return KindUnauthenticated
	case errors.Is(err, ErrAccessDenied):
		return KindForbidden
	case errors.Is(err, ErrSelfDelete), errors.Is(err, ErrSelfToggle), errors.Is(err, ErrSelfDeactivate):
		return KindSelfAction
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrProjectNotFound),
		errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrActivityNotFound):
		return KindNotFound
	case errors.Is(err, ErrUserExists), errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		return KindConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrRoleNotAssignable):
		return KindInvalid
	}
	return KindInfrastructure
}
