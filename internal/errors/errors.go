package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind classifies an application error. It decides the HTTP status.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindAuth       Kind = "UNAUTHORIZED"
	KindForbidden  Kind = "FORBIDDEN"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindInternal   Kind = "INTERNAL_ERROR"
)

// AppError is the error type returned by services.
// Message is safe to show to clients; Err carries the underlying cause.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation reports malformed, missing or out-of-range input.
func Validation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// Auth reports missing or invalid credentials or session.
func Auth(message string) *AppError {
	return &AppError{Kind: KindAuth, Message: message}
}

// Forbidden reports an authenticated caller that is not entitled to the resource.
func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NotFound reports a referenced entity that does not exist.
func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// Conflict reports a violated state precondition.
func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

var (
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = Auth("invalid credentials")
	// ErrUnauthorized is returned when the caller has no usable session.
	ErrUnauthorized = Auth("unauthorized")
	// ErrUserAlreadyExists is returned when registering a taken username or email.
	ErrUserAlreadyExists = Conflict("username or email already exists")
	// ErrPartNotFound is returned when a part does not exist.
	ErrPartNotFound = NotFound("part not found")
	// ErrOrderNotFound is returned when an order does not exist.
	ErrOrderNotFound = NotFound("order not found")
	// ErrNotInPanel is returned when removing a part that is not in the cart.
	ErrNotInPanel = NotFound("part not found in panel")
)

// KindOf returns the Kind of err, or KindInternal if err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Conflicts surface as 400 to match the public API contract.
func MapErrorToHTTP(err error) *HTTPError {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", string(KindInternal))
	}

	switch appErr.Kind {
	case KindValidation:
		return NewHTTPError(http.StatusBadRequest, appErr.Message, string(appErr.Kind))
	case KindAuth:
		return NewHTTPError(http.StatusUnauthorized, appErr.Message, string(appErr.Kind))
	case KindForbidden:
		return NewHTTPError(http.StatusForbidden, appErr.Message, string(appErr.Kind))
	case KindNotFound:
		return NewHTTPError(http.StatusNotFound, appErr.Message, string(appErr.Kind))
	case KindConflict:
		return NewHTTPError(http.StatusBadRequest, appErr.Message, string(appErr.Kind))
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", string(KindInternal))
	}
}
