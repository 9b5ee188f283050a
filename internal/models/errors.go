package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeTokenMalformed     = "TOKEN_MALFORMED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenRevoked       = "TOKEN_REVOKED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeDuplicateUsername  = "DUPLICATE_USERNAME"
	CodePostNotFound       = "POST_NOT_FOUND"
	CodeAmbiguousPost      = "AMBIGUOUS_POST"
	CodeEmptyUpdate        = "EMPTY_UPDATE"
	CodeWriteFailure       = "WRITE_FAILURE"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so wrapped sentinels
// still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors. Compare with errors.Is.
var (
	ErrUnauthenticated    = &AppError{Code: CodeUnauthenticated, Message: "Not authenticated"}
	ErrTokenMalformed     = &AppError{Code: CodeTokenMalformed, Message: "Invalid token"}
	ErrTokenExpired       = &AppError{Code: CodeTokenExpired, Message: "Token has expired"}
	ErrTokenRevoked       = &AppError{Code: CodeTokenRevoked, Message: "Token revoked"}
	ErrInvalidCredentials = &AppError{Code: CodeInvalidCredentials, Message: "Invalid credentials"}
	ErrUserNotFound       = &AppError{Code: CodeUserNotFound, Message: "User not found"}
	ErrDuplicateUsername  = &AppError{Code: CodeDuplicateUsername, Message: "Username already exists"}
	ErrPostNotFound       = &AppError{Code: CodePostNotFound, Message: "Post not found or unauthorized"}
	ErrAmbiguousPost      = &AppError{Code: CodeAmbiguousPost, Message: "Post ID matches more than one author"}
	ErrEmptyUpdate        = &AppError{Code: CodeEmptyUpdate, Message: "No fields to update"}
	ErrWriteFailure       = &AppError{Code: CodeWriteFailure, Message: "Failed to write to the store"}
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	code := CodeInternal
	switch resource {
	case "User":
		code = CodeUserNotFound
	case "Post":
		code = CodePostNotFound
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// WithMessage returns a copy of a sentinel with a caller-specific message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{Code: e.Code, Message: message, Err: e.Err}
}

// Wrap returns a copy of a sentinel that carries an underlying cause.
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Err: err}
}

// HTTPStatus maps an error onto the status code the API reports for it.
// Errors that are not AppErrors are treated as internal failures.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeUnauthenticated, CodeTokenMalformed, CodeTokenExpired, CodeTokenRevoked, CodeInvalidCredentials:
		return fiber.StatusUnauthorized
	case CodeUserNotFound, CodePostNotFound:
		return fiber.StatusNotFound
	case CodeDuplicateUsername, CodeEmptyUpdate, CodeValidation:
		return fiber.StatusBadRequest
	case CodeAmbiguousPost:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		// Store and driver errors stay in the logs.
		if appErr.Err != nil && appErr.Code != CodeInternal && appErr.Code != CodeWriteFailure {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: "Internal server error",
			Code:  CodeInternal,
		}
	}

	return c.Status(status).JSON(response)
}

// Respond writes err with the status HTTPStatus assigns to it.
func Respond(c *fiber.Ctx, err error) error {
	return RespondWithError(c, HTTPStatus(err), err)
}
