package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes surfaced to callers. Each pipeline failure carries exactly one.
const (
	CodeEmptyInput           = "EMPTY_INPUT"
	CodeMalformedResponse    = "MALFORMED_RESPONSE"
	CodeInvalidJSON          = "INVALID_JSON"
	CodeVehicleNotInCatalog  = "VEHICLE_NOT_IN_CATALOG"
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeDocumentWrite        = "DOCUMENT_WRITE_FAILURE"
	CodeCompletion           = "COMPLETION_FAILURE"
	CodeCatalog              = "CATALOG_ERROR"
	CodeConfig               = "CONFIG_ERROR"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
	// Detail carries an optional payload, e.g. the offending JSON substring.
	Detail string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
	ErrUpstream     = errors.New("upstream failure")
)

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithDetail attaches a detail payload and returns the same error.
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// ErrorCode returns the AppError code found in err's chain, or "".
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given AppError code.
func HasCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// GRPCCode maps an error to the closest gRPC status code.
func GRPCCode(err error) codes.Code {
	switch ErrorCode(err) {
	case CodeEmptyInput, CodeRequiredFieldMissing:
		return codes.InvalidArgument
	case CodeVehicleNotInCatalog:
		return codes.NotFound
	case CodeMalformedResponse, CodeInvalidJSON:
		return codes.FailedPrecondition
	case CodeCompletion:
		return codes.Unavailable
	case CodeDocumentWrite, CodeCatalog, CodeConfig:
		return codes.Internal
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return codes.InvalidArgument
	}
	return codes.Internal
}

// ToGRPCStatus converts err into a gRPC status error. Errors already carrying
// a status are returned unchanged.
func ToGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(GRPCCode(err), err.Error())
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...any) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}
