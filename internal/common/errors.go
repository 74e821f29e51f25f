package common

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
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
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
)

// Extraction engine errors. Only ErrEmptyInput, ErrChunking and
// ErrTotalExtractionFailure ever reach callers of the orchestrator; the
// others are recorded on candidates or on the returned record.
var (
	ErrEmptyInput             = errors.New("empty input")
	ErrChunking               = errors.New("chunking failed")
	ErrExtractionTransport    = errors.New("extraction transport failure")
	ErrExtractionFormat       = errors.New("extraction response not structured data")
	ErrSchemaValidation       = errors.New("schema validation failed")
	ErrTotalExtractionFailure = errors.New("every chunk failed extraction")
)

// Error codes used in AppError.Code.
const (
	CodeEmptyInput       = "EMPTY_INPUT"
	CodeChunking         = "CHUNKING_ERROR"
	CodeTransport        = "EXTRACTION_TRANSPORT"
	CodeFormat           = "EXTRACTION_FORMAT"
	CodeSchemaValidation = "SCHEMA_VALIDATION"
	CodeTotalFailure     = "TOTAL_EXTRACTION_FAILURE"
	CodeConfig           = "CONFIG_ERROR"
	CodeUnknownDocType   = "UNKNOWN_DOCUMENT_TYPE"
	CodeInvalidInput     = "INVALID_INPUT"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func EmptyInputError() error {
	return NewAppError(CodeEmptyInput, "document text is empty or whitespace", ErrEmptyInput)
}

func ChunkingError(message string) error {
	return NewAppError(CodeChunking, message, ErrChunking)
}

func TransportError(cause error) error {
	return NewAppError(CodeTransport, "model call failed", errors.Join(ErrExtractionTransport, cause))
}

func FormatError(message string) error {
	return NewAppError(CodeFormat, message, ErrExtractionFormat)
}

func SchemaValidationError(cause error) error {
	return NewAppError(CodeSchemaValidation, "record does not satisfy schema", errors.Join(ErrSchemaValidation, cause))
}

func TotalExtractionFailure(chunks int) error {
	return NewAppError(CodeTotalFailure, fmt.Sprintf("all %d candidate(s) failed", chunks), ErrTotalExtractionFailure)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...any) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...any) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// ToGRPCStatus maps engine and application errors to gRPC status errors.
// Errors that already carry a status are returned unchanged.
func ToGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrEmptyInput), errors.Is(err, ErrChunking), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrTotalExtractionFailure):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
