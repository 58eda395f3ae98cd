package utils

import (
	"fmt"

	"github.com/dl-alexandre/qrcgen/internal/types"
)

// Exit codes
const (
	ExitSuccess = 0
	// Input errors (20-29)
	ExitInputMissing = 20
	ExitNoImages     = 21
	// Output errors (30-39)
	ExitBackupFailed = 30
	ExitWriteFailed  = 31
	// Validation errors (40-49)
	ExitInvalidArgument = 40
	ExitStale           = 41
	// Unknown
	ExitUnknown = 99
)

// Error codes (tool-owned, stable)
const (
	ErrCodeInputMissing    = "INPUT_MISSING"
	ErrCodeNoImages        = "NO_IMAGES"
	ErrCodeBackupFailed    = "BACKUP_FAILED"
	ErrCodeWriteFailed     = "WRITE_FAILED"
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"
	ErrCodeStale           = "MANIFEST_STALE"
	ErrCodeUnknown         = "UNKNOWN"
)

// CLIErrorBuilder helps construct CLIError instances
type CLIErrorBuilder struct {
	err types.CLIError
}

// NewCLIError creates a new error builder
func NewCLIError(code, message string) *CLIErrorBuilder {
	return &CLIErrorBuilder{
		err: types.CLIError{
			Code:    code,
			Message: message,
		},
	}
}

func (b *CLIErrorBuilder) WithContext(key string, value interface{}) *CLIErrorBuilder {
	if b.err.Context == nil {
		b.err.Context = make(map[string]interface{})
	}
	b.err.Context[key] = value
	return b
}

func (b *CLIErrorBuilder) Build() types.CLIError {
	return b.err
}

// GetExitCode returns the exit code for an error code
func GetExitCode(errorCode string) int {
	mapping := map[string]int{
		ErrCodeInputMissing:    ExitInputMissing,
		ErrCodeNoImages:        ExitNoImages,
		ErrCodeBackupFailed:    ExitBackupFailed,
		ErrCodeWriteFailed:     ExitWriteFailed,
		ErrCodeInvalidArgument: ExitInvalidArgument,
		ErrCodeStale:           ExitStale,
	}
	if code, ok := mapping[errorCode]; ok {
		return code
	}
	return ExitUnknown
}

// AppError is a custom error type that carries CLI error info
type AppError struct {
	CLIError types.CLIError
	Err      error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.CLIError.Code, e.CLIError.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ExitCode maps the carried error code to a process exit code.
func (e *AppError) ExitCode() int {
	return GetExitCode(e.CLIError.Code)
}

// NewAppError creates an AppError from a CLIError
func NewAppError(cliErr types.CLIError, cause error) *AppError {
	return &AppError{CLIError: cliErr, Err: cause}
}
