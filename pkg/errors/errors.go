package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSymbol        = errors.New("invalid symbol")
	ErrSequenceTooShort     = errors.New("sequence shorter than k-mer length")
	ErrOversizeKmer         = errors.New("k-mer length exceeds alphabet maximum")
	ErrMalformedRecord      = errors.New("malformed hit record")
	ErrIncompatibleAlphabet = errors.New("incompatible sequence alphabets")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrTimeout              = errors.New("operation timed out")
)

// Exit codes used by the command-line tools.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitInput   = 3
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// SymbolError reports a character outside the active alphabet. Offset is the
// 0-based index into the scanned text.
type SymbolError struct {
	Symbol byte
	Offset int
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s %q at offset %d", ErrInvalidSymbol.Error(), e.Symbol, e.Offset)
}

func (e *SymbolError) Unwrap() error {
	return ErrInvalidSymbol
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrOversizeKmer),
		errors.Is(err, ErrIncompatibleAlphabet):
		return ExitUsage
	case errors.Is(err, ErrMalformedRecord),
		errors.Is(err, ErrInvalidSymbol),
		errors.Is(err, ErrSequenceTooShort):
		return ExitInput
	default:
		return ExitFailure
	}
}
