package vault

import (
	"errors"
	"fmt"

	"github.com/roach88/pdavault/internal/runtime"
)

// ErrorCode categorizes vault errors.
type ErrorCode string

const (
	CodeInvalidDerivation  ErrorCode = "INVALID_DERIVATION"
	CodeAlreadyInitialized ErrorCode = "ALREADY_INITIALIZED"
	CodeInsufficientFunds  ErrorCode = "INSUFFICIENT_FUNDS"
	CodeInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	CodeNotInitialized     ErrorCode = "NOT_INITIALIZED"
	CodeMissingSignature   ErrorCode = "MISSING_SIGNATURE"
	CodeInvalidInstruction ErrorCode = "INVALID_INSTRUCTION"
	CodeAccountMismatch    ErrorCode = "ACCOUNT_MISMATCH"
)

// Error is a vault error with a stable code. Errors with equal codes match
// under errors.Is.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the code as a plain string. The runtime journals it.
func (e *Error) ErrorCode() string {
	return string(e.Code)
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	// ErrInvalidDerivation means a supplied address does not match its
	// derivation from the owner and the stored bump. The reference is
	// forged, stale or corrupt.
	ErrInvalidDerivation = &Error{Code: CodeInvalidDerivation}

	// ErrAlreadyInitialized means the owner already has a record.
	ErrAlreadyInitialized = &Error{Code: CodeAlreadyInitialized}

	// ErrInsufficientFunds means the owner cannot cover a deposit, or a
	// withdrawal would take the vault below its reserve floor.
	ErrInsufficientFunds = &Error{Code: CodeInsufficientFunds}

	ErrInvalidAmount      = &Error{Code: CodeInvalidAmount}
	ErrNotInitialized     = &Error{Code: CodeNotInitialized}
	ErrMissingSignature   = &Error{Code: CodeMissingSignature}
	ErrInvalidInstruction = &Error{Code: CodeInvalidInstruction}
	ErrAccountMismatch    = &Error{Code: CodeAccountMismatch}
)

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// fromHost keeps host errors intact but puts the vault's own
// ErrInsufficientFunds in front of the runtime's, so callers and the
// journal see the vault code.
func fromHost(err error) error {
	if errors.Is(err, runtime.ErrInsufficientFunds) {
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	return err
}
