package runtime

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes host errors. Codes are stable strings recorded in
// the journal and shown by the CLI.
type ErrorCode string

const (
	CodeMissingSignature        ErrorCode = "MISSING_SIGNATURE"
	CodeInvalidSignature        ErrorCode = "INVALID_SIGNATURE"
	CodeInsufficientFundsForFee ErrorCode = "INSUFFICIENT_FUNDS_FOR_FEE"
	CodeInsufficientFunds       ErrorCode = "INSUFFICIENT_FUNDS"
	CodeAccountInUse            ErrorCode = "ACCOUNT_IN_USE"
	CodeAccountNotWritable      ErrorCode = "ACCOUNT_NOT_WRITABLE"
	CodeUnauthorizedSigner      ErrorCode = "UNAUTHORIZED_SIGNER"
	CodeInvalidTransferSource   ErrorCode = "INVALID_TRANSFER_SOURCE"
	CodeNotAccountOwner         ErrorCode = "NOT_ACCOUNT_OWNER"
	CodeAccountDataSize         ErrorCode = "ACCOUNT_DATA_SIZE"
	CodeUnknownProgram          ErrorCode = "UNKNOWN_PROGRAM"
	CodeDuplicateTransaction    ErrorCode = "DUPLICATE_TRANSACTION"
	CodeEmptyTransaction        ErrorCode = "EMPTY_TRANSACTION"
	CodeLamportsOverflow        ErrorCode = "LAMPORTS_OVERFLOW"

	// CodeInternal is reported for errors that carry no code, such as
	// database failures.
	CodeInternal ErrorCode = "INTERNAL"
)

// Error is a host error with a stable code.
//
// Two Errors match under errors.Is when their codes are equal, so the
// package-level sentinels can be compared against errors that carry a more
// specific message.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the code as a plain string.
func (e *Error) ErrorCode() string {
	return string(e.Code)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrMissingSignature        = &Error{Code: CodeMissingSignature}
	ErrInvalidSignature        = &Error{Code: CodeInvalidSignature}
	ErrInsufficientFundsForFee = &Error{Code: CodeInsufficientFundsForFee}
	ErrInsufficientFunds       = &Error{Code: CodeInsufficientFunds}
	ErrAccountInUse            = &Error{Code: CodeAccountInUse}
	ErrAccountNotWritable      = &Error{Code: CodeAccountNotWritable}
	ErrUnauthorizedSigner      = &Error{Code: CodeUnauthorizedSigner}
	ErrInvalidTransferSource   = &Error{Code: CodeInvalidTransferSource}
	ErrNotAccountOwner         = &Error{Code: CodeNotAccountOwner}
	ErrAccountDataSize         = &Error{Code: CodeAccountDataSize}
	ErrUnknownProgram          = &Error{Code: CodeUnknownProgram}
	ErrDuplicateTransaction    = &Error{Code: CodeDuplicateTransaction}
	ErrEmptyTransaction        = &Error{Code: CodeEmptyTransaction}
	ErrLamportsOverflow        = &Error{Code: CodeLamportsOverflow}
)

// newError creates an *Error with code and a formatted message.
func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// coded is implemented by every error type that carries a stable code,
// including program-defined errors.
type coded interface {
	ErrorCode() string
}

// CodeOf returns the code of the first coded error in err's chain.
// Returns "" for nil and CodeInternal for errors without a code.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var c coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return string(CodeInternal)
}
