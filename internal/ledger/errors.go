package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound is returned when a referenced bank account doesn't exist.
	ErrAccountNotFound = errors.New("bank account not found")

	// ErrDebtNotFound is returned when a referenced debt doesn't exist.
	ErrDebtNotFound = errors.New("debt not found")

	// ErrDuplicateAccountNumber is returned when creating an account whose
	// accountNumber is already taken.
	ErrDuplicateAccountNumber = errors.New("account number already exists")
)

// ValidationError reports missing or malformed request input. It is always
// produced before any store interaction begins.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrDebtNotFound)
}
