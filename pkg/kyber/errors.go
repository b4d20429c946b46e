package kyber

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter indicates a buffer of the wrong size, a malformed
	// public key, or a nil or destroyed handle.
	ErrInvalidParameter = errors.New("kyber: invalid parameter")

	// ErrInvalidKeyLength indicates a derivation seed or message of the wrong
	// size, or a key that belongs to a different parameter set.
	ErrInvalidKeyLength = errors.New("kyber: invalid key length")

	// ErrOutOfResources indicates the entropy source could not deliver the
	// requested bytes.
	ErrOutOfResources = errors.New("kyber: out of resources")

	// ErrKeyDestroyed indicates use of a PrivateKey after Destroy.
	ErrKeyDestroyed = fmt.Errorf("%w: key destroyed", ErrInvalidParameter)
)

// Error wraps an underlying error with context
type Error struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *Error) Error() string {
	return fmt.Sprintf("kyber.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errorf creates a new Error
func errorf(op string, format string, args ...any) error {
	return &Error{
		Op:  op,
		Err: fmt.Errorf(format, args...),
	}
}
