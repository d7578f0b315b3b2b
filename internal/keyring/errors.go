package keyring

import (
	"errors"
	"fmt"
)

// Keyring errors.
var (
	ErrDuplicateAccount = errors.New("account with this recovery phrase already exists")
	ErrAccountNotFound  = errors.New("account not found")
	ErrLastAccount      = errors.New("cannot delete the last account")
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrPersistence      = errors.New("persistence failed")
	ErrCorruptRegistry  = errors.New("corrupt registry")
	ErrClosed           = errors.New("keyring is closed")
)

// PersistenceError reports a failed load or save. After a failed save the
// in-memory state still holds the mutation; Store.Flush retries the save.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist registry (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersistence) match any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
