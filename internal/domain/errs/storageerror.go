package errs

import "fmt"

// StorageError means the persistence layer is unreachable or timed out.
// The caller must not assume any write occurred.
type StorageError struct {
	message string
}

func (v *StorageError) Error() string {
	return v.message
}

func StorageErrorf(format string, args ...any) *StorageError {
	return &StorageError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &StorageError{}
