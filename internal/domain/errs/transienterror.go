package errs

import "fmt"

// TransientError is a retryable backend failure such as a network
// hiccup or a rate limit.
type TransientError struct {
	message string
}

func (v *TransientError) Error() string {
	return v.message
}

func TransientErrorf(format string, args ...any) *TransientError {
	return &TransientError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &TransientError{}
