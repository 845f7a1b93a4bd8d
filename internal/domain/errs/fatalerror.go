package errs

import "fmt"

// FatalError is a backend failure that retrying cannot fix, such as
// invalid credentials or a malformed request.
type FatalError struct {
	message string
}

func (v *FatalError) Error() string {
	return v.message
}

func FatalErrorf(format string, args ...any) *FatalError {
	return &FatalError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &FatalError{}
