package errs

import "fmt"

// EmptyReplyError means the generation backend returned empty or
// whitespace-only text. An empty assistant turn is never persisted.
type EmptyReplyError struct {
	message string
}

func (v *EmptyReplyError) Error() string {
	return v.message
}

func EmptyReplyErrorf(format string, args ...any) *EmptyReplyError {
	return &EmptyReplyError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &EmptyReplyError{}
