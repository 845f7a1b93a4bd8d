package errs

import "fmt"

// GenerationError means the backend could not produce a usable reply
// after retries were exhausted. It carries the conversation id so the
// client can retry the same logical turn; the user's message has
// already been persisted by the time this error is returned.
type GenerationError struct {
	ConversationID string
	message        string
}

func (v *GenerationError) Error() string {
	return v.message
}

func GenerationErrorf(conversationID, format string, args ...any) *GenerationError {
	return &GenerationError{
		ConversationID: conversationID,
		message:        fmt.Sprintf(format, args...),
	}
}

var _ error = &GenerationError{}
