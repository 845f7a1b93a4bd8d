package interfaces

import (
	"context"

	"github.com/kodechat/chatbot/internal/domain/entities"
)

// Generator is the language-generation backend. Generate receives the
// full prompt history in chronological order and returns the reply
// text. Failures are classified as *errs.TransientError (retryable) or
// *errs.FatalError (not retryable).
type Generator interface {
	Generate(ctx context.Context, messages []*entities.Message) (string, error)
	ModelName() string
}
