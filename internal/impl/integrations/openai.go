package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kodechat/chatbot/internal/domain/entities"
	"github.com/kodechat/chatbot/internal/domain/errs"
	"github.com/kodechat/chatbot/internal/domain/interfaces"
)

// OpenAIIntegration calls an OpenAI-compatible chat completions API.
// It performs a single attempt per call and classifies failures as
// transient or fatal; retry policy lives with the caller.
type OpenAIIntegration struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOpenAIIntegration(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*OpenAIIntegration, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey cannot be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	return &OpenAIIntegration{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// ModelName returns the name of the model being used
func (m *OpenAIIntegration) ModelName() string {
	return m.model
}

func convertToAPIMessages(messages []*entities.Message) []map[string]string {
	apiMessages := make([]map[string]string, 0, len(messages))
	for _, msg := range messages {
		apiMessages = append(apiMessages, map[string]string{
			"role":    msg.Role,
			"content": msg.Content,
		})
	}
	return apiMessages
}

func (m *OpenAIIntegration) Generate(ctx context.Context, messages []*entities.Message) (string, error) {
	reqBody := map[string]any{
		"model":    m.model,
		"messages": convertToAPIMessages(messages),
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", errs.FatalErrorf("error marshaling request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.baseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", errs.FatalErrorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", errs.CanceledErrorf("generation request canceled: %v", ctx.Err())
		}
		// Network failures and client-side timeouts may clear up.
		return "", errs.TransientErrorf("error making request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		body, _ := io.ReadAll(resp.Body)
		m.logger.Warn("Retryable status from generation backend",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return "", errs.TransientErrorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		m.logger.Error("Unexpected status code",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return "", errs.FatalErrorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var responseBody struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return "", errs.TransientErrorf("error decoding response: %v", err)
	}
	if len(responseBody.Choices) == 0 {
		return "", errs.FatalErrorf("no choices in response")
	}

	return responseBody.Choices[0].Message.Content, nil
}

var _ interfaces.Generator = (*OpenAIIntegration)(nil)
