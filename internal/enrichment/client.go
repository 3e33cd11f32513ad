package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/suykerbuyk/notemeta/internal/logging"
	"github.com/suykerbuyk/notemeta/internal/provider"
)

// Client sends single-message chat requests to a resolved provider endpoint.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// NewClient returns a Client. A nil httpClient means http.DefaultClient and
// a nil logger discards output.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: httpClient, logger: logger}
}

// Send posts message as the only user turn and returns the first choice's
// content. A reply without choices[0].message.content yields "" and no
// error. Transport errors and non-2xx statuses wrap ErrNetwork.
func (c *Client) Send(ctx context.Context, ep provider.Endpoint, message string) (string, error) {
	reqBody := chatRequest{
		Model: ep.ModelName,
		Messages: []chatMessage{
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ep.Token)

	c.logger.Debug("sending chat request",
		zap.String("url", ep.URL),
		zap.String("model", ep.ModelName),
		zap.Int("prompt_bytes", len(message)),
		logging.Secret("token", ep.Token),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNetwork, logging.Redact(err.Error()))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: HTTP status %d: %s", ErrNetwork, resp.StatusCode, apiMessage(respBody))
	}

	return c.replyContent(respBody), nil
}

// replyContent digs choices[0].message.content out of a response body.
func (c *Client) replyContent(body []byte) string {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("unreadable chat response", zap.Error(err))
		return ""
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("chat response has no choices")
		return ""
	}
	return resp.Choices[0].Message.Content
}

// apiMessage returns the provider's error message when the body carries
// one, otherwise the (redacted, shortened) body itself.
func apiMessage(body []byte) string {
	var er errorReply
	if err := json.Unmarshal(body, &er); err == nil && er.Error != nil && er.Error.Message != "" {
		return er.Error.Message
	}
	const max = 200
	s := logging.Redact(string(body))
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
