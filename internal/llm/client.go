package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient calls an OpenAI-compatible chat-completions endpoint. It holds
// no per-conversation state; the caller supplies the full message sequence
// on every invocation.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewHTTPClient creates a gateway for the given provider endpoint. timeout
// bounds each invocation; a zero value falls back to 60s.
func NewHTTPClient(baseURL, apiKey, model string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateCompletion sends the role-tagged sequence and returns the single
// completion text. Failures are classified as *InvocationError; no retry is
// performed here.
func (c *HTTPClient) CreateCompletion(ctx context.Context, messages []ChatMessage) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", &InvocationError{Kind: KindMalformed, Err: fmt.Errorf("encoding request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &InvocationError{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &InvocationError{Kind: KindTimeout, Err: err}
		}
		return "", &InvocationError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &InvocationError{Kind: KindTimeout, Err: err}
		}
		return "", &InvocationError{Kind: KindTransport, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &InvocationError{
			Kind: KindProvider,
			Err:  fmt.Errorf("provider returned status %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &InvocationError{Kind: KindMalformed, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &InvocationError{Kind: KindProvider, Err: fmt.Errorf("provider error: %s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &InvocationError{Kind: KindMalformed, Err: errors.New("response contained no choices")}
	}

	// The content field may legally be a non-string payload (tool calls,
	// multi-part content). This gateway only understands plain text, and a
	// silent default would mask upstream problems, so anything else is a
	// malformed-response failure.
	var text string
	if err := json.Unmarshal(parsed.Choices[0].Message.Content, &text); err != nil {
		return "", &InvocationError{Kind: KindMalformed, Err: errors.New("completion content is not text")}
	}
	if text == "" {
		return "", &InvocationError{Kind: KindMalformed, Err: errors.New("completion content is empty")}
	}

	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
