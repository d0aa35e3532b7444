package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quantfolio/quantfolio/pkg/httputil"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// OpenLLMClient calls an OpenAI-compatible chat-completions endpoint
// (OpenLLM, vLLM, OpenAI itself).
type OpenLLMClient struct {
	http    *httputil.Client
	logger  *logger.Logger
	apiKey  string
	baseURL string
	model   string
}

// NewOpenLLMClient creates an OpenAI-compatible chat client. baseURL must be
// the full chat-completions URL.
func NewOpenLLMClient(http *httputil.Client, log *logger.Logger, apiKey, baseURL, model string) *OpenLLMClient {
	return &OpenLLMClient{
		http:    http,
		logger:  log,
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat chatFormat    `json:"response_format"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the model's text reply.
func (c *OpenLLMClient) Complete(ctx context.Context, userPrompt string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: chatFormat{Type: "json_object"},
		Temperature:    0.0,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}

	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty chat response")
	}

	return decoded.Choices[0].Message.Content, nil
}

var _ ChatClient = (*OpenLLMClient)(nil)
