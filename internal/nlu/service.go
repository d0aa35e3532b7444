package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/pkg/config"
	"github.com/quantfolio/quantfolio/pkg/httputil"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// Parser maps free text to a backtest configuration. The orchestrator never
// knows whether a config came from here or from structured input.
type Parser interface {
	Parse(ctx context.Context, prompt string) (*backtest.Config, error)
}

// Service is the natural-language understanding collaborator: it asks a chat
// client for configuration JSON and validates the result through the same
// closed-tag validation as structured input.
type Service struct {
	client ChatClient
	logger *logger.Logger
}

// NewService creates an NLU service over a chat client.
func NewService(client ChatClient, log *logger.Logger) *Service {
	return &Service{client: client, logger: log}
}

// NewServiceFromConfig builds the chat client selected by configuration.
// An unknown provider is a startup configuration error.
func NewServiceFromConfig(cfg *config.Config, log *logger.Logger) (*Service, error) {
	httpClient := httputil.New(log).WithRateLimit(cfg.LLM.RequestsPerMinute)

	var client ChatClient
	switch cfg.LLM.Provider {
	case "gemini":
		client = NewGeminiClient(httpClient, log, cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
	case "openllm":
		client = NewOpenLLMClient(httpClient, log, cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}

	return NewService(client, log), nil
}

// Parse resolves a natural-language prompt into a validated configuration.
// Any failure along the way, from the API call to tag validation, surfaces as
// a prompt-parse error.
func (s *Service) Parse(ctx context.Context, prompt string) (*backtest.Config, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, backtest.NewPromptParseError("prompt must be a non-empty string")
	}

	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		s.logger.WithError(err).Error("LLM completion failed")
		return nil, &backtest.Error{
			Kind:    backtest.KindPromptParse,
			Message: "failed to obtain configuration from language model",
			Err:     err,
		}
	}

	var cfg backtest.Config
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &cfg); err != nil {
		s.logger.WithError(err).WithField("raw", raw).Error("LLM response was not valid JSON")
		return nil, &backtest.Error{
			Kind:    backtest.KindPromptParse,
			Message: "language model response was not valid configuration JSON",
			Err:     err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &backtest.Error{
			Kind:    backtest.KindPromptParse,
			Message: fmt.Sprintf("prompt maps to an unsupported configuration: %v", err),
			Err:     err,
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"rule":  cfg.CalendarRule.RuleType,
		"n":     cfg.PortfolioCreation.N,
		"field": cfg.PortfolioCreation.DataField,
	}).Info("Parsed prompt into backtest configuration")

	return &cfg, nil
}

// stripCodeFences removes a surrounding markdown code block, which some
// models emit even when asked for bare JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var _ Parser = (*Service)(nil)
