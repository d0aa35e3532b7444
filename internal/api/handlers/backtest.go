package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/nlu"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// BacktestHandler handles backtest API endpoints.
type BacktestHandler struct {
	orchestrator *backtest.Orchestrator
	parser       nlu.Parser
	validate     *validator.Validate
	logger       *logger.Logger
}

// NewBacktestHandler creates a new backtest handler. parser may be nil when
// no NLU collaborator is configured; the prompt endpoint then returns 503.
func NewBacktestHandler(orchestrator *backtest.Orchestrator, parser nlu.Parser, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		orchestrator: orchestrator,
		parser:       parser,
		validate:     validator.New(),
		logger:       log,
	}
}

// BacktestRequest is the structured request body. Absent values fall back to
// the strategy schema defaults.
type BacktestRequest struct {
	CalendarRule      CalendarRuleRequest      `json:"calendar_rule" validate:"required"`
	PortfolioCreation PortfolioCreationRequest `json:"portfolio_creation"`
	WeightingScheme   WeightingSchemeRequest   `json:"weighting_scheme"`
}

type CalendarRuleRequest struct {
	RuleType    string `json:"rule_type" default:"Quarterly" validate:"required"`
	InitialDate string `json:"initial_date" validate:"required,datetime=2006-01-02"`
}

type PortfolioCreationRequest struct {
	FilterType string `json:"filter_type" default:"TopN" validate:"required"`
	N          int    `json:"n" default:"10" validate:"gt=0"`
	DataField  string `json:"data_field" default:"market_capitalization" validate:"required"`
}

type WeightingSchemeRequest struct {
	WeightingType string `json:"weighting_type" default:"Equal" validate:"required"`
}

// ToConfig converts the request into an engine configuration. The engine
// revalidates against its closed tag sets.
func (r *BacktestRequest) ToConfig() (backtest.Config, error) {
	initial, err := backtest.ParseDate(r.CalendarRule.InitialDate)
	if err != nil {
		return backtest.Config{}, backtest.NewConfigurationError("invalid initial_date: %v", err)
	}

	return backtest.Config{
		CalendarRule: backtest.CalendarRule{
			RuleType:    backtest.CalendarRuleType(r.CalendarRule.RuleType),
			InitialDate: initial,
		},
		PortfolioCreation: backtest.PortfolioCreation{
			FilterType: backtest.FilterType(r.PortfolioCreation.FilterType),
			N:          r.PortfolioCreation.N,
			DataField:  backtest.DataField(r.PortfolioCreation.DataField),
		},
		WeightingScheme: backtest.WeightingScheme{
			WeightingType: backtest.WeightingType(r.WeightingScheme.WeightingType),
		},
	}, nil
}

// PromptRequest is the free-text request body.
type PromptRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// BacktestResponse mirrors the engine result for the wire.
type BacktestResponse struct {
	ExecutionTime float64                       `json:"execution_time"`
	Weights       map[string]backtest.Portfolio `json:"weights"`
	Metadata      backtest.Metadata             `json:"metadata"`
	Warnings      []string                      `json:"warnings"`
}

// Run executes a backtest from a structured configuration.
// POST /api/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := defaults.Set(&req); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to apply defaults")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	cfg, err := req.ToConfig()
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	h.execute(w, r, cfg)
}

// RunFromPrompt executes a backtest from a natural-language prompt.
// POST /api/backtest/prompt
func (h *BacktestHandler) RunFromPrompt(w http.ResponseWriter, r *http.Request) {
	if h.parser == nil {
		respondError(w, http.StatusServiceUnavailable, "Prompt parsing is not configured")
		return
	}

	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	cfg, err := h.parser.Parse(r.Context(), req.Prompt)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	h.execute(w, r, *cfg)
}

func (h *BacktestHandler) execute(w http.ResponseWriter, r *http.Request, cfg backtest.Config) {
	result, err := h.orchestrator.Run(r.Context(), cfg)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, BacktestResponse{
		ExecutionTime: result.ExecutionTime,
		Weights:       result.Weights,
		Metadata:      result.Metadata,
		Warnings:      result.Warnings,
	})
}

// respondEngineError maps the engine error taxonomy onto HTTP statuses.
func (h *BacktestHandler) respondEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch backtest.KindOf(err) {
	case backtest.KindConfiguration:
		status = http.StatusBadRequest
	case backtest.KindDataUnavailable:
		status = http.StatusNotFound
	case backtest.KindPromptParse:
		status = http.StatusUnprocessableEntity
	case backtest.KindTimeout:
		status = http.StatusGatewayTimeout
	}

	h.logger.WithError(err).WithField("status", status).Warn("Backtest request failed")
	respondError(w, status, err.Error())
}
