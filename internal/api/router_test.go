package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantfolio/internal/api/handlers"
	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/marketdata"
	"github.com/quantfolio/quantfolio/internal/nlu"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// fakeParser resolves every prompt to a fixed config or error.
type fakeParser struct {
	cfg *backtest.Config
	err error
}

func (f *fakeParser) Parse(ctx context.Context, prompt string) (*backtest.Config, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

func seededProvider(t *testing.T) *marketdata.MemoryProvider {
	t.Helper()
	p := marketdata.NewMemoryProvider()
	instruments := []string{"AAA", "BBB", "CCC", "DDD", "EEE"}
	for i, id := range instruments {
		p.Add(backtest.FieldMarketCapitalization, id,
			time.Date(2023, time.December, 29, 0, 0, 0, 0, time.UTC), float64(1000+i*100))
		p.Add(backtest.FieldMarketCapitalization, id,
			time.Date(2024, time.March, 28, 0, 0, 0, 0, time.UTC), float64(1100+i*100))
	}
	return p
}

func newTestRouter(t *testing.T, parser *fakeParser) http.Handler {
	t.Helper()
	log := logger.NewNop()
	provider := seededProvider(t)

	orchestrator := backtest.NewOrchestrator(provider, log).
		WithClock(func() time.Time {
			return time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
		})

	var p nlu.Parser
	if parser != nil {
		p = parser
	}

	backtestHandler := handlers.NewBacktestHandler(orchestrator, p, log)
	dataHandler := handlers.NewDataHandler(provider, log)
	return NewRouter(backtestHandler, dataHandler, log)
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, newTestRouter(t, nil), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBacktestEndpoint(t *testing.T) {
	rec := doRequest(t, newTestRouter(t, nil), http.MethodPost, "/api/backtest", `{
		"calendar_rule": {"rule_type": "Quarterly", "initial_date": "2024-01-01"},
		"portfolio_creation": {"filter_type": "TopN", "n": 3, "data_field": "market_capitalization"},
		"weighting_scheme": {"weighting_type": "Equal"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.BacktestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	portfolio, ok := resp.Weights["2024-03-31"]
	require.True(t, ok, "expected weights keyed by the rebalance date")
	require.Len(t, portfolio, 3)
	for _, w := range portfolio {
		assert.InDelta(t, 1.0/3.0, w, 1e-9)
	}
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, 1, resp.Metadata.TotalRebalanceDates)
}

func TestBacktestEndpoint_Defaults(t *testing.T) {
	// Only the initial date given: rule, filter, field and weighting all
	// fall back to their schema defaults.
	rec := doRequest(t, newTestRouter(t, nil), http.MethodPost, "/api/backtest", `{
		"calendar_rule": {"initial_date": "2024-01-01"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.BacktestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Quarterly", resp.Metadata.Strategy.Calendar)
	assert.Equal(t, "TopN", resp.Metadata.Strategy.Filter)
	assert.Equal(t, "Equal", resp.Metadata.Strategy.Weighting)

	// Five seeded instruments against the default n of 10.
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "only 5 of 10")
}

func TestBacktestEndpoint_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "malformed JSON",
			body:       `{"calendar_rule":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing initial_date",
			body:       `{"calendar_rule": {"rule_type": "Quarterly"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad date format",
			body:       `{"calendar_rule": {"initial_date": "01/01/2024"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unsupported rule",
			body: `{
				"calendar_rule": {"rule_type": "Monthly", "initial_date": "2024-01-01"}
			}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "negative n",
			body: `{
				"calendar_rule": {"initial_date": "2024-01-01"},
				"portfolio_creation": {"n": -5}
			}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "initial date before data range",
			body: `{
				"calendar_rule": {"initial_date": "2020-01-01"}
			}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	router := newTestRouter(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/backtest", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPromptEndpoint(t *testing.T) {
	parser := &fakeParser{cfg: &backtest.Config{
		CalendarRule: backtest.CalendarRule{
			RuleType:    backtest.RuleQuarterly,
			InitialDate: backtest.NewDate(2024, time.January, 1),
		},
		PortfolioCreation: backtest.PortfolioCreation{
			FilterType: backtest.FilterTopN,
			N:          2,
			DataField:  backtest.FieldMarketCapitalization,
		},
		WeightingScheme: backtest.WeightingScheme{
			WeightingType: backtest.WeightingEqual,
		},
	}}

	rec := doRequest(t, newTestRouter(t, parser), http.MethodPost, "/api/backtest/prompt",
		`{"prompt": "top 2 by market cap, quarterly from 2024"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.BacktestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Weights["2024-03-31"], 2)
}

func TestPromptEndpoint_ParseFailure(t *testing.T) {
	parser := &fakeParser{err: backtest.NewPromptParseError("cannot map prompt")}

	rec := doRequest(t, newTestRouter(t, parser), http.MethodPost, "/api/backtest/prompt",
		`{"prompt": "weekly momentum"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPromptEndpoint_NotConfigured(t *testing.T) {
	rec := doRequest(t, newTestRouter(t, nil), http.MethodPost, "/api/backtest/prompt",
		`{"prompt": "top 10 by market cap"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDataFieldsEndpoint(t *testing.T) {
	rec := doRequest(t, newTestRouter(t, nil), http.MethodGet, "/api/data/fields", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "market_capitalization")
	assert.Contains(t, body.Fields, "adtv_3_month")
}

func TestDataRangeEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/data/range/market_capitalization", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2023-12-29", body["min_date"])
	assert.Equal(t, "2024-03-28", body["max_date"])

	rec = doRequest(t, router, http.MethodGet, "/api/data/range/volume", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "field with no observations")
}
