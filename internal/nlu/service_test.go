package nlu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// fakeChatClient returns a canned completion or error.
type fakeChatClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeChatClient) Complete(ctx context.Context, userPrompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

const validConfigJSON = `{
	"calendar_rule": {"rule_type": "Quarterly", "initial_date": "2023-01-01"},
	"portfolio_creation": {"filter_type": "TopN", "n": 10, "data_field": "market_capitalization"},
	"weighting_scheme": {"weighting_type": "Equal"}
}`

func TestServiceParse(t *testing.T) {
	svc := NewService(&fakeChatClient{response: validConfigJSON}, logger.NewNop())

	cfg, err := svc.Parse(context.Background(), "top 10 by market cap, quarterly")
	require.NoError(t, err)

	assert.Equal(t, backtest.RuleQuarterly, cfg.CalendarRule.RuleType)
	assert.Equal(t, backtest.NewDate(2023, time.January, 1), cfg.CalendarRule.InitialDate)
	assert.Equal(t, 10, cfg.PortfolioCreation.N)
	assert.Equal(t, backtest.FieldMarketCapitalization, cfg.PortfolioCreation.DataField)
	assert.Equal(t, backtest.WeightingEqual, cfg.WeightingScheme.WeightingType)
}

func TestServiceParse_CodeFencedResponse(t *testing.T) {
	svc := NewService(&fakeChatClient{
		response: "```json\n" + validConfigJSON + "\n```",
	}, logger.NewNop())

	cfg, err := svc.Parse(context.Background(), "top 10 by market cap")
	require.NoError(t, err)
	assert.Equal(t, backtest.FilterTopN, cfg.PortfolioCreation.FilterType)
}

func TestServiceParse_EmptyPrompt(t *testing.T) {
	client := &fakeChatClient{response: validConfigJSON}
	svc := NewService(client, logger.NewNop())

	for _, prompt := range []string{"", "   ", "\n\t"} {
		_, err := svc.Parse(context.Background(), prompt)
		require.Error(t, err)
		assert.True(t, backtest.IsKind(err, backtest.KindPromptParse))
	}
	assert.Zero(t, client.calls, "empty prompts never reach the model")
}

func TestServiceParse_CompletionError(t *testing.T) {
	svc := NewService(&fakeChatClient{err: errors.New("upstream 500")}, logger.NewNop())

	_, err := svc.Parse(context.Background(), "top 10 by market cap")
	require.Error(t, err)
	assert.True(t, backtest.IsKind(err, backtest.KindPromptParse))
}

func TestServiceParse_InvalidJSON(t *testing.T) {
	svc := NewService(&fakeChatClient{response: "sure, here is your config!"}, logger.NewNop())

	_, err := svc.Parse(context.Background(), "top 10 by market cap")
	require.Error(t, err)
	assert.True(t, backtest.IsKind(err, backtest.KindPromptParse))
}

func TestServiceParse_UnsupportedConfiguration(t *testing.T) {
	svc := NewService(&fakeChatClient{
		response: `{
			"calendar_rule": {"rule_type": "Monthly", "initial_date": "2023-01-01"},
			"portfolio_creation": {"filter_type": "TopN", "n": 10, "data_field": "market_capitalization"},
			"weighting_scheme": {"weighting_type": "Equal"}
		}`,
	}, logger.NewNop())

	_, err := svc.Parse(context.Background(), "rebalance every month")
	require.Error(t, err)

	// Out-of-scope but well-formed requests are prompt-parse failures, not
	// configuration failures.
	assert.True(t, backtest.IsKind(err, backtest.KindPromptParse))
	assert.False(t, backtest.IsKind(err, backtest.KindConfiguration))
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFences(tt.in))
	}
}
