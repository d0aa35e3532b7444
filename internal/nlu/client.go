package nlu

import "context"

// ChatClient turns a user prompt into the raw JSON text of a backtest
// configuration. Implementations call an LLM provider; the service layer owns
// parsing and validation of the returned text.
type ChatClient interface {
	Complete(ctx context.Context, userPrompt string) (string, error)
}

// systemPrompt instructs the model to emit strict configuration JSON.
const systemPrompt = `You are a financial AI agent. Analyze natural language backtesting prompts and translate them into strict JSON.

Rules:
1. Infer missing parameters using defaults (TopN filter, Equal weighting, market_capitalization field)
2. Initial date should be '2023-01-01' if not specified
3. Rule type must always be 'Quarterly'
4. Map 'ADTV' or 'average daily trading volume' to 'adtv_3_month'
5. Respond with only JSON, no explanatory text

JSON shape:
{"calendar_rule": {"rule_type": "Quarterly", "initial_date": "YYYY-MM-DD"},
 "portfolio_creation": {"filter_type": "TopN", "n": <positive int>, "data_field": "<field>"},
 "weighting_scheme": {"weighting_type": "Equal"}}`
