package backtest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 31), d.Time)

	_, err = ParseDate("31/03/2024")
	assert.Error(t, err)

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		InitialDate Date `json:"initial_date"`
	}

	b, err := json.Marshal(payload{InitialDate: NewDate(2023, time.January, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"initial_date":"2023-01-01"}`, string(b))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"initial_date":"2024-06-30"}`), &decoded))
	assert.Equal(t, date(2024, 6, 30), decoded.InitialDate.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"initial_date":null}`), &decoded))
	assert.True(t, decoded.InitialDate.IsZero())

	err = json.Unmarshal([]byte(`{"initial_date":"not-a-date"}`), &decoded)
	assert.Error(t, err)
}

func TestDateYAML(t *testing.T) {
	type payload struct {
		InitialDate Date `yaml:"initial_date"`
	}

	var decoded payload
	require.NoError(t, yaml.Unmarshal([]byte("initial_date: 2023-01-01\n"), &decoded))
	assert.Equal(t, date(2023, 1, 1), decoded.InitialDate.Time)

	out, err := yaml.Marshal(payload{InitialDate: NewDate(2024, time.September, 30)})
	require.NoError(t, err)
	assert.Equal(t, "initial_date: \"2024-09-30\"\n", string(out))

	err = yaml.Unmarshal([]byte("initial_date: [2023]\n"), &decoded)
	assert.Error(t, err)
}
