package strategyfile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantfolio/quantfolio/internal/backtest"
)

// Load reads a YAML strategy document into a validated backtest config and
// returns the raw bytes alongside it. Unknown fields fail immediately so a
// typo in a strategy file can never silently change a run.
func Load(path string) (*backtest.Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var cfg backtest.Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, data, fmt.Errorf("parse strategy file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, data, err
	}

	return &cfg, data, nil
}

// Hash generates a deterministic SHA-256 hash of the config from its
// canonical JSON form. Struct field order keeps the hash reproducible.
func Hash(cfg *backtest.Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
