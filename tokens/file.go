package tokens

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadTokensFromFile loads operational tokens from a JSON file. The file
// should contain an array of token strings:
//
//	["tok-deploy-ci", "tok-ops-oncall"]
//
// Empty strings are dropped.
func LoadTokensFromFile(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse tokens file: %w", err)
	}

	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}
