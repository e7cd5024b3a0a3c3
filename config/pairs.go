package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PxPatel/clob-exchange/internal/types"
)

// pairsFile is the layout of PAIRS_FILE:
//
//	pairs:
//	  - id: AVAX/USDC
//	    base_symbol: AVAX
//	    quote_symbol: USDC
//	    ...
type pairsFile struct {
	Pairs []*types.Pair `yaml:"pairs"`
}

// LoadPairs reads pair definitions from a YAML file. An empty path lists
// nothing.
func LoadPairs(path string) ([]*types.Pair, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs file: %w", err)
	}
	var f pairsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse pairs file %s: %w", path, err)
	}
	return f.Pairs, nil
}
