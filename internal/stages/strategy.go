package stages

import (
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/foundation/normalization"
)

// Strategy selects the transformation implementation of a stage, fixed at construction.
type Strategy string

const (
	// StrategyPreferred uses the full-featured library implementation.
	StrategyPreferred Strategy = "preferred"
	// StrategyFallback uses the dependency-light pattern based implementation.
	StrategyFallback Strategy = "fallback"
)

var strategies = normalization.NewNormalizer(map[string]Strategy{
	"":                         StrategyPreferred,
	string(StrategyPreferred): StrategyPreferred,
	string(StrategyFallback):  StrategyFallback,
})

// ParseStrategy normalizes a configured strategy; empty selects the preferred one.
func ParseStrategy(s string) (Strategy, error) {
	if st, ok := strategies.Normalize(s); ok {
		return st, nil
	}
	return "", foundationerrors.ConfigError("unknown stage strategy").
		WithContext("strategy", s).
		WithContext("valid", strategies.Valid()).
		Build()
}
