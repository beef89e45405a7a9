package exit

import "sort"

// Mode selects which family of exit rules a chain installs.
type Mode string

const (
	ModePoints  Mode = "POINTS"
	ModePremium Mode = "PREMIUM"
)

// ChainConfig carries the flags that gate optional strategies regardless
// of mode, per spec.md §4.4 "Ordering is stable under equal priorities".
type ChainConfig struct {
	Mode                  Mode
	ForcedExitEnabled     bool
	TrailingStopEnabled   bool
	TrailingActivationPts float64
	TrailingDistancePts   float64
}

// Chain is the sorted, priority-ordered sequence of exit strategies
// evaluated on every tick. The first non-None decision wins and the
// chain short-circuits.
type Chain struct {
	strategies []Strategy
}

// Build installs the strategies for cfg.Mode: POINTS installs
// {TimeBasedForcedExit?, PointsBasedTarget, TrailingStopLoss?,
// PointsBasedStopLoss}; PREMIUM installs {TimeBasedForcedExit?,
// PremiumBasedExit}. The resulting chain is sorted ascending by priority.
func Build(cfg ChainConfig) *Chain {
	var strategies []Strategy

	if cfg.ForcedExitEnabled {
		strategies = append(strategies, ForcedExitStrategy{})
	}

	switch cfg.Mode {
	case ModePremium:
		strategies = append(strategies, PremiumBasedExit{})
	default: // ModePoints
		strategies = append(strategies, PointsBasedTarget{})
		if cfg.TrailingStopEnabled {
			strategies = append(strategies, NewTrailingStopLoss(cfg.TrailingActivationPts, cfg.TrailingDistancePts))
		}
		strategies = append(strategies, PointsBasedStopLoss{})
	}

	sort.SliceStable(strategies, func(i, j int) bool {
		return strategies[i].Priority() < strategies[j].Priority()
	})

	return &Chain{strategies: strategies}
}

// Evaluate walks the chain in priority order and returns the first
// non-None decision, or None if every strategy passed.
func (c *Chain) Evaluate(ctx *Context) Decision {
	for _, s := range c.strategies {
		if d := s.Evaluate(ctx); d.Kind != None {
			return d
		}
	}
	return noneDecision
}

// Strategies exposes the ordered chain for diagnostics/tests.
func (c *Chain) Strategies() []Strategy {
	return c.strategies
}
