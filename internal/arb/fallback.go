package arb

import "github.com/cnukaus/Polymarket-arbitrage/internal/events"

// Heuristic defaults used when a venue reports no liquidity for a side.
// These are deliberately conservative; live depth data always supersedes
// them.
const (
	fallbackSlippageUnknown = 0.005
	defaultPositionSize     = 100
)

// FallbackSlippage is the explicit fallback policy for per-leg slippage
// when no live order book is available: a liquidity-bucketed band, with a
// fixed default when liquidity itself is unknown. Kept as its own function
// so callers and tests can tell the heuristic path from real depth data.
func FallbackSlippage(side *events.ContractSide) float64 {
	if side == nil || side.Liquidity == nil {
		return fallbackSlippageUnknown
	}
	switch liq := *side.Liquidity; {
	case liq > 10000:
		return 0.001
	case liq > 1000:
		return 0.003
	default:
		return 0.01
	}
}

// fallbackPositionSize caps a leg at a fraction of its reported liquidity,
// bounded by the hard cap, with a conservative default when liquidity is
// unknown.
func fallbackPositionSize(side *events.ContractSide, fraction, hardCap float64) float64 {
	if side == nil || side.Liquidity == nil {
		return defaultPositionSize
	}
	size := *side.Liquidity * fraction
	if size > hardCap {
		return hardCap
	}
	return size
}
