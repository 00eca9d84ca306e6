package depth

import "context"

// Side is the order-book side a raw level or a simulated trade sits on.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// RawLevel is one unsorted order-book rung as reported by a venue
// connector.
type RawLevel struct {
	Price float64 `json:"price"`
	Side  Side    `json:"side"`
	Size  float64 `json:"size"`
}

// LevelSource supplies raw price levels for a market. Implemented by venue
// connectors outside this module.
type LevelSource interface {
	GetPriceLevels(ctx context.Context, marketID string) ([]RawLevel, error)
}

// PriceLevel is one cleaned order-book rung. CumulativeSize is the running
// total from the best price on its side.
type PriceLevel struct {
	Price          float64 `json:"price"`
	Size           float64 `json:"size"`
	CumulativeSize float64 `json:"cumulative_size"`
}

// OrderbookDepth is the aggregate depth picture for one market. It is
// rebuilt wholesale on every fetch, never mutated in place. Derived
// metrics that cannot be computed (empty side, no mid) are nil rather
// than zero.
type OrderbookDepth struct {
	MarketID string `json:"market_id"`

	BestBid    *float64 `json:"best_bid,omitempty"`
	BestAsk    *float64 `json:"best_ask,omitempty"`
	Spread     *float64 `json:"spread,omitempty"`
	SpreadPct  *float64 `json:"spread_pct,omitempty"`
	MidPrice   *float64 `json:"mid_price,omitempty"`

	BidLevels []PriceLevel `json:"bid_levels"` // best (highest) price first
	AskLevels []PriceLevel `json:"ask_levels"` // best (lowest) price first

	TotalBidDepth  float64  `json:"total_bid_depth"`
	TotalAskDepth  float64  `json:"total_ask_depth"`
	DepthImbalance *float64 `json:"depth_imbalance,omitempty"` // (bids-asks)/(bids+asks)

	// DepthWithinPct maps a percentage distance from mid (e.g. 0.05) to
	// the total level size within that band on both sides.
	DepthWithinPct map[float64]float64 `json:"depth_within_pct,omitempty"`
}

// Fill is one (price, size) slice actually consumed by a simulated trade.
type Fill struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// SlippageEstimate is the result of simulating a fill of RequestedSize
// against one side of a book.
type SlippageEstimate struct {
	MarketID      string  `json:"market_id"`
	Side          Side    `json:"side"`
	RequestedSize float64 `json:"requested_size"`

	AverageFillPrice  *float64 `json:"average_fill_price,omitempty"`
	ExpectedFillPrice *float64 `json:"expected_fill_price,omitempty"` // best quote before walking
	SlippageAbsolute  *float64 `json:"slippage_absolute,omitempty"`
	SlippagePct       *float64 `json:"slippage_pct,omitempty"`

	PriceImpact       *float64 `json:"price_impact,omitempty"`       // vs mid, distinct from slippage
	LiquidityConsumed *float64 `json:"liquidity_consumed,omitempty"` // filled / total side depth

	CanExecute        bool    `json:"can_execute"`
	MaxExecutableSize float64 `json:"max_executable_size"`
	DepthExhausted    bool    `json:"depth_exhausted"`

	LevelsConsumed []Fill `json:"levels_consumed,omitempty"`
}

// ArbitrageSlippage pairs the two legs of a cross-venue trade. The buy leg
// is always on the venue with the cheaper mid price.
type ArbitrageSlippage struct {
	BuyLeg  SlippageEstimate `json:"buy_leg"`
	SellLeg SlippageEstimate `json:"sell_leg"`

	BuyMarketID  string `json:"buy_market_id"`
	SellMarketID string `json:"sell_market_id"`
}

// FeasibilityAssessment is the final verdict on a candidate opportunity
// once both legs' realistic fills are known. Constraints lists every
// failed condition, not just the first, so callers can decide whether a
// smaller size would pass.
type FeasibilityAssessment struct {
	Feasible             bool     `json:"feasible"`
	MaxSize              float64  `json:"max_size"`
	TotalSlippage        float64  `json:"total_slippage"`
	NetEdgeAfterSlippage float64  `json:"net_edge_after_slippage"`
	Constraints          []string `json:"constraints,omitempty"`
}

func fptr(v float64) *float64 {
	return &v
}
