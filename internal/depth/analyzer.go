package depth

import (
	"context"
	"fmt"
	"sort"

	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
	"github.com/cnukaus/Polymarket-arbitrage/internal/logging"
)

// Analyzer fetches raw levels from a source and turns them into depth
// aggregates. All the numeric work lives in pure functions so it can be
// exercised without a live source.
type Analyzer struct {
	source LevelSource
	cfg    config.DepthConfig
}

// NewAnalyzer builds a depth analyzer.
func NewAnalyzer(source LevelSource, cfg config.DepthConfig) (*Analyzer, error) {
	if source == nil {
		return nil, fmt.Errorf("depth: level source is required")
	}
	if cfg.MaxPriceLevels <= 0 {
		cfg.MaxPriceLevels = 20
	}
	if len(cfg.DepthPercentages) == 0 {
		cfg.DepthPercentages = []float64{0.01, 0.05, 0.10}
	}
	return &Analyzer{source: source, cfg: cfg}, nil
}

// GetMarketDepth fetches and aggregates the book for one market. A fetch
// failure is returned to the caller for retry/backoff; an empty book is a
// neutral result, not an error.
func (a *Analyzer) GetMarketDepth(ctx context.Context, marketID string) (OrderbookDepth, error) {
	raw, err := a.source.GetPriceLevels(ctx, marketID)
	if err != nil {
		return OrderbookDepth{}, fmt.Errorf("depth: fetch levels for %s: %w", marketID, err)
	}
	if len(raw) == 0 {
		logging.Debugf("[depth] no levels for market %s", marketID)
	}
	return BuildDepth(marketID, raw, a.cfg), nil
}

// BuildDepth is the pure transform from raw levels to an OrderbookDepth.
// Levels under the dust floor are discarded; bids sort descending and asks
// ascending so the best price is always first; cumulative sizes are
// produced on fresh slices, the input is never mutated.
func BuildDepth(marketID string, raw []RawLevel, cfg config.DepthConfig) OrderbookDepth {
	depth := OrderbookDepth{MarketID: marketID}

	var bids, asks []PriceLevel
	for _, lvl := range raw {
		if lvl.Size < cfg.MinLevelSize || lvl.Price <= 0 {
			continue
		}
		entry := PriceLevel{Price: lvl.Price, Size: lvl.Size}
		switch lvl.Side {
		case SideBuy:
			bids = append(bids, entry)
		case SideSell:
			asks = append(asks, entry)
		}
	}

	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })

	if cfg.MaxPriceLevels > 0 {
		if len(bids) > cfg.MaxPriceLevels {
			bids = bids[:cfg.MaxPriceLevels]
		}
		if len(asks) > cfg.MaxPriceLevels {
			asks = asks[:cfg.MaxPriceLevels]
		}
	}

	depth.BidLevels = withCumulative(bids)
	depth.AskLevels = withCumulative(asks)

	for _, lvl := range depth.BidLevels {
		depth.TotalBidDepth += lvl.Size
	}
	for _, lvl := range depth.AskLevels {
		depth.TotalAskDepth += lvl.Size
	}

	if len(depth.BidLevels) > 0 {
		depth.BestBid = fptr(depth.BidLevels[0].Price)
	}
	if len(depth.AskLevels) > 0 {
		depth.BestAsk = fptr(depth.AskLevels[0].Price)
	}

	if depth.BestBid != nil && depth.BestAsk != nil {
		mid := (*depth.BestBid + *depth.BestAsk) / 2
		spread := *depth.BestAsk - *depth.BestBid
		depth.MidPrice = fptr(mid)
		depth.Spread = fptr(spread)
		if mid > 0 {
			depth.SpreadPct = fptr(spread / mid)
		}
	}

	if total := depth.TotalBidDepth + depth.TotalAskDepth; total > 0 {
		depth.DepthImbalance = fptr((depth.TotalBidDepth - depth.TotalAskDepth) / total)
	}

	if depth.MidPrice != nil {
		depth.DepthWithinPct = make(map[float64]float64, len(cfg.DepthPercentages))
		for _, pct := range cfg.DepthPercentages {
			depth.DepthWithinPct[pct] = depthWithin(depth, pct)
		}
	}

	return depth
}

// withCumulative returns a fresh slice with running totals; the input is
// left untouched.
func withCumulative(levels []PriceLevel) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	cumulative := 0.0
	for i, lvl := range levels {
		cumulative += lvl.Size
		out[i] = PriceLevel{Price: lvl.Price, Size: lvl.Size, CumulativeSize: cumulative}
	}
	return out
}

// depthWithin sums level sizes whose price sits within mid*pct of mid, on
// the correct side of the book.
func depthWithin(depth OrderbookDepth, pct float64) float64 {
	if depth.MidPrice == nil {
		return 0
	}
	mid := *depth.MidPrice
	band := mid * pct

	total := 0.0
	for _, lvl := range depth.BidLevels {
		if mid-lvl.Price <= band {
			total += lvl.Size
		}
	}
	for _, lvl := range depth.AskLevels {
		if lvl.Price-mid <= band {
			total += lvl.Size
		}
	}
	return total
}
