package config

import (
	"fmt"
	"time"

	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
)

// Config is the full pipeline configuration. It is built once at startup
// and handed to components at construction; nothing reads ambient state.
type Config struct {
	Matcher  MatcherConfig
	Detector DetectorConfig
	Depth    DepthConfig
	Scout    ScoutConfig

	// VenueFees is the typed per-venue fee schedule. Unknown venue keys
	// are rejected at load time so a missing schedule can never silently
	// turn into zero fees.
	VenueFees map[events.Venue]events.FeeSchedule
}

// MatcherConfig controls cross-venue event matching.
type MatcherConfig struct {
	ConfidenceThreshold float64            // accept pairs at or above this score
	ReviewThreshold     float64            // below this, human review is forced
	MaxDeadlineSkew     time.Duration      // deadline gap that forces review
	Workers             int                // pair-evaluation fan-out
	StrategyWeights     map[string]float64 // strategy name -> weight
}

// DetectorConfig controls fee-aware arbitrage economics.
type DetectorConfig struct {
	ConfidenceFloor      float64 // matches below this are not evaluated
	MinEdgeThreshold     float64 // minimum gross edge to keep
	MaxSlippageTolerance float64 // per-opportunity heuristic slippage cap
	LiquidityFraction    float64 // position cap as fraction of leg liquidity
	PositionCap          float64 // hard cap on position size
}

// DepthConfig controls order-book depth analysis.
type DepthConfig struct {
	MaxPriceLevels   int       // levels considered per side
	MinLevelSize     float64   // dust floor; smaller levels are discarded
	DepthPercentages []float64 // buckets measured from mid, e.g. 1%, 5%, 10%
}

// ScoutConfig controls the discovery loop.
type ScoutConfig struct {
	PollInterval         time.Duration // base cycle interval
	MaxPollInterval      time.Duration // backoff ceiling
	MaxConsecutiveErrors int           // errors before the interval doubles
	AlertThreshold       float64       // net edge required to forward an alert
	FetchTimeout         time.Duration // per-venue fetch deadline
	ProbeSize            float64       // trade size used for feasibility checks
}

// StrategyExactTitle and friends name the matcher's scoring strategies.
// The weight table is keyed by these names.
const (
	StrategyExactTitle         = "exact_title"
	StrategyFuzzyTitle         = "fuzzy_title"
	StrategyEntityOverlap      = "entity_overlap"
	StrategySemanticEmbedding  = "semantic_embedding"
	StrategyResolutionCriteria = "resolution_criteria"
	StrategyTemporalAlignment  = "temporal_alignment"
)

// DefaultStrategyWeights returns the standard weight table.
func DefaultStrategyWeights() map[string]float64 {
	return map[string]float64{
		StrategyExactTitle:         0.30,
		StrategyFuzzyTitle:         0.20,
		StrategyEntityOverlap:      0.20,
		StrategySemanticEmbedding:  0.15,
		StrategyResolutionCriteria: 0.10,
		StrategyTemporalAlignment:  0.05,
	}
}

// DefaultVenueFees returns the known venue fee schedules.
func DefaultVenueFees() map[events.Venue]events.FeeSchedule {
	return map[events.Venue]events.FeeSchedule{
		events.VenuePolymarket: {
			TradingFeeRate: 0.02,  // 2% on winnings, approximated on notional
			WithdrawalFee:  0,
			FixedCost:      0.005, // gas estimate
		},
		events.VenuePredyx: {
			TradingFeeRate: 0.01,
			WithdrawalFee:  0,
			FixedCost:      0.0001, // lightning routing
		},
		events.VenueKalshi: {
			TradingFeeRate: 0.07,
			WithdrawalFee:  0,
			FixedCost:      0,
		},
	}
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		Matcher: MatcherConfig{
			ConfidenceThreshold: 0.75,
			ReviewThreshold:     0.90,
			MaxDeadlineSkew:     24 * time.Hour,
			Workers:             4,
			StrategyWeights:     DefaultStrategyWeights(),
		},
		Detector: DetectorConfig{
			ConfidenceFloor:      0.70,
			MinEdgeThreshold:     0.02,
			MaxSlippageTolerance: 0.01,
			LiquidityFraction:    0.10,
			PositionCap:          10000,
		},
		Depth: DepthConfig{
			MaxPriceLevels:   20,
			MinLevelSize:     10,
			DepthPercentages: []float64{0.01, 0.05, 0.10},
		},
		Scout: ScoutConfig{
			PollInterval:         5 * time.Minute,
			MaxPollInterval:      10 * time.Minute,
			MaxConsecutiveErrors: 3,
			AlertThreshold:       0.03,
			FetchTimeout:         30 * time.Second,
			ProbeSize:            1000,
		},
		VenueFees: DefaultVenueFees(),
	}
}

var knownVenues = map[events.Venue]struct{}{
	events.VenuePolymarket: {},
	events.VenuePredyx:     {},
	events.VenueKalshi:     {},
}

// Validate rejects misconfiguration. This is the only fatal error class in
// the pipeline, so it runs once at construction.
func (c *Config) Validate() error {
	if c.Matcher.ConfidenceThreshold < 0 || c.Matcher.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: matcher confidence threshold %.3f outside [0,1]", c.Matcher.ConfidenceThreshold)
	}
	if c.Matcher.ReviewThreshold < 0 || c.Matcher.ReviewThreshold > 1 {
		return fmt.Errorf("config: matcher review threshold %.3f outside [0,1]", c.Matcher.ReviewThreshold)
	}
	if c.Matcher.Workers <= 0 {
		return fmt.Errorf("config: matcher workers must be positive, got %d", c.Matcher.Workers)
	}
	for name, w := range c.Matcher.StrategyWeights {
		if w < 0 {
			return fmt.Errorf("config: strategy %q has negative weight %.3f", name, w)
		}
	}
	if c.Detector.ConfidenceFloor < 0 || c.Detector.ConfidenceFloor > 1 {
		return fmt.Errorf("config: detector confidence floor %.3f outside [0,1]", c.Detector.ConfidenceFloor)
	}
	if c.Detector.MinEdgeThreshold < 0 {
		return fmt.Errorf("config: min edge threshold must not be negative")
	}
	if c.Detector.MaxSlippageTolerance < 0 {
		return fmt.Errorf("config: max slippage tolerance must not be negative")
	}
	if c.Detector.LiquidityFraction <= 0 || c.Detector.LiquidityFraction > 1 {
		return fmt.Errorf("config: liquidity fraction %.3f outside (0,1]", c.Detector.LiquidityFraction)
	}
	if c.Detector.PositionCap <= 0 {
		return fmt.Errorf("config: position cap must be positive")
	}
	if c.Depth.MaxPriceLevels <= 0 {
		return fmt.Errorf("config: max price levels must be positive")
	}
	if c.Depth.MinLevelSize < 0 {
		return fmt.Errorf("config: min level size must not be negative")
	}
	for _, pct := range c.Depth.DepthPercentages {
		if pct <= 0 || pct >= 1 {
			return fmt.Errorf("config: depth percentage %.3f outside (0,1)", pct)
		}
	}
	if c.Scout.PollInterval <= 0 {
		return fmt.Errorf("config: poll interval must be positive")
	}
	if c.Scout.MaxPollInterval < c.Scout.PollInterval {
		return fmt.Errorf("config: max poll interval below base interval")
	}
	if c.Scout.AlertThreshold < 0 {
		return fmt.Errorf("config: alert threshold must not be negative")
	}
	if c.Scout.ProbeSize <= 0 {
		return fmt.Errorf("config: probe size must be positive")
	}
	if len(c.VenueFees) == 0 {
		return fmt.Errorf("config: no venue fee schedules")
	}
	for venue, fees := range c.VenueFees {
		if _, ok := knownVenues[venue]; !ok {
			return fmt.Errorf("config: unknown venue %q in fee schedule", venue)
		}
		if fees.TradingFeeRate < 0 || fees.WithdrawalFee < 0 || fees.FixedCost < 0 {
			return fmt.Errorf("config: negative fee for venue %q", venue)
		}
	}
	return nil
}
