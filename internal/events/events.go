package events

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Venue identifies the platform an event belongs to.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenuePredyx     Venue = "predyx"
	VenueKalshi     Venue = "kalshi"
)

// MarketType describes the market structure of an event.
type MarketType string

const (
	MarketBinary       MarketType = "binary"
	MarketMultiOutcome MarketType = "multi_outcome"
	MarketContinuous   MarketType = "continuous"
)

// ContractSide is one tradable outcome of an event (e.g. YES or NO).
// Volume24h and Liquidity are nil when the venue did not report them;
// zero and unknown are different things for sizing decisions.
type ContractSide struct {
	SideID             string   `json:"side_id"`
	Name               string   `json:"name"`
	Price              float64  `json:"price"`
	ImpliedProbability float64  `json:"implied_probability"`
	Volume24h          *float64 `json:"volume_24h,omitempty"`
	Liquidity          *float64 `json:"liquidity,omitempty"`
}

// FeeSchedule holds the per-venue trading costs applied to one leg.
type FeeSchedule struct {
	TradingFeeRate float64 `json:"trading_fee_rate"` // fraction of notional
	WithdrawalFee  float64 `json:"withdrawal_fee"`
	FixedCost      float64 `json:"fixed_cost"` // gas / network, per trade
}

// Event is the canonical representation of a predictable real-world outcome.
// Events are produced by venue normalizers, read-only to the pipeline, and
// replaced wholesale on refresh.
type Event struct {
	ID        string           `json:"id"`
	SourceIDs map[Venue]string `json:"source_ids"`

	Title               string   `json:"title"`
	Entities            []string `json:"entities"`
	Category            string   `json:"category"`
	ResolutionCriteria  string   `json:"resolution_criteria"`
	ResolutionSourceURL string   `json:"resolution_source_url,omitempty"`

	Deadline time.Time `json:"deadline"`

	Venue         Venue          `json:"venue"`
	MarketType    MarketType     `json:"market_type"`
	ContractSides []ContractSide `json:"contract_sides"`

	Fees    FeeSchedule `json:"fees"`
	MinTick float64     `json:"min_tick"`
	LotSize float64     `json:"lot_size"`

	TotalVolume *float64  `json:"total_volume,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Source lists normalized events for one venue. Implemented by the
// venue connectors, which are outside this module's scope.
type Source interface {
	ListEvents(ctx context.Context, venue Venue) ([]Event, error)
}

// Side returns the contract side with the given name (case-insensitive).
func (e *Event) Side(name string) (*ContractSide, bool) {
	for i := range e.ContractSides {
		if strings.EqualFold(e.ContractSides[i].Name, name) {
			return &e.ContractSides[i], true
		}
	}
	return nil, false
}

// IsBinary reports whether the event is a two-outcome market.
func (e *Event) IsBinary() bool {
	return e.MarketType == MarketBinary
}

// Validate checks the invariants the pipeline relies on: unique side names
// and, for binary markets, prices in [0,1]. A failing event is skipped by
// callers, never fatal.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event: missing id")
	}
	if e.Venue == "" {
		return fmt.Errorf("event %s: missing venue", e.ID)
	}
	seen := make(map[string]struct{}, len(e.ContractSides))
	for _, cs := range e.ContractSides {
		key := strings.ToUpper(cs.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("event %s: duplicate contract side %q", e.ID, cs.Name)
		}
		seen[key] = struct{}{}
		if e.MarketType == MarketBinary && (cs.Price < 0 || cs.Price > 1) {
			return fmt.Errorf("event %s: side %q price %.4f outside [0,1]", e.ID, cs.Name, cs.Price)
		}
	}
	return nil
}
