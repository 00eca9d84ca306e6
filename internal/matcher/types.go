package matcher

import (
	"fmt"
	"sort"
	"time"

	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
	"github.com/cnukaus/Polymarket-arbitrage/internal/hashutil"
)

// MatchResult links two events believed to represent the same real-world
// outcome. It is immutable once produced and consumed exactly once by the
// arbitrage detector (or discarded below threshold).
type MatchResult struct {
	PairID string `json:"pair_id"`

	EventA events.Event `json:"event_a"`
	EventB events.Event `json:"event_b"`

	Confidence float64 `json:"confidence"`

	// Strategies lists the scoring strategies that contributed a non-zero
	// score; abstaining strategies never appear here.
	Strategies []string `json:"strategies"`

	RiskFactors         []string `json:"risk_factors"`
	HumanReviewRequired bool     `json:"human_review_required"`

	MatchedAt time.Time `json:"matched_at"`
}

// PairID builds an order-independent identifier for a venue/event pair.
func PairID(a, b *events.Event) string {
	left := fmt.Sprintf("%s:%s", a.Venue, a.ID)
	right := fmt.Sprintf("%s:%s", b.Venue, b.ID)
	parts := []string{left, right}
	sort.Strings(parts)
	return hashutil.HashStrings(parts...)
}
