package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cnukaus/Polymarket-arbitrage/internal/arb"
	"github.com/cnukaus/Polymarket-arbitrage/internal/depth"
)

// InsertOpportunity records a detected opportunity together with the
// depth-based feasibility verdict, when one was produced.
func (s *Store) InsertOpportunity(ctx context.Context, opp *arb.Opportunity, feas *depth.FeasibilityAssessment) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store not initialized")
	}
	if opp == nil {
		return fmt.Errorf("nil opportunity")
	}

	risksJSON, err := json.Marshal(opp.Match.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshal risk factors: %w", err)
	}
	rawJSON, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("marshal opportunity: %w", err)
	}

	var (
		feasible       any
		feasMaxSize    any
		feasNetEdge    any
		feasSlippage   any
		constraintsRaw any
	)
	if feas != nil {
		feasible = boolToInt(feas.Feasible)
		feasMaxSize = feas.MaxSize
		feasNetEdge = feas.NetEdgeAfterSlippage
		feasSlippage = feas.TotalSlippage
		cj, err := json.Marshal(feas.Constraints)
		if err != nil {
			return fmt.Errorf("marshal constraints: %w", err)
		}
		constraintsRaw = string(cj)
	}

	const query = `
INSERT INTO opportunities (
	pair_id, opportunity_type, direction,
	venue_a, venue_b, side_a, side_b,
	price_a, price_b, cost_a, cost_b,
	gross_edge, net_edge, max_position_size, expected_profit,
	slippage_estimate, timing_risk, resolution_risk,
	match_confidence, review_required, risk_factors_json,
	feasible, feasible_max_size, feasible_net_edge, feasible_slippage, constraints_json,
	detected_at, recorded_at, raw_json
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
`

	_, err = s.db.ExecContext(
		ctx,
		query,
		opp.Match.PairID,
		string(opp.Type),
		opp.Direction(),
		string(opp.LegA.Venue),
		string(opp.LegB.Venue),
		opp.LegA.Side,
		opp.LegB.Side,
		opp.LegA.Price,
		opp.LegB.Price,
		opp.LegA.TotalCost,
		opp.LegB.TotalCost,
		opp.GrossEdge,
		opp.NetEdge,
		opp.MaxPositionSize,
		opp.ExpectedProfit,
		opp.SlippageEstimate,
		opp.TimingRisk,
		opp.ResolutionRisk,
		opp.Confidence,
		boolToInt(opp.Match.HumanReviewRequired),
		string(risksJSON),
		feasible,
		feasMaxSize,
		feasNetEdge,
		feasSlippage,
		constraintsRaw,
		opp.DetectedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(rawJSON),
	)
	return err
}

// StoredOpportunity is a trimmed row for reporting.
type StoredOpportunity struct {
	PairID     string
	Direction  string
	NetEdge    float64
	Feasible   *bool
	DetectedAt time.Time
}

// ListRecent returns the latest rows, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]StoredOpportunity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT pair_id, direction, net_edge, feasible, detected_at
FROM opportunities
ORDER BY detected_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query opportunities: %w", err)
	}
	defer rows.Close()

	var out []StoredOpportunity
	for rows.Next() {
		var (
			row        StoredOpportunity
			feasible   *int64
			detectedAt string
		)
		if err := rows.Scan(&row.PairID, &row.Direction, &row.NetEdge, &feasible, &detectedAt); err != nil {
			return nil, fmt.Errorf("scan opportunity row: %w", err)
		}
		if feasible != nil {
			v := *feasible != 0
			row.Feasible = &v
		}
		if ts, err := time.Parse(time.RFC3339Nano, detectedAt); err == nil {
			row.DetectedAt = ts
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
