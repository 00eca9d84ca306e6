package depth

import (
	"fmt"
	"math"
)

// CalculateSlippage simulates filling size against one side of the book:
// asks for a buy, bids for a sell, walked best price first, each level
// consumed up to its size. A partial fill is not an error — it caps the
// safe trade size via MaxExecutableSize.
func CalculateSlippage(depth OrderbookDepth, side Side, size float64) SlippageEstimate {
	estimate := SlippageEstimate{
		MarketID:      depth.MarketID,
		Side:          side,
		RequestedSize: size,
	}
	if size <= 0 {
		return estimate
	}

	var levels []PriceLevel
	var expected *float64
	if side == SideBuy {
		levels = depth.AskLevels
		expected = depth.BestAsk
	} else {
		levels = depth.BidLevels
		expected = depth.BestBid
	}
	if len(levels) == 0 || expected == nil {
		return estimate
	}
	estimate.ExpectedFillPrice = fptr(*expected)

	remaining := size
	totalCost := 0.0
	var consumed []Fill
	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		fill := math.Min(remaining, lvl.Size)
		totalCost += fill * lvl.Price
		consumed = append(consumed, Fill{Price: lvl.Price, Size: fill})
		remaining -= fill
	}

	if totalCost <= 0 {
		return estimate
	}

	filled := size - remaining
	avg := totalCost / filled

	estimate.AverageFillPrice = fptr(avg)
	estimate.LevelsConsumed = consumed
	estimate.CanExecute = remaining == 0
	estimate.MaxExecutableSize = filled
	estimate.DepthExhausted = remaining > 0

	slippage := math.Abs(avg - *expected)
	estimate.SlippageAbsolute = fptr(slippage)
	if *expected > 0 {
		estimate.SlippagePct = fptr(slippage / *expected)
	}

	if depth.MidPrice != nil && *depth.MidPrice > 0 {
		estimate.PriceImpact = fptr(math.Abs(avg-*depth.MidPrice) / *depth.MidPrice)
	}

	available := depth.TotalAskDepth
	if side == SideSell {
		available = depth.TotalBidDepth
	}
	if available > 0 {
		estimate.LiquidityConsumed = fptr(filled / available)
	}

	return estimate
}

// CalculateArbitrageSlippage assigns the buy leg to whichever market has
// the cheaper mid price and the sell leg to the dearer one, then simulates
// both fills at the same size.
func CalculateArbitrageSlippage(depthA, depthB OrderbookDepth, size float64) (*ArbitrageSlippage, error) {
	if depthA.MidPrice == nil || depthB.MidPrice == nil {
		return nil, fmt.Errorf("depth: arbitrage slippage needs mid prices for %s and %s",
			depthA.MarketID, depthB.MarketID)
	}

	cheap, dear := depthA, depthB
	if *depthB.MidPrice < *depthA.MidPrice {
		cheap, dear = depthB, depthA
	}

	return &ArbitrageSlippage{
		BuyLeg:       CalculateSlippage(cheap, SideBuy, size),
		SellLeg:      CalculateSlippage(dear, SideSell, size),
		BuyMarketID:  cheap.MarketID,
		SellMarketID: dear.MarketID,
	}, nil
}

// AssessArbitrageFeasibility decides whether the two simulated legs still
// clear the edge and slippage thresholds. Every failed condition appends
// its own constraint string; nothing fails fast. The net edge comes from
// the actual average fill prices, not the quoted ones — that is the whole
// point of running the depth walk first.
func AssessArbitrageFeasibility(legs *ArbitrageSlippage, targetEdge, maxSlippage float64) FeasibilityAssessment {
	assessment := FeasibilityAssessment{}
	if legs == nil {
		assessment.Constraints = append(assessment.Constraints, "missing slippage calculations")
		return assessment
	}

	buy := legs.BuyLeg
	sell := legs.SellLeg

	if !buy.CanExecute {
		assessment.Constraints = append(assessment.Constraints,
			fmt.Sprintf("buy leg cannot execute full size (max: %.2f)", buy.MaxExecutableSize))
	}
	if !sell.CanExecute {
		assessment.Constraints = append(assessment.Constraints,
			fmt.Sprintf("sell leg cannot execute full size (max: %.2f)", sell.MaxExecutableSize))
	}

	if buy.MaxExecutableSize > 0 && sell.MaxExecutableSize > 0 {
		assessment.MaxSize = math.Min(buy.MaxExecutableSize, sell.MaxExecutableSize)
	}

	buySlip := 0.0
	if buy.SlippagePct != nil {
		buySlip = *buy.SlippagePct
	}
	sellSlip := 0.0
	if sell.SlippagePct != nil {
		sellSlip = *sell.SlippagePct
	}
	assessment.TotalSlippage = buySlip + sellSlip

	if buySlip > maxSlippage {
		assessment.Constraints = append(assessment.Constraints,
			fmt.Sprintf("buy leg slippage too high: %.2f%% > %.2f%%", buySlip*100, maxSlippage*100))
	}
	if sellSlip > maxSlippage {
		assessment.Constraints = append(assessment.Constraints,
			fmt.Sprintf("sell leg slippage too high: %.2f%% > %.2f%%", sellSlip*100, maxSlippage*100))
	}

	if buy.AverageFillPrice != nil && sell.AverageFillPrice != nil && *buy.AverageFillPrice > 0 {
		grossEdge := (*sell.AverageFillPrice - *buy.AverageFillPrice) / *buy.AverageFillPrice
		netEdge := grossEdge - assessment.TotalSlippage
		assessment.NetEdgeAfterSlippage = netEdge
		if netEdge < targetEdge {
			assessment.Constraints = append(assessment.Constraints,
				fmt.Sprintf("net edge too low: %.2f%% < %.2f%%", netEdge*100, targetEdge*100))
		}
	}

	assessment.Feasible = len(assessment.Constraints) == 0 &&
		assessment.MaxSize > 0 &&
		assessment.TotalSlippage <= maxSlippage*2

	return assessment
}
