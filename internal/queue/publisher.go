package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/cnukaus/Polymarket-arbitrage/internal/arb"
)

// PublishOpportunities writes each opportunity as one message, keyed by
// pair ID so a partition always sees a pair's updates in order.
func PublishOpportunities(ctx context.Context, writer *kafka.Writer, opps []arb.Opportunity) error {
	if writer == nil || len(opps) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(opps))
	for i := range opps {
		payload, err := json.Marshal(&opps[i])
		if err != nil {
			return fmt.Errorf("marshal opportunity %s: %w", opps[i].Match.PairID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(opps[i].Match.PairID),
			Value: payload,
		})
	}
	return writer.WriteMessages(ctx, msgs...)
}
