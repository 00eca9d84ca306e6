package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/cnukaus/Polymarket-arbitrage/internal/arb"
	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
	"github.com/cnukaus/Polymarket-arbitrage/internal/kafka"
	"github.com/cnukaus/Polymarket-arbitrage/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_ = godotenv.Load()
	logging.InitFromEnv()

	brokers := kafka.Brokers()
	topic := kafka.TopicFromEnv("OPPORTUNITY_KAFKA_TOPIC", kafka.DefaultOpportunityTopic)
	group := config.String("ALERT_FEED_GROUP", "alert-feed")

	waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	if err := kafka.WaitForBroker(waitCtx, brokers); err != nil {
		logging.Fatalf("[alert-feed] wait for broker: %v", err)
	}
	cancel()

	reader := kafka.NewReader(brokers, topic, group)
	defer reader.Close()

	logging.Infof("[alert-feed] consuming %s with group %s", topic, group)
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Errorf("[alert-feed] read error: %v", err)
			continue
		}
		var opp arb.Opportunity
		if err := json.Unmarshal(msg.Value, &opp); err != nil {
			logging.Errorf("[alert-feed] unmarshal error: %v", err)
			continue
		}
		printAlert(&opp)
	}
}

func printAlert(opp *arb.Opportunity) {
	fmt.Printf("[alert] pair=%s dir=%s net_edge=%.2f%% size=%.0f profit=%.2f conf=%.2f review=%v\n",
		opp.Match.PairID,
		opp.Direction(),
		opp.NetEdge*100,
		opp.MaxPositionSize,
		opp.ExpectedProfit,
		opp.Confidence,
		opp.Match.HumanReviewRequired,
	)
	for _, risk := range opp.Match.RiskFactors {
		fmt.Printf("  risk: %s\n", risk)
	}
}
