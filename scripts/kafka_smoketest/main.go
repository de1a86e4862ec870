// Command kafka_smoketest prepares the paddock topics on a local Kafka
// cluster and round-trips one league.created event through the event bus.
//
// Usage: go run ./scripts/kafka_smoketest
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	infra_eventbus "github.com/amirasaad/paddock/infra/eventbus"
	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/segmentio/kafka-go"
)

// RunSmokeTest creates every event topic and its dead-letter twin, then
// checks that an emitted event reaches a registered handler.
func RunSmokeTest(logger *slog.Logger) error {
	_ = godotenv.Load()
	var cfg config.EventBus
	if err := envconfig.Process("EVENT_BUS", &cfg); err != nil {
		return err
	}
	// a fresh group so the check never resumes an old offset
	cfg.GroupID = "paddock-smoketest-" + uuid.NewString()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := createTopics(ctx, &cfg, logger); err != nil {
		return err
	}

	bus, err := infra_eventbus.NewWithKafka(&cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	want := events.LeagueCreated{LeagueID: uuid.New(), LeagueName: "Smoke Test Cup"}
	received := make(chan uuid.UUID, 8)
	bus.Register(events.EventTypeLeagueCreated, func(_ context.Context, e events.Event) error {
		if evt, ok := e.(*events.LeagueCreated); ok {
			received <- evt.LeagueID
		}
		return nil
	})

	if err := bus.Emit(ctx, want); err != nil {
		return err
	}
	logger.Info("produced", "type", want.Type(), "league_id", want.LeagueID)

	for {
		select {
		case id := <-received:
			if id == want.LeagueID {
				logger.Info("kafka smoke test passed", "league_id", id)
				return nil
			}
			logger.Info("skipping older event", "league_id", id)
		case <-ctx.Done():
			return errors.New("timed out waiting for league.created")
		}
	}
}

func createTopics(ctx context.Context, cfg *config.EventBus, logger *slog.Logger) error {
	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Brokers[0], err)
	}
	defer func() { _ = conn.Close() }()

	types := make([]string, 0, len(events.EventTypes))
	for t := range events.EventTypes {
		types = append(types, t)
	}
	slices.Sort(types)

	for _, t := range types {
		topic := infra_eventbus.TopicName(cfg.TopicPrefix, events.EventType(t))
		for _, name := range []string{topic, topic + cfg.DLQSuffix} {
			err := conn.CreateTopics(kafka.TopicConfig{
				Topic:             name,
				NumPartitions:     1,
				ReplicationFactor: 1,
			})
			if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
				return fmt.Errorf("create topic %s: %w", name, err)
			}
			logger.Info("topic ready", "topic", name)
		}
	}
	return nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := RunSmokeTest(logger); err != nil {
		logger.Error("kafka smoke test failed", "error", err)
		os.Exit(1)
	}
}
