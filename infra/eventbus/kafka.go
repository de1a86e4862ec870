package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/domain/events"
	"github.com/amirasaad/paddock/pkg/eventbus"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// KafkaEventBus publishes every event to a per-type topic and consumes the
// topics it has handlers for within one consumer group. Messages whose
// handlers fail are forwarded to a dead-letter topic.
type KafkaEventBus struct {
	cfg    *config.EventBus
	writer *kafka.Writer
	dialer *kafka.Dialer
	logger *slog.Logger

	handlers    map[events.EventType][]eventbus.HandlerFunc
	handlersMtx sync.RWMutex

	readers    map[events.EventType]*kafka.Reader
	readersMtx sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a Kafka-backed event bus and checks broker reachability.
func NewWithKafka(cfg *config.EventBus, logger *slog.Logger) (*KafkaEventBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka event bus: brokers are required")
	}
	mechanism, err := saslMechanism(cfg)
	if err != nil {
		return nil, err
	}
	dialer := &kafka.Dialer{Timeout: 5 * time.Second, SASLMechanism: mechanism}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}
	if mechanism != nil {
		writer.Transport = &kafka.Transport{SASL: mechanism}
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &KafkaEventBus{
		cfg:      cfg,
		writer:   writer,
		dialer:   dialer,
		logger:   logger.With("bus", "kafka"),
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		readers:  make(map[events.EventType]*kafka.Reader),
		ctx:      ctx,
		cancel:   cancel,
	}

	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		cancel()
		return nil, fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()

	b.logger.Info("Kafka event bus initialized",
		"brokers", cfg.Brokers,
		"group_id", cfg.GroupID,
		"topic_prefix", cfg.TopicPrefix,
		"sasl_enabled", mechanism != nil,
	)
	return b, nil
}

func saslMechanism(cfg *config.EventBus) (sasl.Mechanism, error) {
	username := strings.TrimSpace(cfg.SASLUsername)
	password := strings.TrimSpace(cfg.SASLPassword)
	if username == "" && password == "" {
		return nil, nil
	}
	if username == "" || password == "" {
		return nil, errors.New("kafka event bus: sasl username and password are required")
	}
	return plain.Mechanism{Username: username, Password: password}, nil
}

// Register registers a handler and starts consuming the event type's topic.
func (b *KafkaEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()
	if _, ok := b.readers[eventType]; ok {
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.cfg.Brokers,
		GroupID:     b.cfg.GroupID,
		Topic:       TopicName(b.cfg.TopicPrefix, eventType),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		Dialer:      b.dialer,
	})
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(eventType, reader)
	}()
}

// Emit publishes the event keyed by its type.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	value, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	msg := kafka.Message{
		Topic: TopicName(b.cfg.TopicPrefix, events.EventType(event.Type())),
		Key:   []byte(event.Type()),
		Value: value,
		Time:  time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

// Close stops consumers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

func (b *KafkaEventBus) consume(eventType events.EventType, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(b.ctx)
		if err != nil {
			if b.ctx.Err() != nil {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "event_type", eventType)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := b.process(b.ctx, eventType, msg); err != nil {
			b.logger.Error("kafka message processing failed; will retry", "error", err, "offset", msg.Offset)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err := reader.CommitMessages(b.ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

// process runs the handlers for one message. A nil return commits the offset;
// undecodable messages are dropped and failed ones are dead-lettered.
func (b *KafkaEventBus) process(ctx context.Context, eventType events.EventType, msg kafka.Message) error {
	evt, err := decodeEnvelope(msg.Value)
	if err != nil {
		b.logger.Error("dropping undecodable message", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		return nil
	}

	b.handlersMtx.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[eventType]...)
	b.handlersMtx.RUnlock()

	failed := false
	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			failed = true
			b.logger.Error("handler error", "error", err, "event_type", eventType, "offset", msg.Offset)
		}
	}
	if !failed {
		return nil
	}

	dlq := kafka.Message{
		Topic: TopicName(b.cfg.TopicPrefix, eventType) + b.cfg.DLQSuffix,
		Key:   msg.Key,
		Value: msg.Value,
		Time:  time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, dlq); err != nil {
		return fmt.Errorf("kafka event bus: dlq publish failed: %w", err)
	}
	b.logger.Warn("message sent to DLQ", "event_type", eventType, "dlq_topic", dlq.Topic)
	return nil
}

// TopicName returns the topic an event type is published on.
func TopicName(prefix string, eventType events.EventType) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return eventType.String()
	}
	return prefix + "." + eventType.String()
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
