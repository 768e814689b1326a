// Package publisher mirrors scan-log appends onto a Kafka topic so security
// tooling can consume scan attempts without querying the service database.
// Delivery is fire-and-forget; the store remains the source of truth.
package publisher

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"gatepass/internal/platform/config"
	"gatepass/internal/scanlog"
)

const inboxSize = 256

// Kafka buffers entries on a channel and publishes them from a background
// worker. A full inbox drops the event (and logs it) rather than stalling
// the scan path.
type Kafka struct {
	client *kgo.Client
	topic  string
	inbox  chan scanlog.Entry
	logger *slog.Logger
}

// NewKafka builds the publisher. Returns nil when no brokers are configured.
func NewKafka(cfg config.KafkaConfig, logger *slog.Logger) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
	)
	if err != nil {
		return nil, err
	}
	return &Kafka{
		client: client,
		topic:  cfg.Topic,
		inbox:  make(chan scanlog.Entry, inboxSize),
		logger: logger,
	}, nil
}

// Offer enqueues an entry without blocking.
func (p *Kafka) Offer(entry scanlog.Entry) {
	select {
	case p.inbox <- entry:
	default:
		p.logger.Warn("scan event inbox full, dropping event", "entry_id", entry.ID.String())
	}
}

// Run consumes the inbox until ctx is cancelled.
func (p *Kafka) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-p.inbox:
			p.publish(ctx, entry)
		}
	}
}

func (p *Kafka) publish(ctx context.Context, entry scanlog.Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		p.logger.Error("marshal scan event", "error", err, "entry_id", entry.ID.String())
		return
	}
	record := &kgo.Record{
		Key:   []byte(entry.OperatorID.String()),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish scan event", "error", err, "entry_id", entry.ID.String())
		}
	})
}

// Close flushes outstanding records and releases the client.
func (p *Kafka) Close() {
	p.client.Close()
}
