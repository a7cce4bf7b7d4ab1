// Package stream mirrors audit entries to Kafka so downstream consumers
// (compliance tooling, warehousing) can follow the trail without reading the
// service's database.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"crew/internal/audit"
)

// KafkaPublisher implements audit.StreamPublisher on a Kafka topic. Records
// are produced asynchronously and keyed by target user ID so one user's
// trail stays ordered within a partition. Failures are logged, never
// returned: the Postgres append is the source of truth.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	for _, res := range resp {
		if res.Err != nil && !kgo.IsRetryableBrokerErr(res.Err) {
			// TOPIC_ALREADY_EXISTS is the normal case on restart.
			logger.InfoContext(ctx, "audit topic create response",
				"topic", res.Topic,
				"response", res.Err.Error(),
			)
		}
	}

	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// Publish produces the entry asynchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, entry audit.Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal audit entry for stream",
			"entry_id", entry.ID,
			"error", err,
		)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.TargetUserID.String()),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.ErrorContext(ctx, "publish audit entry to stream",
				"entry_id", entry.ID,
				"error", err,
			)
		}
	})
}

// Close flushes outstanding records and releases the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		p.client.Close()
		return fmt.Errorf("flush audit stream: %w", err)
	}
	p.client.Close()
	return nil
}
