package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

// KafkaAuditPublisher writes settlement transitions to the audit topic,
// keyed by order id so one order's history stays in partition order.
type KafkaAuditPublisher struct {
	writer *kafka.Writer
}

func NewKafkaAuditPublisher(brokers ...string) *KafkaAuditPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-settlement",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaAuditPublisher{writer: w}
}

func (p *KafkaAuditPublisher) Publish(ctx context.Context, event domain.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish audit event: %w", err)
	}

	return nil
}

func (p *KafkaAuditPublisher) Close() error {
	return p.writer.Close()
}

// NopAuditPublisher drops events; used when no brokers are configured.
type NopAuditPublisher struct{}

func (NopAuditPublisher) Publish(context.Context, domain.AuditEvent) error {
	return nil
}
