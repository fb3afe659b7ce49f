package events

import (
	"context"
	"strings"
	"time"

	"github.com/rookgm/fmmall/internal/models"
	"github.com/segmentio/kafka-go"
)

// ParseBrokers splits comma separated broker list and drops empty entries
func ParseBrokers(brokersCSV string) []string {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Publisher publishes domain events to kafka topic
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates publisher writing to topic. Messages with the same key land in the same partition.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish writes event to kafka
func (p *Publisher) Publish(ctx context.Context, event *models.Event) error {
	return p.writer.WriteMessages(ctx, Message(event))
}

// Close flushes pending messages and closes writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Message converts outbox event to kafka message
func Message(event *models.Event) kafka.Message {
	return kafka.Message{
		Key:   []byte(event.Key),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "event_type", Value: []byte(event.Type)},
		},
		Time: time.Now().UTC(),
	}
}
