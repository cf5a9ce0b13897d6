package events

import (
	"context"
	"errors"
)

// jsonProducer is the part of *kafka.Producer the publisher needs
type jsonProducer interface {
	ProduceJSON(ctx context.Context, topic, key string, value any, headers map[string]string) error
}

// KafkaPublisher writes auth events to a single topic
type KafkaPublisher struct {
	producer jsonProducer
	topic    string
	source   string
}

// NewKafkaPublisher creates a publisher for topic
func NewKafkaPublisher(producer jsonProducer, topic, source string) (*KafkaPublisher, error) {
	if producer == nil {
		return nil, errors.New("kafka producer is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	return &KafkaPublisher{producer: producer, topic: topic, source: source}, nil
}

// Publish produces the event synchronously
func (p *KafkaPublisher) Publish(ctx context.Context, event *AuthEvent) error {
	headers := map[string]string{
		"event_type": string(event.EventType),
		"source":     p.source,
	}
	return p.producer.ProduceJSON(ctx, p.topic, event.Key(), event, headers)
}
