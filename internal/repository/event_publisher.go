package repository

import (
	"context"

	"ProxyPull/internal/domain/models"
	"ProxyPull/internal/domain/repository"
	pkgkafka "ProxyPull/pkg/kafka"
)

// MessageProducer is the part of pkg/kafka.Producer the publisher needs.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

var _ MessageProducer = (*pkgkafka.Producer)(nil)

// KafkaEventPublisher ships series provenance events to one topic, keyed by
// source and identifier so events of one series stay ordered.
type KafkaEventPublisher struct {
	producer MessageProducer
	topic    string
}

func NewKafkaEventPublisher(producer MessageProducer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishSeriesEvent(ctx context.Context, ev models.SeriesEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Source+":"+ev.Identifier), ev)
}

// Close is a no-op: the producer is shared with the log collector and is
// closed by its owner.
func (p *KafkaEventPublisher) Close() error { return nil }

// NopEventPublisher drops events. Used when Kafka is disabled.
type NopEventPublisher struct{}

func NewNopEventPublisher() repository.EventPublisher { return NopEventPublisher{} }

func (NopEventPublisher) PublishSeriesEvent(context.Context, models.SeriesEvent) error { return nil }
func (NopEventPublisher) Close() error                                                 { return nil }
