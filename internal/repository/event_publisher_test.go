package repository

import (
	"context"
	"errors"
	"testing"

	"ProxyPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	topic string
	key   []byte
	value interface{}
	err   error
}

func (p *recordingProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return p.err
}

func (p *recordingProducer) Close() error { return nil }

func TestKafkaEventPublisherKeysBySeries(t *testing.T) {
	prod := &recordingProducer{}
	pub := NewKafkaEventPublisher(prod, "proxypull.series-events")

	ev := models.SeriesEvent{ID: "e1", Source: "fred", Identifier: "UNRATE", Provenance: models.ProvenanceLive}
	require.NoError(t, pub.PublishSeriesEvent(context.Background(), ev))

	assert.Equal(t, "proxypull.series-events", prod.topic)
	assert.Equal(t, "fred:UNRATE", string(prod.key))
	assert.Equal(t, ev, prod.value)
	assert.NoError(t, pub.Close())
}

func TestKafkaEventPublisherReturnsProducerError(t *testing.T) {
	boom := errors.New("broker down")
	pub := NewKafkaEventPublisher(&recordingProducer{err: boom}, "t")
	assert.ErrorIs(t, pub.PublishSeriesEvent(context.Background(), models.SeriesEvent{}), boom)
}

func TestNopEventPublisher(t *testing.T) {
	pub := NewNopEventPublisher()
	assert.NoError(t, pub.PublishSeriesEvent(context.Background(), models.SeriesEvent{}))
	assert.NoError(t, pub.Close())
}
