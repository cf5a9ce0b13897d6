package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) ProduceJSON(ctx context.Context, topic, key string, value any, headers map[string]string) error {
	args := m.Called(ctx, topic, key, value, headers)
	return args.Error(0)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := new(MockProducer)
	publisher, err := NewKafkaPublisher(producer, "auth-events", "store-auth")
	require.NoError(t, err)

	event := NewAuthEvent(EventUserRegistered, 42, "john@x.com", "USER")
	producer.On("ProduceJSON", mock.Anything, "auth-events", "identity-42", event, map[string]string{
		"event_type": "auth.user.registered",
		"source":     "store-auth",
	}).Return(nil)

	assert.NoError(t, publisher.Publish(context.Background(), event))
	producer.AssertExpectations(t)
}

func TestKafkaPublisher_PropagatesError(t *testing.T) {
	producer := new(MockProducer)
	publisher, err := NewKafkaPublisher(producer, "auth-events", "store-auth")
	require.NoError(t, err)

	boom := errors.New("broker unavailable")
	producer.On("ProduceJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)

	err = publisher.Publish(context.Background(), NewAuthEvent(EventTokenRefreshed, 1, "john@x.com", ""))
	assert.ErrorIs(t, err, boom)
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "auth-events", "store-auth")
	assert.Error(t, err)

	_, err = NewKafkaPublisher(new(MockProducer), "", "store-auth")
	assert.Error(t, err)
}

func TestNewAuthEvent(t *testing.T) {
	event := NewAuthEvent(EventUserAuthenticated, 7, "john@x.com", "ADMIN")

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, EventUserAuthenticated, event.EventType)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, "identity-7", event.Key())
	assert.False(t, event.OccurredAt.IsZero())
}
