package producers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestMovementEventProducer_Publish(t *testing.T) {
	ctx := context.Background()

	type event struct {
		ID           string `json:"id"`
		FromCurrency string `json:"from_currency"`
	}

	t.Run("Success", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := &MovementEventProducer{logger: newTestLogger(), writer: writer, topic: "wallet_movements"}

		payload := event{ID: "abc", FromCurrency: "EUR"}
		writer.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 || string(msgs[0].Key) != "abc" {
				return false
			}
			var decoded event
			return json.Unmarshal(msgs[0].Value, &decoded) == nil && decoded == payload
		})).Return(nil)

		err := producer.Publish(ctx, "abc", payload)
		assert.NoError(t, err)
		writer.AssertExpectations(t)
	})

	t.Run("WriteFailure", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := &MovementEventProducer{logger: newTestLogger(), writer: writer, topic: "wallet_movements"}

		writer.On("WriteMessages", ctx, mock.Anything).Return(errors.New("broker unavailable"))

		err := producer.Publish(ctx, "abc", event{ID: "abc"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish movement event")
	})

	t.Run("UnmarshalableValue", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := &MovementEventProducer{logger: newTestLogger(), writer: writer, topic: "wallet_movements"}

		err := producer.Publish(ctx, "abc", func() {})
		require.Error(t, err)
		writer.AssertNotCalled(t, "WriteMessages")
	})
}

func TestMovementEventProducer_Close(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := &MovementEventProducer{logger: newTestLogger(), writer: writer, topic: "wallet_movements"}

		writer.On("Close").Return(nil)
		assert.NoError(t, producer.Close())
	})

	t.Run("Failure", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := &MovementEventProducer{logger: newTestLogger(), writer: writer, topic: "wallet_movements"}

		writer.On("Close").Return(errors.New("close failed"))
		assert.Error(t, producer.Close())
	})
}
