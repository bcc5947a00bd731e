package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"StockPulse/pkg/logger"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refreshPayload struct {
	Ticker string `json:"ticker"`
}

type stubJob struct {
	err  error
	seen []string
}

func (j *stubJob) Name() string { return "stub" }
func (j *stubJob) Type() string { return "refresh_ticker" }
func (j *stubJob) Handle(_ context.Context, payload interface{}) error {
	p, err := ParsePayload[refreshPayload](payload)
	if err != nil {
		return err
	}
	j.seen = append(j.seen, p.Ticker)
	return j.err
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload[refreshPayload](json.RawMessage(`{"ticker":"AAPL"}`))
	require.NoError(t, err)
	assert.Equal(t, "AAPL", p.Ticker)

	p, err = ParsePayload[refreshPayload](map[string]interface{}{"ticker": "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, "MSFT", p.Ticker)

	p, err = ParsePayload[refreshPayload](refreshPayload{Ticker: "TSLA"})
	require.NoError(t, err)
	assert.Equal(t, "TSLA", p.Ticker)

	_, err = ParsePayload[refreshPayload](42)
	assert.Error(t, err)
}

func TestRedisQueue_EnqueueEncodesMessage(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewRedisQueue(logger.Nop(), &QueueConfig{}, db, ModeProducerOnly, WithQueueName("refresh"))
	q.isRunning = true

	mock.CustomMatch(func(expected, actual []interface{}) error {
		if len(actual) != 3 || actual[0] != "lpush" || actual[1] != "stockpulse:queue:refresh:messages" {
			return fmt.Errorf("unexpected command %v", actual)
		}
		var msg Message
		if err := json.Unmarshal(actual[2].([]byte), &msg); err != nil {
			return err
		}
		if msg.Type != "refresh_ticker" || msg.ID == "" || string(msg.Payload) != `{"ticker":"AAPL"}` {
			return fmt.Errorf("unexpected message %+v", msg)
		}
		return nil
	}).ExpectLPush("stockpulse:queue:refresh:messages", "").SetVal(1)

	require.NoError(t, q.PublishMessage(context.Background(), "refresh_ticker", refreshPayload{Ticker: "AAPL"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisQueue_EnqueueRequiresRunning(t *testing.T) {
	db, _ := redismock.NewClientMock()
	q := NewRedisQueue(logger.Nop(), nil, db, ModeProducerOnly)
	assert.Error(t, q.Enqueue(context.Background(), "refresh_ticker", refreshPayload{}))
}

func TestRedisQueue_FailedJobMovesToDLQAfterRetries(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewRedisQueue(logger.Nop(), &QueueConfig{RetryLimit: 1, RetryDelay: time.Minute}, db, ModeConsumerOnly)
	job := &stubJob{err: errors.New("model service down")}
	q.RegisterJob(job)

	msg := Message{ID: "m1", Type: "refresh_ticker", Payload: json.RawMessage(`{"ticker":"AAPL"}`), Attempts: 1}

	mock.CustomMatch(func(expected, actual []interface{}) error {
		if actual[0] != "lpush" || actual[1] != "stockpulse:queue:dlq" {
			return fmt.Errorf("unexpected command %v", actual)
		}
		return nil
	}).ExpectLPush("stockpulse:queue:dlq", "").SetVal(1)

	q.processMessage(msg)
	assert.Equal(t, []string{"AAPL"}, job.seen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisQueue_Stats(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := NewRedisQueue(logger.Nop(), nil, db, ModeProducerConsumer)

	mock.ExpectLLen("stockpulse:queue:messages").SetVal(3)
	mock.ExpectZCard("stockpulse:queue:retry").SetVal(1)
	mock.ExpectLLen("stockpulse:queue:dlq").SetVal(0)

	st, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Pending: 3, Retrying: 1}, st)
}
