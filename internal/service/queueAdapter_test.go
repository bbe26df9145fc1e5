package service

import (
	"context"
	"testing"
	"time"

	"github.com/ds124wfegd/ticket-marketplace/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Publish(ctx context.Context, task *queue.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *mockQueue) Subscribe(ctx context.Context, handler queue.HandlerFunc) error {
	return m.Called(ctx, handler).Error(0)
}

func (m *mockQueue) Close() error {
	return m.Called().Error(0)
}

func TestQueueAdapter_Publish(t *testing.T) {
	q := &mockQueue{}
	executeAt := time.Now().Add(time.Minute)
	q.On("Publish", mock.Anything, mock.MatchedBy(func(task *queue.Task) bool {
		return task.Type == queue.TaskTypeBookingPaid &&
			task.Data["booking_id"] == "b-1" &&
			task.ExecuteAt.Equal(executeAt) &&
			task.MaxRetries == 2
	})).Return(nil)

	adapter := NewQueueAdapter(q)
	err := adapter.Publish(context.Background(), &Task{
		Type:       TaskTypeBookingPaid,
		Data:       map[string]interface{}{"booking_id": "b-1"},
		ExecuteAt:  executeAt,
		MaxRetries: 2,
	})
	require.NoError(t, err)
	q.AssertExpectations(t)
}

func TestQueueAdapter_NilQueue(t *testing.T) {
	adapter := NewQueueAdapter(nil)
	assert.NoError(t, adapter.Publish(context.Background(), &Task{Type: TaskTypeBookingPaid}))
}
