package service

import (
	"context"
	"testing"
	"time"

	"storefront/client/internal/domain"
	"storefront/client/internal/domain/task"
	"storefront/client/internal/testutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotification(t *testing.T) {
	tests := []struct {
		name      string
		added     int
		requested int
		failed    []string
		want      string
	}{
		{"single item", 1, 1, nil, "1 item added to cart"},
		{"bundle", 3, 3, nil, "3 items added to cart"},
		{"partial", 2, 3, []string{"a"}, "Added 2 of 3 items to cart; could not add: a"},
		{"nothing landed", 0, 2, []string{"p", "a"}, "Added 0 of 2 items to cart; could not add: p, a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Notification(tt.added, tt.requested, tt.failed))
		})
	}
}

func reportMessage(t *testing.T, id string) *redis.XMessage {
	t.Helper()
	data, err := (&task.CommitReportTask{
		CommitID:  "c-1",
		Status:    domain.CommitSucceeded,
		Requested: 1,
		Added:     1,
	}).TaskValue()
	require.NoError(t, err)

	return &redis.XMessage{ID: id, Values: map[string]interface{}{
		"task_type": "CommitReportTask",
		"task_data": string(data),
	}}
}

func TestService_ProcessMessage(t *testing.T) {
	q := &testutil.MockQueue{}
	q.On("AckTask", mock.Anything, "stream", "notifier", "1-0").Return(nil).Once()

	s := newTestService(&testutil.MockStorefront{}, func(s *Service) { s.queue = q })

	require.NoError(t, s.processMessage(context.Background(), "stream", reportMessage(t, "1-0")))
	q.AssertExpectations(t)
}

func TestService_ProcessMessageDropsUnusable(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{"unknown task type", map[string]interface{}{"task_type": "Mystery", "task_data": "{}"}},
		{"missing task data", map[string]interface{}{"task_type": "CommitReportTask"}},
		{"broken report", map[string]interface{}{"task_type": "CommitReportTask", "task_data": "{oops"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &testutil.MockQueue{}
			q.On("AckTask", mock.Anything, "stream", "notifier", "1-0").Return(nil).Once()
			s := newTestService(&testutil.MockStorefront{}, func(s *Service) { s.queue = q })

			err := s.processMessage(context.Background(), "stream", &redis.XMessage{ID: "1-0", Values: tt.values})

			require.NoError(t, err)
			q.AssertExpectations(t)
		})
	}
}

func TestService_RunNotifier(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q := &testutil.MockQueue{}
	q.On("StreamName", "CommitReportTask").Return("storefront:stream:CommitReportTask")
	q.On("GetTask", mock.Anything, "notifier", "notifier-1", "storefront:stream:CommitReportTask").
		Return(reportMessage(t, "7-0"), nil).Once()
	q.On("GetTask", mock.Anything, "notifier", "notifier-1", "storefront:stream:CommitReportTask").
		Return(nil, nil).Maybe()
	q.On("AckTask", mock.Anything, "storefront:stream:CommitReportTask", "notifier", "7-0").
		Run(func(mock.Arguments) { cancel() }).
		Return(nil).Once()

	s := newTestService(&testutil.MockStorefront{}, func(s *Service) { s.queue = q })

	require.NoError(t, s.RunNotifier(ctx, 1))
	q.AssertExpectations(t)
}

func TestService_RunNotifierWithoutQueue(t *testing.T) {
	s := newTestService(&testutil.MockStorefront{})
	assert.Error(t, s.RunNotifier(context.Background(), 1))
}
