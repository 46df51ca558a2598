package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/internal/audit/store"
	"roster/internal/domain"
)

func TestWorkerDrainsPublishedEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := store.NewInMemoryStore()
	pub := NewPublisher(8, nil)
	worker := NewWorker(s, pub.Inbox())

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	pub.Emit(ctx, domain.LogEntry{Message: "one", Level: domain.LogWarning, TableName: "Auth"})
	pub.Emit(ctx, domain.LogEntry{Message: "two", Level: domain.LogCritical, TableName: "System"})

	require.Eventually(t, func() bool {
		return len(s.List(context.Background())) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerFlushesQueueOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := store.NewInMemoryStore()
	pub := NewPublisher(8, nil)
	worker := NewWorker(s, pub.Inbox())

	// queue before the worker starts, then cancel immediately
	pub.Emit(ctx, domain.LogEntry{Message: "queued"})
	cancel()

	err := worker.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.List(context.Background()), 1)
}

func TestPublisherDropsWhenFull(t *testing.T) {
	ctx := context.Background()
	pub := NewPublisher(1, nil)

	pub.Emit(ctx, domain.LogEntry{Message: "kept"})
	pub.Emit(ctx, domain.LogEntry{Message: "dropped"}) // inbox full, must not block

	select {
	case entry := <-pub.Inbox():
		assert.Equal(t, "kept", entry.Message)
	default:
		t.Fatal("expected one queued entry")
	}
}
