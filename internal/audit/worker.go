package audit

import (
	"context"
	"log/slog"

	"roster/internal/audit/store"
	"roster/internal/domain"
)

// Publisher hands entries off to the background worker without blocking the
// request path. Middleware uses it for events that happen outside a service
// call (panics, rejected tokens). When the inbox is full the entry is
// dropped and counted in the structured log only.
type Publisher struct {
	inbox  chan domain.LogEntry
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: make(chan domain.LogEntry, buffer), logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, entry domain.LogEntry) {
	select {
	case p.inbox <- entry:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, dropping entry",
				slog.String("table", entry.TableName),
				slog.String("message", entry.Message),
			)
		}
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan domain.LogEntry { return p.inbox }

// Worker consumes published entries and persists them.
type Worker struct {
	store *store.InMemoryStore
	inbox <-chan domain.LogEntry
}

func NewWorker(s *store.InMemoryStore, inbox <-chan domain.LogEntry) *Worker {
	return &Worker{store: s, inbox: inbox}
}

// Run drains the inbox until ctx is cancelled. Entries already queued when
// cancellation hits are flushed before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case entry := <-w.inbox:
					w.store.Append(context.Background(), entry)
				default:
					return ctx.Err()
				}
			}
		case entry := <-w.inbox:
			w.store.Append(ctx, entry)
		}
	}
}
