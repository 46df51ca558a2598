// Package audit records core operations into the activity log and mirrors
// them to the structured logger.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"roster/internal/audit/store"
	"roster/internal/domain"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/sentinel"
	"roster/pkg/requestcontext"
)

// Recorder is the append side of the activity log. UserID 0 marks system
// actions.
type Recorder struct {
	store  *store.InMemoryStore
	logger *slog.Logger
}

func NewRecorder(s *store.InMemoryStore, logger *slog.Logger) *Recorder {
	return &Recorder{store: s, logger: logger}
}

func (r *Recorder) write(ctx context.Context, level domain.LogLevel, message, table string, userID int) {
	r.store.Append(ctx, domain.LogEntry{
		Message:   message,
		Level:     level,
		TableName: table,
		UserID:    userID,
		CreatedAt: requestcontext.Now(ctx),
	})
	if r.logger == nil {
		return
	}
	attrs := []any{
		slog.String("table", table),
		slog.Int("user_id", userID),
		slog.String("request_id", requestcontext.RequestID(ctx)),
	}
	switch level {
	case domain.LogWarning:
		r.logger.WarnContext(ctx, message, attrs...)
	case domain.LogError, domain.LogCritical:
		r.logger.ErrorContext(ctx, message, attrs...)
	default:
		r.logger.InfoContext(ctx, message, attrs...)
	}
}

func (r *Recorder) Info(ctx context.Context, message, table string, userID int) {
	r.write(ctx, domain.LogInfo, message, table, userID)
}

func (r *Recorder) Warn(ctx context.Context, message, table string, userID int) {
	r.write(ctx, domain.LogWarning, message, table, userID)
}

func (r *Recorder) Error(ctx context.Context, message, table string, userID int) {
	r.write(ctx, domain.LogError, message, table, userID)
}

func (r *Recorder) Critical(ctx context.Context, message, table string, userID int) {
	r.write(ctx, domain.LogCritical, message, table, userID)
}

// List returns the whole log, newest first.
func (r *Recorder) List(ctx context.Context) []domain.LogEntry {
	return r.store.List(ctx)
}

func (r *Recorder) Get(ctx context.Context, id int) (domain.LogEntry, error) {
	entry, err := r.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.LogEntry{}, dErrors.New(dErrors.CodeNotFound, "log not found")
	}
	return entry, err
}

// Clear wipes the log and records who did it. Returns the removed count.
func (r *Recorder) Clear(ctx context.Context, actingUserID int) int {
	removed := r.store.Clear(ctx)
	if removed > 0 {
		r.Info(ctx, fmt.Sprintf("All %d logs cleared by admin", removed), "Logs", actingUserID)
	}
	return removed
}
