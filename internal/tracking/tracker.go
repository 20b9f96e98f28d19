// Package tracking records process completion metrics in the shared
// tracking database. Like reporting, delivery is fire-and-forget.
package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"

	"github.com/odense-rpa/passivering-af-ungesager/pkg/panicerr"
)

const (
	statusCompleted = "completed"
	statusPartial   = "partial"
)

type Tracker struct {
	db *sql.DB
}

func NewTracker(dsn string) (*Tracker, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracking database: %w", err)
	}
	return &Tracker{db: db}, nil
}

func (t *Tracker) Close() error {
	return t.db.Close()
}

// TrackTask records a fully processed task for the named process.
func (t *Tracker) TrackTask(ctx context.Context, processName string) {
	t.track(ctx, processName, statusCompleted)
}

// TrackPartialTask records a task that was deferred to manual handling.
func (t *Tracker) TrackPartialTask(ctx context.Context, processName string) {
	t.track(ctx, processName, statusPartial)
}

func (t *Tracker) track(ctx context.Context, processName, status string) {
	err := panicerr.SafeContext(func(ctx context.Context) error {
		const query = `INSERT INTO task_tracking (process_name, status, tracked_at) VALUES (?, ?, NOW())`
		_, err := t.db.ExecContext(ctx, query, processName, status)
		return err
	})(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to track task", "process", processName, "status", status, "error", err)
	}
}
