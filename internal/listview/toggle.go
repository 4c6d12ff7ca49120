package listview

import (
	"context"
	"fmt"
	"log/slog"
)

// StatusField reads and writes the boolean status of a row. Set returns the
// updated row; for pointer row types it may mutate and return the same value.
type StatusField[T any] struct {
	Get func(T) bool
	Set func(T, bool) T
}

func (f StatusField[T]) valid() bool {
	return f.Get != nil && f.Set != nil
}

// PrepareFunc builds the update payload for a status change.
type PrepareFunc[T, P any] func(row T, next bool) P

// UpdateFunc sends a single-row update to the remote collection.
type UpdateFunc[ID comparable, P any] func(ctx context.Context, id ID, payload P) error

// StatusToggle flips one row's status optimistically.
//
// The new status is written to the local rows before the remote call. If the
// call fails the row is restored to its previous status; if it succeeds the
// optimistic value stays and no resync is needed.
type StatusToggle[T any, ID comparable, P any] struct {
	rows    *Rows[T, ID]
	status  StatusField[T]
	prepare PrepareFunc[T, P]
	update  UpdateFunc[ID, P]
	logger  *slog.Logger
}

// NewStatusToggle creates a StatusToggle over rows.
// Panics if any argument other than logger is nil.
func NewStatusToggle[T any, ID comparable, P any](rows *Rows[T, ID], status StatusField[T], prepare PrepareFunc[T, P], update UpdateFunc[ID, P], logger *slog.Logger) *StatusToggle[T, ID, P] {
	if rows == nil {
		panic("listview.NewStatusToggle: rows must not be nil")
	}
	if !status.valid() {
		panic("listview.NewStatusToggle: status field needs Get and Set")
	}
	if prepare == nil || update == nil {
		panic("listview.NewStatusToggle: prepare and update must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusToggle[T, ID, P]{
		rows:    rows,
		status:  status,
		prepare: prepare,
		update:  update,
		logger:  logger,
	}
}

// Toggle sets row's status to next and sends the update.
func (t *StatusToggle[T, ID, P]) Toggle(ctx context.Context, row T, next bool) error {
	id := t.rows.IDOf(row)
	prev := t.status.Get(row)
	if current, ok := t.rows.Find(id); ok {
		prev = t.status.Get(current)
	}

	t.rows.Patch(id, func(r T) T { return t.status.Set(r, next) })

	if err := t.update(ctx, id, t.prepare(row, next)); err != nil {
		restored := t.rows.Patch(id, func(r T) T { return t.status.Set(r, prev) })
		t.logger.WarnContext(ctx, "status toggle rolled back",
			slog.Any("id", id),
			slog.Bool("next", next),
			slog.Bool("restored", restored),
			slog.Any("error", err),
		)
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}
