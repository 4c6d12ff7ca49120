package listview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

// BulkKind is the kind of a dispatched bulk request.
type BulkKind int

const (
	BulkDelete BulkKind = iota + 1
	BulkStatus
)

// String implements fmt.Stringer.
func (k BulkKind) String() string {
	switch k {
	case BulkDelete:
		return "delete"
	case BulkStatus:
		return "status"
	default:
		return "unknown"
	}
}

// BulkRequest is one bulk call against the remote collection.
// TargetStatus is meaningful only when Kind is BulkStatus.
type BulkRequest[ID comparable] struct {
	Kind         BulkKind
	TargetStatus bool
	IDs          []ID
}

// Validation failures of NewBulkRequest.
var (
	ErrNoAction       = domain.NewAppError(domain.CodeValidation, "choose a bulk action first", nil)
	ErrStatusRequired = domain.NewAppError(domain.CodeValidation, "choose Active or Inactive before applying a status change", nil)
	ErrBulkInFlight   = domain.NewAppError(domain.CodeConflict, "another bulk action is still running", nil)
)

// NewBulkRequest builds the request for action over ids.
func NewBulkRequest[ID comparable](action Action, ids []ID) (BulkRequest[ID], error) {
	switch action.Kind() {
	case ActionDelete:
		return BulkRequest[ID]{Kind: BulkDelete, IDs: ids}, nil
	case ActionStatus:
		target, ok := action.SubStatus().Target()
		if !ok {
			return BulkRequest[ID]{}, ErrStatusRequired
		}
		return BulkRequest[ID]{Kind: BulkStatus, TargetStatus: target, IDs: ids}, nil
	default:
		return BulkRequest[ID]{}, ErrNoAction
	}
}

// ResyncError reports that a bulk action succeeded but the follow-up
// resynchronization failed. Local state already reflects the action.
type ResyncError struct {
	Err error
}

func (e *ResyncError) Error() string {
	return "resync after bulk action: " + e.Err.Error()
}

func (e *ResyncError) Unwrap() error {
	return e.Err
}

// IsResyncError reports whether err is or wraps a *ResyncError.
func IsResyncError(err error) bool {
	var re *ResyncError
	return errors.As(err, &re)
}

// BulkOutcome describes what Apply did.
type BulkOutcome[ID comparable] struct {
	Request    BulkRequest[ID]
	Dispatched bool
	Affected   int
}

// BulkCoordinator applies the current selection's bulk action.
//
// The sequence is dispatch, await, mutate local rows, clear selection, resync;
// local rows are never touched before the remote call succeeds.
type BulkCoordinator[T any, ID comparable] struct {
	actions   BulkActions[ID]
	rows      *Rows[T, ID]
	selection *Selection[ID]
	setStatus func(T, bool) T
	resync    func(context.Context) error
	logger    *slog.Logger
	inFlight  atomic.Bool
}

// BulkOptions holds the optional collaborators of a BulkCoordinator.
type BulkOptions[T any] struct {
	// SetStatus patches a row's status after a successful status change.
	// Without it, rows are left untouched until the next resync.
	SetStatus func(T, bool) T
	// Resync is called after local state was updated.
	Resync func(context.Context) error
	Logger *slog.Logger
}

// NewBulkCoordinator wires a coordinator to its rows and selection.
// Panics if actions, rows, or selection is nil.
func NewBulkCoordinator[T any, ID comparable](actions BulkActions[ID], rows *Rows[T, ID], selection *Selection[ID], opts BulkOptions[T]) *BulkCoordinator[T, ID] {
	if actions == nil {
		panic("listview.NewBulkCoordinator: actions must not be nil")
	}
	if rows == nil || selection == nil {
		panic("listview.NewBulkCoordinator: rows and selection must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BulkCoordinator[T, ID]{
		actions:   actions,
		rows:      rows,
		selection: selection,
		setStatus: opts.SetStatus,
		resync:    opts.Resync,
		logger:    logger,
	}
}

// Pending reports whether a bulk action is in flight.
func (c *BulkCoordinator[T, ID]) Pending() bool {
	return c.inFlight.Load()
}

// Apply dispatches action for the selected ids.
//
// An empty selection is a no-op. Invalid actions are rejected before any
// remote call. On remote failure rows and selection are left unchanged so the
// user can retry. A second Apply while one is in flight fails with
// ErrBulkInFlight.
func (c *BulkCoordinator[T, ID]) Apply(ctx context.Context, action Action) (BulkOutcome[ID], error) {
	ids := c.selection.IDs()
	if len(ids) == 0 {
		return BulkOutcome[ID]{}, nil
	}

	req, err := NewBulkRequest(action, ids)
	if err != nil {
		return BulkOutcome[ID]{}, err
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return BulkOutcome[ID]{Request: req}, ErrBulkInFlight
	}
	defer c.inFlight.Store(false)

	c.logger.DebugContext(ctx, "dispatching bulk action",
		slog.String("kind", req.Kind.String()),
		slog.Int("count", len(req.IDs)),
	)

	if err := c.dispatch(ctx, req); err != nil {
		return BulkOutcome[ID]{Request: req}, fmt.Errorf("bulk %s: %w", req.Kind, err)
	}

	out := BulkOutcome[ID]{Request: req, Dispatched: true}
	switch req.Kind {
	case BulkDelete:
		out.Affected = c.rows.Remove(req.IDs)
	case BulkStatus:
		if c.setStatus != nil {
			out.Affected = c.rows.PatchAll(req.IDs, func(row T) T {
				return c.setStatus(row, req.TargetStatus)
			})
		}
	}
	c.selection.Clear()

	if c.resync != nil {
		if err := c.resync(ctx); err != nil {
			c.logger.WarnContext(ctx, "resync after bulk action failed",
				slog.String("kind", req.Kind.String()),
				slog.Any("error", err),
			)
			return out, &ResyncError{Err: err}
		}
	}
	return out, nil
}

func (c *BulkCoordinator[T, ID]) dispatch(ctx context.Context, req BulkRequest[ID]) error {
	switch req.Kind {
	case BulkDelete:
		return c.actions.BulkDelete(ctx, req.IDs)
	case BulkStatus:
		return c.actions.BulkUpdateStatus(ctx, req.IDs, req.TargetStatus)
	default:
		return fmt.Errorf("unsupported bulk kind %d", req.Kind)
	}
}
