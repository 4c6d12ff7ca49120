// Package catalog serves the brands, categories, and products resources: a
// JSON API for programmatic clients and htmx list pages for the dashboard.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/listview"
)

// MaxBulkIDs caps the number of ids accepted by one bulk request.
const MaxBulkIDs = 1000

// Store is the persistence a Service needs. *pkg.Repository satisfies it.
type Store[T any] interface {
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id uint) (*T, error)
	GetByIDs(ctx context.Context, ids []uint) ([]T, error)
	List(ctx context.Context, q domain.ListQuery) (*domain.PageResult[T], error)
	Count(ctx context.Context, q domain.ListQuery) (int64, error)
	ListAll(ctx context.Context, q domain.ListQuery, limit int) ([]T, error)
	Update(ctx context.Context, entity *T) error
	UpdateStatus(ctx context.Context, id uint, status bool) error
	Delete(ctx context.Context, id uint) error
	BulkDelete(ctx context.Context, ids []uint) (int64, error)
	BulkUpdateStatus(ctx context.Context, ids []uint, status bool) (int64, error)
}

// Rules clean and check an entity before it is written.
type Rules[T any] struct {
	// Clean trims and canonicalizes fields in place. Optional.
	Clean func(entity *T)
	// Validate returns a validation *domain.AppError for a bad entity. Optional.
	Validate func(ctx context.Context, entity *T) error
}

// Service implements the catalog use cases for one entity type.
type Service[T any] struct {
	name        string
	store       Store[T]
	rules       Rules[T]
	exportLimit int
}

// NewService creates a Service named after its resource (e.g. "brands").
// exportLimit caps ListAll; zero or less means no cap.
// Panics if store is nil.
func NewService[T any](name string, store Store[T], rules Rules[T], exportLimit int) *Service[T] {
	if store == nil {
		panic("catalog.NewService: store must not be nil")
	}
	return &Service[T]{name: name, store: store, rules: rules, exportLimit: exportLimit}
}

// Name returns the resource name.
func (s *Service[T]) Name() string {
	return s.name
}

func (s *Service[T]) check(ctx context.Context, entity *T) error {
	if s.rules.Clean != nil {
		s.rules.Clean(entity)
	}
	if s.rules.Validate != nil {
		return s.rules.Validate(ctx, entity)
	}
	return nil
}

// Create validates entity and persists it. The stored row is re-read so
// associations are populated.
func (s *Service[T]) Create(ctx context.Context, entity *T) (*T, error) {
	if err := s.check(ctx, entity); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, entity); err != nil {
		return nil, err
	}
	id, ok := any(entity).(interface{ GetID() uint })
	if !ok {
		return entity, nil
	}
	return s.store.GetByID(ctx, id.GetID())
}

// Get retrieves one row by ID.
func (s *Service[T]) Get(ctx context.Context, id uint) (*T, error) {
	return s.store.GetByID(ctx, id)
}

// GetMany retrieves the rows with the given ids. Duplicate ids are ignored.
func (s *Service[T]) GetMany(ctx context.Context, ids []uint) ([]T, error) {
	ids, err := checkIDs(ids)
	if err != nil {
		return nil, err
	}
	return s.store.GetByIDs(ctx, ids)
}

// List returns one page of rows matching q.
func (s *Service[T]) List(ctx context.Context, q domain.ListQuery) (*domain.PageResult[T], error) {
	return s.store.List(ctx, q)
}

// ListAll returns every row matching q's filters, up to the export limit.
// When more rows match than the limit allows, the rows come back together
// with a *listview.TruncatedError.
func (s *Service[T]) ListAll(ctx context.Context, q domain.ListQuery) ([]T, error) {
	items, err := s.store.ListAll(ctx, q, s.exportLimit)
	if err != nil {
		return nil, err
	}
	if s.exportLimit <= 0 || len(items) < s.exportLimit {
		return items, nil
	}

	total, err := s.store.Count(ctx, q)
	if err != nil {
		return nil, err
	}
	if int(total) <= len(items) {
		return items, nil
	}
	slog.WarnContext(ctx, "export truncated",
		slog.String("resource", s.name),
		slog.Int("limit", s.exportLimit),
		slog.Int64("total", total),
	)
	return items, &listview.TruncatedError{Returned: len(items), Total: int(total)}
}

// Update loads the row, applies the changes, and persists it.
func (s *Service[T]) Update(ctx context.Context, id uint, apply func(*T)) (*T, error) {
	entity, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(entity)
	if err := s.check(ctx, entity); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, entity); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// UpdateStatus sets the status of one row.
func (s *Service[T]) UpdateStatus(ctx context.Context, id uint, status bool) error {
	return s.store.UpdateStatus(ctx, id, status)
}

// Delete removes one row.
func (s *Service[T]) Delete(ctx context.Context, id uint) error {
	return s.store.Delete(ctx, id)
}

// BulkDelete removes every row in ids.
func (s *Service[T]) BulkDelete(ctx context.Context, ids []uint) (domain.BulkResult, error) {
	ids, err := checkIDs(ids)
	if err != nil {
		return domain.BulkResult{}, err
	}
	n, err := s.store.BulkDelete(ctx, ids)
	if err != nil {
		return domain.BulkResult{}, err
	}
	slog.InfoContext(ctx, "bulk delete",
		slog.String("resource", s.name),
		slog.Int("requested", len(ids)),
		slog.Int64("affected", n),
	)
	return domain.BulkResult{Affected: n}, nil
}

// BulkUpdateStatus sets the status of every row in ids.
func (s *Service[T]) BulkUpdateStatus(ctx context.Context, ids []uint, status bool) (domain.BulkResult, error) {
	ids, err := checkIDs(ids)
	if err != nil {
		return domain.BulkResult{}, err
	}
	n, err := s.store.BulkUpdateStatus(ctx, ids, status)
	if err != nil {
		return domain.BulkResult{}, err
	}
	slog.InfoContext(ctx, "bulk status update",
		slog.String("resource", s.name),
		slog.Bool("status", status),
		slog.Int("requested", len(ids)),
		slog.Int64("affected", n),
	)
	return domain.BulkResult{Affected: n}, nil
}

// checkIDs rejects empty, zero, and oversized id lists and drops duplicates
// while keeping the first-seen order.
func checkIDs(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, domain.NewAppError(domain.CodeValidation, "ids must not be empty", nil)
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, domain.NewAppError(domain.CodeValidation, "ids must be positive", nil)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) > MaxBulkIDs {
		return nil, domain.NewAppError(domain.CodeValidation, fmt.Sprintf("at most %d ids per request", MaxBulkIDs), nil)
	}
	return slices.Clip(out), nil
}
