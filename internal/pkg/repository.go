package pkg

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

// ListSpec describes how a resource table is listed.
type ListSpec struct {
	SortFields []string
	Filter     FilterColumns
	// Preload names associations loaded with every read.
	Preload []string
}

// Repository is a GORM-backed store for one catalog entity.
type Repository[T any] struct {
	db   *gorm.DB
	spec ListSpec
}

// NewRepository creates a Repository over db.
// Panics if db is nil.
func NewRepository[T any](db *gorm.DB, spec ListSpec) *Repository[T] {
	if db == nil {
		panic("pkg.NewRepository: db must not be nil")
	}
	return &Repository[T]{db: db, spec: spec}
}

func (r *Repository[T]) reads(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	for _, assoc := range r.spec.Preload {
		db = db.Preload(assoc)
	}
	return db
}

// Create inserts a new row.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return MapError(err)
	}
	return nil
}

// GetByID retrieves a row by its primary key.
func (r *Repository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := r.reads(ctx).First(&entity, id).Error; err != nil {
		return nil, MapError(err)
	}
	return &entity, nil
}

// GetByIDs retrieves the rows with the given ids, ordered by id. Missing ids
// are skipped.
func (r *Repository[T]) GetByIDs(ctx context.Context, ids []uint) ([]T, error) {
	items := []T{}
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.reads(ctx).Where("id IN ?", ids).Order("id").Find(&items).Error; err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

// List returns one page of rows matching q.
func (r *Repository[T]) List(ctx context.Context, q domain.ListQuery) (*domain.PageResult[T], error) {
	total, err := r.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	var items []T
	if err := r.reads(ctx).Model(new(T)).Scopes(
		Filter(q, r.spec.Filter),
		Paginate(q),
		Sort(q, r.spec.SortFields),
	).Find(&items).Error; err != nil {
		return nil, MapError(err)
	}

	return NewPage(items, total, q), nil
}

// Count returns the number of rows matching q's filters.
func (r *Repository[T]) Count(ctx context.Context, q domain.ListQuery) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(new(T)).Scopes(Filter(q, r.spec.Filter)).Count(&total).Error; err != nil {
		return 0, MapError(err)
	}
	return total, nil
}

// ListAll returns every row matching q's filters, ignoring its pagination,
// up to limit rows. A limit of zero or less means no limit.
func (r *Repository[T]) ListAll(ctx context.Context, q domain.ListQuery, limit int) ([]T, error) {
	db := r.reads(ctx).Model(new(T)).Scopes(Filter(q, r.spec.Filter), Sort(q, r.spec.SortFields))
	if limit > 0 {
		db = db.Limit(limit)
	}
	items := []T{}
	if err := db.Find(&items).Error; err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

// Update saves every field of an existing row.
func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error; err != nil {
		return MapError(err)
	}
	return nil
}

// UpdateStatus sets the status column of one row.
func (r *Repository[T]) UpdateStatus(ctx context.Context, id uint, status bool) error {
	result := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Update(r.statusColumn(), status)
	if result.Error != nil {
		return MapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a row by ID.
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return MapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// BulkDelete removes every row whose id is in ids within one transaction and
// reports how many rows were deleted. Unknown ids are ignored.
func (r *Repository[T]) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id IN ?", ids).Delete(new(T))
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, MapError(err)
	}
	return affected, nil
}

// BulkUpdateStatus sets the status column of every row whose id is in ids
// within one transaction and reports how many rows matched.
func (r *Repository[T]) BulkUpdateStatus(ctx context.Context, ids []uint, status bool) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(new(T)).Where("id IN ?", ids).Update(r.statusColumn(), status)
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, MapError(err)
	}
	return affected, nil
}

func (r *Repository[T]) statusColumn() string {
	if r.spec.Filter.Status != "" {
		return r.spec.Filter.Status
	}
	return "status"
}

// MapError converts GORM errors to domain errors.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. This is needed because not all GORM dialectors translate
// driver-level errors to gorm.ErrDuplicatedKey (e.g. the pure-Go SQLite driver).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
