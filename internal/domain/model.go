package domain

import "time"

// BaseModel is the common base struct for all domain models.
// It replaces gorm.Model to avoid the implicit soft delete behavior of DeletedAt.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID returns the primary key.
func (m BaseModel) GetID() uint {
	return m.ID
}

// ListQuery holds pagination, sorting, and filtering parameters for a list request.
//
// Search is matched case-insensitively against the resource's searchable columns.
// Status is nil when no status filter applies. Category is empty or "All" when
// no category filter applies.
type ListQuery struct {
	Page     int
	PageSize int
	Sort     string
	Search   string
	Status   *bool
	Category string
}

// Offset returns the row offset of the requested page.
func (q ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// PageResult is one page of a list query together with the server's view of
// total and paged record counts.
type PageResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// BulkResult reports how many rows a bulk operation touched.
type BulkResult struct {
	Affected int64 `json:"affected"`
}
