package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/listview"
	"github.com/simp-lee/catalogadmin/internal/pkg"
)

// Resource is the remote collection of one catalog resource. It serves as
// the list engine's Source, BulkActions and Exporter.
type Resource[T any] struct {
	c    *Client
	name string
	// Sort is sent with list requests when set, e.g. "name:asc".
	Sort string
}

var (
	_ listview.Source[domain.Brand]         = (*Resource[domain.Brand])(nil)
	_ listview.BulkActions[uint]            = (*Resource[domain.Brand])(nil)
	_ listview.Exporter[domain.Brand, uint] = (*Resource[domain.Brand])(nil)
)

// NewResource returns the resource named name, e.g. "brands".
func NewResource[T any](c *Client, name string) *Resource[T] {
	return &Resource[T]{c: c, name: name}
}

// Name returns the resource name.
func (r *Resource[T]) Name() string {
	return r.name
}

func (r *Resource[T]) path(elem ...string) string {
	return APIPrefix + "/" + r.name + strings.Join(append([]string{""}, elem...), "/")
}

// filterQuery encodes filters the way the list endpoints parse them. sort
// falls back to r.Sort.
func (r *Resource[T]) filterQuery(f listview.FilterState, sort string) url.Values {
	q := url.Values{}
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		q.Set(listview.ParamSearch, term)
	}
	if _, ok := f.Status.Target(); ok {
		q.Set(listview.ParamStatus, string(f.Status))
	}
	if f.Category != "" && f.Category != listview.CategoryAll {
		q.Set(listview.ParamCategory, f.Category)
	}
	if sort == "" {
		sort = r.Sort
	}
	if sort != "" {
		q.Set(listview.ParamSort, sort)
	}
	return q
}

// FetchPage requests one page of rows matching q.
func (r *Resource[T]) FetchPage(ctx context.Context, q listview.Query) (listview.Page[T], error) {
	query := r.filterQuery(q.Filters, q.Sort)
	if q.Pagination.CurrentPage > 0 {
		query.Set(listview.ParamPage, strconv.Itoa(q.Pagination.CurrentPage))
	}
	if q.Pagination.ItemsPerPage > 0 {
		query.Set(listview.ParamPageSize, strconv.Itoa(q.Pagination.ItemsPerPage))
	}

	var result domain.PageResult[T]
	if err := r.c.do(ctx, http.MethodGet, r.path(), query, nil, &result); err != nil {
		return listview.Page[T]{}, err
	}
	return pkg.ToListviewPage(&result), nil
}

// Get fetches one row.
func (r *Resource[T]) Get(ctx context.Context, id uint) (T, error) {
	var row T
	err := r.c.do(ctx, http.MethodGet, r.path(strconv.FormatUint(uint64(id), 10)), nil, nil, &row)
	return row, err
}

type bulkIDs struct {
	IDs []uint `json:"ids"`
}

type bulkStatus struct {
	IDs    []uint `json:"ids"`
	Status bool   `json:"status"`
}

// BulkDelete deletes the rows with the given ids.
func (r *Resource[T]) BulkDelete(ctx context.Context, ids []uint) error {
	var res domain.BulkResult
	return r.c.do(ctx, http.MethodPost, r.path("bulk", "delete"), nil, bulkIDs{IDs: ids}, &res)
}

// BulkUpdateStatus sets the status of the rows with the given ids.
func (r *Resource[T]) BulkUpdateStatus(ctx context.Context, ids []uint, status bool) error {
	var res domain.BulkResult
	return r.c.do(ctx, http.MethodPost, r.path("bulk", "status"), nil, bulkStatus{IDs: ids, Status: status}, &res)
}

// GetSelected fetches the rows with the given ids.
func (r *Resource[T]) GetSelected(ctx context.Context, ids []uint) ([]T, error) {
	var rows []T
	if err := r.c.do(ctx, http.MethodPost, r.path("bulk", "get"), nil, bulkIDs{IDs: ids}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetAll fetches every row matching filters, up to the server's export limit.
// A capped answer returns its rows with a *listview.TruncatedError.
func (r *Resource[T]) GetAll(ctx context.Context, filters listview.FilterState) ([]T, error) {
	var rows []T
	header, err := r.c.send(ctx, http.MethodGet, r.path("all"), r.filterQuery(filters, ""), nil, &rows)
	if err != nil {
		return nil, err
	}
	if total, err := strconv.Atoi(header.Get(listview.HeaderTotalCount)); err == nil && total > len(rows) {
		return rows, &listview.TruncatedError{Returned: len(rows), Total: total}
	}
	return rows, nil
}

// StatusPayload is the body of a single-row status change.
type StatusPayload struct {
	Status bool `json:"status"`
}

// PrepareStatus builds the status payload; it matches listview.PrepareFunc.
func PrepareStatus[T any](_ T, next bool) StatusPayload {
	return StatusPayload{Status: next}
}

// UpdateStatus sends a single-row status change.
func (r *Resource[T]) UpdateStatus(ctx context.Context, id uint, payload StatusPayload) error {
	return r.c.do(ctx, http.MethodPatch, r.path(strconv.FormatUint(uint64(id), 10), "status"), nil, payload, nil)
}

// AllSource returns a Source that fetches every row matching the filters in
// one request, for client-driven pagination. A capped answer is returned as
// a page together with its *listview.TruncatedError.
func (r *Resource[T]) AllSource() listview.Source[T] {
	return listview.SourceFunc[T](func(ctx context.Context, q listview.Query) (listview.Page[T], error) {
		rows, err := r.GetAll(ctx, q.Filters)
		if _, truncated := listview.AsTruncated(err); err != nil && !truncated {
			return listview.Page[T]{}, err
		}
		return listview.Page[T]{
			Rows:       rows,
			Pagination: listview.Pagination{TotalItems: len(rows), ItemsPerPage: len(rows), CurrentPage: 1},
		}, err
	})
}
