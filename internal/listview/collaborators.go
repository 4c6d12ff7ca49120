package listview

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// HeaderTotalCount is set on a capped response that holds fewer rows than
// match. Its value is the full match count.
const HeaderTotalCount = "X-Total-Count"

// Query is what a list screen asks its Source for.
type Query struct {
	Filters    FilterState
	Sort       string
	Pagination Pagination
}

// Page is one server response: the rows of the requested page and the
// server's pagination metadata.
type Page[T any] struct {
	Rows       []T
	Pagination Pagination
}

// Source fetches a page of the remote collection.
type Source[T any] interface {
	FetchPage(ctx context.Context, q Query) (Page[T], error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context, q Query) (Page[T], error)

// FetchPage implements Source.
func (f SourceFunc[T]) FetchPage(ctx context.Context, q Query) (Page[T], error) {
	return f(ctx, q)
}

// BulkActions are the remote bulk endpoints.
type BulkActions[ID comparable] interface {
	BulkDelete(ctx context.Context, ids []ID) error
	BulkUpdateStatus(ctx context.Context, ids []ID, status bool) error
}

// Exporter fetches full-fidelity rows beyond the current page for export.
// GetAll may return rows together with a *TruncatedError when the remote
// side caps the result.
type Exporter[T any, ID comparable] interface {
	GetSelected(ctx context.Context, ids []ID) ([]T, error)
	GetAll(ctx context.Context, filters FilterState) ([]T, error)
}

// TruncatedError reports a capped fetch: Returned rows came back out of
// Total matching. It accompanies the rows rather than replacing them.
type TruncatedError struct {
	Returned int
	Total    int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("result truncated: %d of %d rows", e.Returned, e.Total)
}

// AsTruncated reports whether err is or wraps a *TruncatedError.
func AsTruncated(err error) (*TruncatedError, bool) {
	var t *TruncatedError
	if errors.As(err, &t) {
		return t, true
	}
	return nil, false
}

// Navigator rewrites the current URL's query parameters.
type Navigator interface {
	Navigate(ctx context.Context, params url.Values) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, params url.Values) error

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(ctx context.Context, params url.Values) error {
	return f(ctx, params)
}

// NotifyKind is the severity of a user-visible notification.
type NotifyKind string

const (
	NotifySuccess NotifyKind = "success"
	NotifyError   NotifyKind = "error"
	NotifyWarning NotifyKind = "warning"
)

// Notifier shows feedback to the user.
type Notifier interface {
	Notify(kind NotifyKind, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind NotifyKind, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(kind NotifyKind, message string) {
	f(kind, message)
}

type discardNotifier struct{}

func (discardNotifier) Notify(NotifyKind, string) {}

// Toggler changes the status of a single row.
type Toggler[T any] interface {
	Toggle(ctx context.Context, row T, next bool) error
}
