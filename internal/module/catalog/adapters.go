package catalog

import (
	"context"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/catalogadmin/internal/listview"
	"github.com/simp-lee/catalogadmin/internal/middleware"
	"github.com/simp-lee/catalogadmin/internal/pkg"
)

// serviceSource exposes a Service as the list engine's remote collection.
type serviceSource[T any] struct {
	svc  *Service[T]
	sort string
}

func (s serviceSource[T]) FetchPage(ctx context.Context, q listview.Query) (listview.Page[T], error) {
	lq := pkg.ListQueryFrom(q)
	if lq.Sort == "" {
		lq.Sort = s.sort
	}
	result, err := s.svc.List(ctx, lq)
	if err != nil {
		return listview.Page[T]{}, err
	}
	return pkg.ToListviewPage(result), nil
}

func (s serviceSource[T]) BulkDelete(ctx context.Context, ids []uint) error {
	_, err := s.svc.BulkDelete(ctx, ids)
	return err
}

func (s serviceSource[T]) BulkUpdateStatus(ctx context.Context, ids []uint, status bool) error {
	_, err := s.svc.BulkUpdateStatus(ctx, ids, status)
	return err
}

func (s serviceSource[T]) GetSelected(ctx context.Context, ids []uint) ([]T, error) {
	return s.svc.GetMany(ctx, ids)
}

func (s serviceSource[T]) GetAll(ctx context.Context, filters listview.FilterState) ([]T, error) {
	lq := pkg.ListQueryFrom(listview.Query{Filters: filters})
	lq.Sort = s.sort
	return s.svc.ListAll(ctx, lq)
}

// toastNotifier collects notifications raised while handling one request and
// sends them as a single htmx showToast event.
type toastNotifier struct {
	kind     listview.NotifyKind
	messages []string
}

func severity(kind listview.NotifyKind) int {
	switch kind {
	case listview.NotifyError:
		return 3
	case listview.NotifyWarning:
		return 2
	case listview.NotifySuccess:
		return 1
	}
	return 0
}

func (n *toastNotifier) Notify(kind listview.NotifyKind, message string) {
	n.messages = append(n.messages, message)
	if severity(kind) > severity(n.kind) {
		n.kind = kind
	}
}

// flush writes the collected toast, if any, to the response headers.
func (n *toastNotifier) flush(c *gin.Context) {
	if len(n.messages) == 0 {
		return
	}
	middleware.ShowToast(c, strings.Join(n.messages, ". "), string(n.kind))
}

// hxNavigator redirects the browser to base with the given query through the
// HX-Redirect response header.
type hxNavigator struct {
	c    *gin.Context
	base string
}

func (n hxNavigator) Navigate(_ context.Context, params url.Values) error {
	target := n.base
	if enc := params.Encode(); enc != "" {
		target += "?" + enc
	}
	n.c.Header(middleware.HXRedirect, target)
	return nil
}
