package listview

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

// Query parameter names written by server-driven pagination.
const (
	ParamPage     = "page"
	ParamPageSize = "page_size"
)

// DefaultPerPage is the page size used when none is configured.
const DefaultPerPage = 10

// Pagination is the server's view of total and paged record counts.
type Pagination struct {
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
	CurrentPage  int `json:"current_page"`
}

// TotalPages returns the number of pages, at least 1.
func (p Pagination) TotalPages() int {
	if p.ItemsPerPage <= 0 || p.TotalItems <= 0 {
		return 1
	}
	return (p.TotalItems + p.ItemsPerPage - 1) / p.ItemsPerPage
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool {
	return p.CurrentPage > 1
}

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool {
	return p.CurrentPage < p.TotalPages()
}

// normalized enforces CurrentPage >= 1 and ItemsPerPage > 0.
func (p Pagination) normalized(perPage int) Pagination {
	if p.ItemsPerPage <= 0 {
		p.ItemsPerPage = perPage
	}
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	if p.TotalItems < 0 {
		p.TotalItems = 0
	}
	return p
}

// PaginationMode selects who slices the rows.
type PaginationMode int

const (
	// ServerDriven mirrors the server's pagination; rows arrive already
	// sliced and page changes are requested through the Navigator.
	ServerDriven PaginationMode = iota
	// ClientDriven owns page state locally and slices the filtered rows.
	ClientDriven
)

// String implements fmt.Stringer.
func (m PaginationMode) String() string {
	if m == ClientDriven {
		return "client"
	}
	return "server"
}

// ParsePaginationMode converts "server" or "client" into a PaginationMode.
func ParsePaginationMode(s string) (PaginationMode, error) {
	switch s {
	case "", "server":
		return ServerDriven, nil
	case "client":
		return ClientDriven, nil
	default:
		return ServerDriven, domain.NewAppError(domain.CodeValidation,
			fmt.Sprintf("invalid pagination mode %q: must be %q or %q", s, "server", "client"), nil)
	}
}

// Paginator reconciles server-driven and client-driven pagination.
// The two modes are exclusive: in ServerDriven mode Paginate never slices.
type Paginator[T any] struct {
	mode    PaginationMode
	server  Pagination
	page    int
	perPage int
	nav     Navigator
	params  func() url.Values
}

// NewPaginator creates a Paginator. ServerDriven mode requires a Navigator.
// params, when non-nil, supplies query parameters to carry along on navigation.
func NewPaginator[T any](mode PaginationMode, perPage int, nav Navigator, params func() url.Values) (*Paginator[T], error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if mode == ServerDriven && nav == nil {
		return nil, domain.NewAppError(domain.CodeValidation, "server-driven pagination needs a navigator", nil)
	}
	return &Paginator[T]{
		mode:    mode,
		server:  Pagination{ItemsPerPage: perPage, CurrentPage: 1},
		page:    1,
		perPage: perPage,
		nav:     nav,
		params:  params,
	}, nil
}

// Mode returns the pagination mode.
func (p *Paginator[T]) Mode() PaginationMode {
	return p.mode
}

// Sync mirrors pagination metadata received from the server.
// It is ignored in ClientDriven mode, where page state is local.
func (p *Paginator[T]) Sync(meta Pagination) {
	if p.mode != ServerDriven {
		return
	}
	p.server = meta.normalized(p.perPage)
}

// Request returns the pagination to ask the server for.
func (p *Paginator[T]) Request() Pagination {
	if p.mode == ServerDriven {
		return p.server
	}
	return Pagination{ItemsPerPage: p.perPage, CurrentPage: p.page}
}

// Paginate returns the rows to display. In ServerDriven mode rows is returned
// as is; in ClientDriven mode the current page is sliced out of rows.
func (p *Paginator[T]) Paginate(rows []T) []T {
	if p.mode == ServerDriven {
		return rows
	}
	start := (p.page - 1) * p.perPage
	if start >= len(rows) {
		return []T{}
	}
	end := min(start+p.perPage, len(rows))
	return rows[start:end]
}

// Clamp pulls the client-side page back into range after the filtered row
// count shrank. It reports whether the page changed. ServerDriven mode leaves
// clamping to the server.
func (p *Paginator[T]) Clamp(filtered int) bool {
	if p.mode != ClientDriven || p.page == 1 {
		return false
	}
	if (p.page-1)*p.perPage < filtered {
		return false
	}
	last := Pagination{TotalItems: filtered, ItemsPerPage: p.perPage}.TotalPages()
	changed := p.page != last
	p.page = last
	return changed
}

// State returns the pagination to render for a filtered row count.
func (p *Paginator[T]) State(filtered int) Pagination {
	if p.mode == ServerDriven {
		return p.server
	}
	return Pagination{TotalItems: filtered, ItemsPerPage: p.perPage, CurrentPage: p.page}
}

// OnChangePage moves to page. In ServerDriven mode only the URL changes; the
// new rows arrive with the next resync.
func (p *Paginator[T]) OnChangePage(ctx context.Context, page int) error {
	if page < 1 {
		return domain.NewAppError(domain.CodeValidation, fmt.Sprintf("invalid page %d: must be at least 1", page), nil)
	}
	if p.mode == ServerDriven {
		return p.navigate(ctx, page, p.server.ItemsPerPage)
	}
	p.page = page
	return nil
}

// OnChangeRowsPerPage changes the page size and returns to the first page.
func (p *Paginator[T]) OnChangeRowsPerPage(ctx context.Context, perPage int) error {
	if perPage <= 0 {
		return domain.NewAppError(domain.CodeValidation, fmt.Sprintf("invalid rows per page %d: must be positive", perPage), nil)
	}
	if p.mode == ServerDriven {
		return p.navigate(ctx, 1, perPage)
	}
	p.perPage = perPage
	p.page = 1
	return nil
}

func (p *Paginator[T]) navigate(ctx context.Context, page, perPage int) error {
	values := url.Values{}
	if p.params != nil {
		for k, v := range p.params() {
			values[k] = v
		}
	}
	values.Set(ParamPage, strconv.Itoa(page))
	values.Set(ParamPageSize, strconv.Itoa(perPage))
	if err := p.nav.Navigate(ctx, values); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}
