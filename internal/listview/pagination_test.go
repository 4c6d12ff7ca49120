package listview

import (
	"context"
	"net/url"
	"slices"
	"testing"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

func TestPaginationTotalPages(t *testing.T) {
	tests := []struct {
		p    Pagination
		want int
	}{
		{Pagination{TotalItems: 0, ItemsPerPage: 10}, 1},
		{Pagination{TotalItems: 10, ItemsPerPage: 10}, 1},
		{Pagination{TotalItems: 11, ItemsPerPage: 10}, 2},
		{Pagination{TotalItems: 12, ItemsPerPage: 0}, 1},
	}
	for _, tt := range tests {
		if got := tt.p.TotalPages(); got != tt.want {
			t.Errorf("%+v.TotalPages() = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestNewPaginatorServerNeedsNavigator(t *testing.T) {
	if _, err := NewPaginator[item](ServerDriven, 10, nil, nil); !domain.IsValidation(err) {
		t.Errorf("err = %v, want validation error", err)
	}
	if _, err := NewPaginator[item](ClientDriven, 10, nil, nil); err != nil {
		t.Errorf("client mode without navigator: %v", err)
	}
}

func TestClientPaginationSlices(t *testing.T) {
	rows := makeItems(12)
	p, err := NewPaginator[item](ClientDriven, 5, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.OnChangePage(context.Background(), 2); err != nil {
		t.Fatal(err)
	}

	got := p.Paginate(rows)
	if !slices.Equal(ids(got), ids(rows[5:10])) {
		t.Errorf("page 2 = %v, want %v", ids(got), ids(rows[5:10]))
	}

	_ = p.OnChangePage(context.Background(), 3)
	if got := p.Paginate(rows); len(got) != 2 {
		t.Errorf("page 3 has %d rows, want 2", len(got))
	}

	if err := p.OnChangeRowsPerPage(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	if st := p.State(len(rows)); st.CurrentPage != 1 || st.ItemsPerPage != 4 || st.TotalPages() != 3 {
		t.Errorf("after rows-per-page change: %+v", st)
	}
}

func TestServerPaginationNeverSlices(t *testing.T) {
	nav := &recordingNavigator{}
	p, err := NewPaginator[item](ServerDriven, 5, nav, nil)
	if err != nil {
		t.Fatal(err)
	}
	p.Sync(Pagination{TotalItems: 12, ItemsPerPage: 5, CurrentPage: 2})

	rows := makeItems(5)
	if got := p.Paginate(rows); !slices.Equal(ids(got), ids(rows)) {
		t.Errorf("server mode sliced rows: %v", ids(got))
	}
	if st := p.State(3); st.TotalItems != 12 || st.CurrentPage != 2 {
		t.Errorf("State ignored server metadata: %+v", st)
	}
	if p.Clamp(0) {
		t.Error("server mode must not clamp")
	}
}

func TestServerPaginationNavigates(t *testing.T) {
	nav := &recordingNavigator{}
	params := func() url.Values { return url.Values{"search": {"acme"}} }
	p, err := NewPaginator[item](ServerDriven, 20, nav, params)
	if err != nil {
		t.Fatal(err)
	}
	p.Sync(Pagination{TotalItems: 100, ItemsPerPage: 20, CurrentPage: 1})

	if err := p.OnChangePage(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if err := p.OnChangeRowsPerPage(context.Background(), 50); err != nil {
		t.Fatal(err)
	}
	if len(nav.calls) != 2 {
		t.Fatalf("navigations = %d, want 2", len(nav.calls))
	}

	first, second := nav.calls[0], nav.calls[1]
	if first.Get(ParamPage) != "3" || first.Get(ParamPageSize) != "20" || first.Get("search") != "acme" {
		t.Errorf("page change navigated to %v", first)
	}
	if second.Get(ParamPage) != "1" || second.Get(ParamPageSize) != "50" {
		t.Errorf("rows-per-page change navigated to %v", second)
	}
	// Local state is untouched until the server answers.
	if st := p.State(0); st.CurrentPage != 1 || st.ItemsPerPage != 20 {
		t.Errorf("server state changed before resync: %+v", st)
	}
}

func TestPaginatorRejectsInvalidInput(t *testing.T) {
	p, _ := NewPaginator[item](ClientDriven, 5, nil, nil)
	if err := p.OnChangePage(context.Background(), 0); !domain.IsValidation(err) {
		t.Errorf("OnChangePage(0) err = %v", err)
	}
	if err := p.OnChangeRowsPerPage(context.Background(), -1); !domain.IsValidation(err) {
		t.Errorf("OnChangeRowsPerPage(-1) err = %v", err)
	}
}

func TestClientPaginationClamp(t *testing.T) {
	p, _ := NewPaginator[item](ClientDriven, 5, nil, nil)
	_ = p.OnChangePage(context.Background(), 3)

	if p.Clamp(11) {
		t.Error("page 3 of 11 rows is in range")
	}
	if !p.Clamp(7) {
		t.Error("page 3 of 7 rows should clamp")
	}
	if st := p.State(7); st.CurrentPage != 2 {
		t.Errorf("clamped to page %d, want 2", st.CurrentPage)
	}
}
