package listview

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
)

// --- test fixtures ---

type item struct {
	ID       int
	Name     string
	Code     string
	Category string
	Status   bool
}

func itemID(it item) int { return it.ID }

var itemSelectors = Selectors[item]{
	Search:   func(it item) []string { return []string{it.Name, it.Code} },
	Status:   func(it item) bool { return it.Status },
	Category: func(it item) string { return it.Category },
}

var itemStatus = StatusField[item]{
	Get: func(it item) bool { return it.Status },
	Set: func(it item, s bool) item { it.Status = s; return it },
}

var itemColumns = []Column[item]{
	{Key: "id", Label: "ID", Accessor: func(it item) string { return strconv.Itoa(it.ID) }},
	{Key: "name", Label: "Name", Accessor: func(it item) string { return it.Name }, PDFWidth: 30},
	{Key: "status", Label: "Status", Accessor: func(it item) string {
		if it.Status {
			return "Active"
		}
		return "Inactive"
	}},
}

func makeItems(n int) []item {
	items := make([]item, n)
	for i := range items {
		items[i] = item{ID: i + 1, Name: "item " + strconv.Itoa(i+1), Status: i%2 == 0}
	}
	return items
}

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// --- mock collaborators ---

type bulkCall struct {
	kind   BulkKind
	ids    []int
	status bool
}

type mockBulk struct {
	mu        sync.Mutex
	calls     []bulkCall
	deleteErr error
	statusErr error
	// block, when non-nil, is waited on inside every call.
	block   chan struct{}
	entered chan struct{}
}

func (m *mockBulk) wait() {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
}

func (m *mockBulk) BulkDelete(_ context.Context, ids []int) error {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, bulkCall{kind: BulkDelete, ids: append([]int(nil), ids...)})
	return m.deleteErr
}

func (m *mockBulk) BulkUpdateStatus(_ context.Context, ids []int, status bool) error {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, bulkCall{kind: BulkStatus, ids: append([]int(nil), ids...), status: status})
	return m.statusErr
}

type notification struct {
	kind    NotifyKind
	message string
}

type recordingNotifier struct {
	got []notification
}

func (r *recordingNotifier) Notify(kind NotifyKind, message string) {
	r.got = append(r.got, notification{kind: kind, message: message})
}

func (r *recordingNotifier) count(kind NotifyKind) int {
	n := 0
	for _, g := range r.got {
		if g.kind == kind {
			n++
		}
	}
	return n
}

type recordingNavigator struct {
	calls []url.Values
	err   error
}

func (r *recordingNavigator) Navigate(_ context.Context, params url.Values) error {
	r.calls = append(r.calls, params)
	return r.err
}

// memorySource serves pages out of an in-memory collection, honoring filters
// and pagination like the server does.
type memorySource struct {
	items   []item
	err     error
	fetches int
	// limit caps GetAll like the server's export limit; zero means no cap.
	limit int
}

func (s *memorySource) FetchPage(_ context.Context, q Query) (Page[item], error) {
	s.fetches++
	if s.err != nil {
		return Page[item]{}, s.err
	}
	filtered := Apply(s.items, q.Filters, itemSelectors)
	per := q.Pagination.ItemsPerPage
	if per <= 0 {
		per = DefaultPerPage
	}
	page := max(q.Pagination.CurrentPage, 1)
	start := min((page-1)*per, len(filtered))
	end := min(start+per, len(filtered))
	return Page[item]{
		Rows:       append([]item(nil), filtered[start:end]...),
		Pagination: Pagination{TotalItems: len(filtered), ItemsPerPage: per, CurrentPage: page},
	}, nil
}

func (s *memorySource) BulkDelete(_ context.Context, del []int) error {
	set := idSet(del)
	kept := s.items[:0]
	for _, it := range s.items {
		if _, ok := set[it.ID]; !ok {
			kept = append(kept, it)
		}
	}
	s.items = kept
	return nil
}

func (s *memorySource) BulkUpdateStatus(_ context.Context, upd []int, status bool) error {
	set := idSet(upd)
	for i := range s.items {
		if _, ok := set[s.items[i].ID]; ok {
			s.items[i].Status = status
		}
	}
	return nil
}

func (s *memorySource) GetSelected(_ context.Context, sel []int) ([]item, error) {
	if s.err != nil {
		return nil, s.err
	}
	set := idSet(sel)
	var out []item
	for _, it := range s.items {
		if _, ok := set[it.ID]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *memorySource) GetAll(_ context.Context, f FilterState) ([]item, error) {
	if s.err != nil {
		return nil, s.err
	}
	all := Apply(s.items, f, itemSelectors)
	if s.limit > 0 && len(all) > s.limit {
		return all[:s.limit], &TruncatedError{Returned: s.limit, Total: len(all)}
	}
	return all, nil
}

var errRemote = errors.New("remote unavailable")
