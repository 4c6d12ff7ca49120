package listview

import "slices"

// Rows is the authoritative in-memory resource list of a list screen.
//
// It is replaced wholesale on every resynchronization and mutated in place
// only by the bulk coordinator and the status toggle.
type Rows[T any, ID comparable] struct {
	items []T
	id    func(T) ID
}

// NewRows returns a Rows holding a copy of items, keyed by id.
func NewRows[T any, ID comparable](id func(T) ID, items []T) *Rows[T, ID] {
	if id == nil {
		panic("listview.NewRows: id selector must not be nil")
	}
	return &Rows[T, ID]{items: slices.Clone(items), id: id}
}

// IDOf returns the identifier of row.
func (r *Rows[T, ID]) IDOf(row T) ID {
	return r.id(row)
}

// Snapshot returns a copy of the current rows.
func (r *Rows[T, ID]) Snapshot() []T {
	out := slices.Clone(r.items)
	if out == nil {
		out = []T{}
	}
	return out
}

// Len returns the number of rows.
func (r *Rows[T, ID]) Len() int {
	return len(r.items)
}

// Replace swaps in a copy of items.
func (r *Rows[T, ID]) Replace(items []T) {
	r.items = slices.Clone(items)
}

// Find returns the row with the given id.
func (r *Rows[T, ID]) Find(id ID) (T, bool) {
	for _, row := range r.items {
		if r.id(row) == id {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// Has reports whether a row with the given id exists.
func (r *Rows[T, ID]) Has(id ID) bool {
	_, ok := r.Find(id)
	return ok
}

// Patch replaces the row with the given id by fn(row).
// It reports false when no such row exists.
func (r *Rows[T, ID]) Patch(id ID, fn func(T) T) bool {
	found := false
	for i, row := range r.items {
		if r.id(row) == id {
			r.items[i] = fn(row)
			found = true
		}
	}
	return found
}

// PatchAll applies fn to every row whose id is in ids and returns the number
// of rows patched.
func (r *Rows[T, ID]) PatchAll(ids []ID, fn func(T) T) int {
	set := idSet(ids)
	n := 0
	for i, row := range r.items {
		if _, ok := set[r.id(row)]; ok {
			r.items[i] = fn(row)
			n++
		}
	}
	return n
}

// Remove deletes every row whose id is in ids and returns the number removed.
func (r *Rows[T, ID]) Remove(ids []ID) int {
	set := idSet(ids)
	before := len(r.items)
	r.items = slices.DeleteFunc(r.items, func(row T) bool {
		_, ok := set[r.id(row)]
		return ok
	})
	return before - len(r.items)
}

func idSet[ID comparable](ids []ID) map[ID]struct{} {
	set := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
