package listview

import "slices"

// SelectionState is the render-facing view of a Selection.
//
// ClearSignal flips on every Clear so a renderer that keeps its own checkbox
// state can detect that it must reset.
type SelectionState[ID comparable] struct {
	SelectedIDs []ID `json:"selected_ids"`
	ClearSignal bool `json:"clear_signal"`
}

// Selection tracks the selected row identifiers of one list screen.
// Order of first selection is preserved; duplicates are dropped.
type Selection[ID comparable] struct {
	ids         []ID
	index       map[ID]struct{}
	clearSignal bool
}

// NewSelection returns an empty Selection.
func NewSelection[ID comparable]() *Selection[ID] {
	return &Selection[ID]{index: make(map[ID]struct{})}
}

// Select replaces the current selection with ids.
func (s *Selection[ID]) Select(ids []ID) {
	s.ids = s.ids[:0]
	clear(s.index)
	for _, id := range ids {
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

// Clear empties the selection and flips the clear signal.
func (s *Selection[ID]) Clear() {
	s.ids = s.ids[:0]
	clear(s.index)
	s.clearSignal = !s.clearSignal
}

// Retain drops every selected id for which keep returns false and reports how
// many were dropped. The clear signal is left untouched.
func (s *Selection[ID]) Retain(keep func(ID) bool) int {
	kept := s.ids[:0]
	dropped := 0
	for _, id := range s.ids {
		if keep(id) {
			kept = append(kept, id)
			continue
		}
		delete(s.index, id)
		dropped++
	}
	s.ids = kept
	return dropped
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection[ID]) IDs() []ID {
	return slices.Clone(s.ids)
}

// Len returns the number of selected ids.
func (s *Selection[ID]) Len() int {
	return len(s.ids)
}

// Contains reports whether id is selected.
func (s *Selection[ID]) Contains(id ID) bool {
	_, ok := s.index[id]
	return ok
}

// ClearSignal returns the current value of the clear signal.
func (s *Selection[ID]) ClearSignal() bool {
	return s.clearSignal
}

// State returns a snapshot for rendering.
func (s *Selection[ID]) State() SelectionState[ID] {
	ids := s.IDs()
	if ids == nil {
		ids = []ID{}
	}
	return SelectionState[ID]{SelectedIDs: ids, ClearSignal: s.clearSignal}
}
