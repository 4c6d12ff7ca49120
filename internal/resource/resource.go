// Package resource declares the list screens of the catalog: which columns
// each entity shows, which fields its filters look at, and how rows are
// normalized before display.
package resource

import (
	"github.com/simp-lee/catalogadmin/internal/listview"
)

// Entity is a catalog row addressable by a numeric primary key.
type Entity interface {
	GetID() uint
}

// Definition describes the list screen of one entity type.
type Definition[T Entity] struct {
	// Name is the plural, URL-safe resource name, e.g. "brands".
	Name string
	// Title is the heading shown above the list.
	Title     string
	Singular  string
	Columns   []listview.Column[T]
	Selectors listview.Selectors[T]
	Status    listview.StatusField[T]
	Normalize func(T) T
}

// ID returns the primary key of row.
func ID[T Entity](row T) uint {
	return row.GetID()
}

// ViewConfig returns a listview configuration seeded with d. Callers add the
// pagination mode and collaborators.
func (d Definition[T]) ViewConfig() listview.Config[T, uint] {
	return listview.Config[T, uint]{
		Name:      d.Name,
		ID:        ID[T],
		Selectors: d.Selectors,
		Status:    d.Status,
		Normalize: d.Normalize,
		Columns:   d.Columns,
	}
}

// ExportColumns projects d's columns. Definitions are static, so an invalid
// column list is a programming error.
func (d Definition[T]) ExportColumns() listview.ExportColumns[T] {
	return listview.MustProject(d.Columns)
}

// HasCategory reports whether the screen offers a category filter.
func (d Definition[T]) HasCategory() bool {
	return d.Selectors.Category != nil
}

// Link is a navigation entry for one list screen.
type Link struct {
	Name  string
	Title string
	URL   string
}

func (d Definition[T]) link() Link {
	return Link{Name: d.Name, Title: d.Title, URL: "/" + d.Name}
}

// Links lists the catalog screens in navigation order.
func Links() []Link {
	return []Link{Brands().link(), Categories().link(), Products().link()}
}
