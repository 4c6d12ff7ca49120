// Package listview implements the list-resource engine shared by the catalog
// list screens: filtering, row selection, bulk actions, optimistic status
// toggles, server- or client-driven pagination, and export column projection.
//
// A ViewModel is not safe for concurrent use. It is driven from one logical
// thread (a request handler, a CLI command, a UI event loop) and suspends only
// inside calls to its collaborators.
package listview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

// Query parameter names carrying the filter state on navigation.
const (
	ParamSearch   = "search"
	ParamStatus   = "status"
	ParamCategory = "category"
	ParamSort     = "sort"
)

// ExportScope selects which rows an export covers.
type ExportScope int

const (
	// ExportLoaded exports the full local resource list.
	ExportLoaded ExportScope = iota
	// ExportSelected fetches the selected rows from the server.
	ExportSelected
	// ExportAll fetches every row matching the current filters.
	ExportAll
)

// String implements fmt.Stringer.
func (s ExportScope) String() string {
	switch s {
	case ExportSelected:
		return "selected"
	case ExportAll:
		return "all"
	default:
		return "loaded"
	}
}

// ParseExportScope converts "loaded", "selected", or "all" into an ExportScope.
func ParseExportScope(s string) (ExportScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "loaded", "page":
		return ExportLoaded, nil
	case "selected":
		return ExportSelected, nil
	case "all":
		return ExportAll, nil
	default:
		return ExportLoaded, domain.NewAppError(domain.CodeValidation,
			fmt.Sprintf("invalid export scope %q: must be one of loaded, selected, all", s), nil)
	}
}

// Config wires a ViewModel to its resource definition and collaborators.
type Config[T any, ID comparable] struct {
	// Name is the plural resource name used in notifications, e.g. "brands".
	Name      string
	ID        func(T) ID
	Selectors Selectors[T]
	Status    StatusField[T]
	// Normalize, when set, runs once per row on every resync and export fetch.
	Normalize func(T) T
	Columns   []Column[T]

	Mode    PaginationMode
	PerPage int
	// Page is the page to request first in ServerDriven mode, typically
	// parsed from the current URL.
	Page    Pagination
	Filters FilterState
	// Sort is the server-side order, e.g. "name:asc". It is passed through
	// on every fetch and navigation and never interpreted here.
	Sort string

	Source    Source[T]
	Bulk      BulkActions[ID]
	Exporter  Exporter[T, ID]
	Navigator Navigator
	Notifier  Notifier
	Logger    *slog.Logger
}

// ViewModel is the composition root of one list screen. It owns the
// authoritative row list; everything else reads snapshots.
type ViewModel[T any, ID comparable] struct {
	name      string
	rows      *Rows[T, ID]
	selectors Selectors[T]
	status    StatusField[T]
	normalize func(T) T
	columns   ExportColumns[T]

	filters   FilterState
	sort      string
	selection *Selection[ID]
	action    Action
	paginator *Paginator[T]
	bulk      *BulkCoordinator[T, ID]
	toggler   Toggler[T]

	source   Source[T]
	exporter Exporter[T, ID]
	notifier Notifier
	logger   *slog.Logger
}

// New validates cfg and returns an empty ViewModel. Call Load or Resync to
// seed it with server data.
func New[T any, ID comparable](cfg Config[T, ID]) (*ViewModel[T, ID], error) {
	if cfg.ID == nil {
		return nil, domain.NewAppError(domain.CodeValidation, "listview: id selector is required", nil)
	}
	if cfg.Selectors.Search == nil {
		return nil, domain.NewAppError(domain.CodeValidation, "listview: search selector is required", nil)
	}
	columns, err := Project(cfg.Columns)
	if err != nil {
		return nil, fmt.Errorf("listview: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "items"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = discardNotifier{}
	}

	vm := &ViewModel[T, ID]{
		name:      name,
		rows:      NewRows[T, ID](cfg.ID, nil),
		selectors: cfg.Selectors,
		status:    cfg.Status,
		normalize: cfg.Normalize,
		columns:   columns,
		filters:   cfg.Filters.normalized(),
		sort:      strings.TrimSpace(cfg.Sort),
		selection: NewSelection[ID](),
		action:    NoAction(),
		source:    cfg.Source,
		exporter:  cfg.Exporter,
		notifier:  notifier,
		logger:    logger.With(slog.String("resource", name)),
	}

	vm.paginator, err = NewPaginator[T](cfg.Mode, cfg.PerPage, cfg.Navigator, vm.filterParams)
	if err != nil {
		return nil, fmt.Errorf("listview: %w", err)
	}

	if cfg.Page.CurrentPage > 0 {
		vm.paginator.Sync(cfg.Page)
	}

	if cfg.Bulk != nil {
		vm.bulk = NewBulkCoordinator(cfg.Bulk, vm.rows, vm.selection, BulkOptions[T]{
			SetStatus: cfg.Status.Set,
			Resync:    vm.resync,
			Logger:    vm.logger,
		})
	}
	return vm, nil
}

// EnableStatusToggle installs an optimistic StatusToggle bound to vm's rows.
// vm must have been configured with a complete StatusField.
func EnableStatusToggle[T any, ID comparable, P any](vm *ViewModel[T, ID], prepare PrepareFunc[T, P], update UpdateFunc[ID, P]) *StatusToggle[T, ID, P] {
	t := NewStatusToggle(vm.rows, vm.status, prepare, update, vm.logger)
	vm.toggler = t
	return t
}

// SetToggler installs a custom single-row status toggler.
func (vm *ViewModel[T, ID]) SetToggler(t Toggler[T]) {
	vm.toggler = t
}

// Load fetches the current page from the Source and resyncs.
func (vm *ViewModel[T, ID]) Load(ctx context.Context) error {
	if err := vm.load(ctx); err != nil {
		vm.notifier.Notify(NotifyError, fmt.Sprintf("Failed to load %s", vm.name))
		return err
	}
	return nil
}

func (vm *ViewModel[T, ID]) load(ctx context.Context) error {
	if vm.source == nil {
		return domain.NewAppError(domain.CodeValidation, fmt.Sprintf("no source configured for %s", vm.name), nil)
	}
	page, err := vm.source.FetchPage(ctx, Query{Filters: vm.filters, Sort: vm.sort, Pagination: vm.paginator.Request()})
	if t, ok := AsTruncated(err); ok {
		vm.notifier.Notify(NotifyWarning, fmt.Sprintf("Showing only %d of %d %s", t.Returned, t.Total, vm.name))
	} else if err != nil {
		return fmt.Errorf("fetch %s: %w", vm.name, err)
	}
	vm.Resync(page)
	return nil
}

// resync is the coordinator's post-action hook. Without a Source there is
// nothing to resync from.
func (vm *ViewModel[T, ID]) resync(ctx context.Context) error {
	if vm.source == nil {
		return nil
	}
	return vm.load(ctx)
}

// Resync replaces the row list wholesale with page and mirrors its
// pagination. Selected ids that are no longer visible are dropped.
func (vm *ViewModel[T, ID]) Resync(page Page[T]) {
	vm.rows.Replace(vm.normalizeAll(page.Rows))
	vm.paginator.Sync(page.Pagination)
	vm.reconcile()
}

func (vm *ViewModel[T, ID]) normalizeAll(rows []T) []T {
	if vm.normalize == nil {
		return rows
	}
	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = vm.normalize(row)
	}
	return out
}

// reconcile keeps the selection a subset of the filtered rows and pulls a
// client-side page back into range.
func (vm *ViewModel[T, ID]) reconcile() {
	filtered := vm.Filtered()
	visible := make(map[ID]struct{}, len(filtered))
	for _, row := range filtered {
		visible[vm.rows.IDOf(row)] = struct{}{}
	}
	dropped := vm.selection.Retain(func(id ID) bool {
		_, ok := visible[id]
		return ok
	})
	if dropped > 0 {
		vm.logger.Debug("dropped selection outside filtered rows", slog.Int("count", dropped))
	}
	vm.paginator.Clamp(len(filtered))
}

// Rows returns a snapshot of the full local resource list.
func (vm *ViewModel[T, ID]) Rows() []T {
	return vm.rows.Snapshot()
}

// Store returns the authoritative row list, for wiring custom togglers.
func (vm *ViewModel[T, ID]) Store() *Rows[T, ID] {
	return vm.rows
}

// Filtered returns the rows matching the current filters.
func (vm *ViewModel[T, ID]) Filtered() []T {
	return Apply(vm.rows.Snapshot(), vm.filters, vm.selectors)
}

// Visible returns the filtered rows of the current page.
func (vm *ViewModel[T, ID]) Visible() []T {
	return vm.paginator.Paginate(vm.Filtered())
}

// Filters returns the current filter state.
func (vm *ViewModel[T, ID]) Filters() FilterState {
	return vm.filters
}

// SetFilters replaces the filter state.
func (vm *ViewModel[T, ID]) SetFilters(f FilterState) {
	vm.filters = f.normalized()
	vm.reconcile()
}

// SetSearchTerm sets the search term.
func (vm *ViewModel[T, ID]) SetSearchTerm(term string) {
	f := vm.filters
	f.SearchTerm = term
	vm.SetFilters(f)
}

// SetStatusFilter sets the status filter.
func (vm *ViewModel[T, ID]) SetStatusFilter(status StatusFilter) {
	f := vm.filters
	f.Status = status
	vm.SetFilters(f)
}

// SetCategoryFilter sets the category filter; "" or CategoryAll disables it.
func (vm *ViewModel[T, ID]) SetCategoryFilter(category string) {
	f := vm.filters
	f.Category = category
	vm.SetFilters(f)
}

func (vm *ViewModel[T, ID]) filterParams() url.Values {
	values := url.Values{}
	if term := strings.TrimSpace(vm.filters.SearchTerm); term != "" {
		values.Set(ParamSearch, term)
	}
	if _, ok := vm.filters.Status.Target(); ok {
		values.Set(ParamStatus, string(vm.filters.Status))
	}
	if vm.filters.categoryActive() {
		values.Set(ParamCategory, vm.filters.Category)
	}
	if vm.sort != "" {
		values.Set(ParamSort, vm.sort)
	}
	return values
}

// Sort returns the server-side sort order.
func (vm *ViewModel[T, ID]) Sort() string {
	return vm.sort
}

// Select replaces the selection with the given ids, ignoring ids of rows that
// are not in the filtered view. It returns the number of ids accepted.
func (vm *ViewModel[T, ID]) Select(ids []ID) int {
	visible := make(map[ID]struct{})
	for _, row := range vm.Filtered() {
		visible[vm.rows.IDOf(row)] = struct{}{}
	}
	kept := make([]ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := visible[id]; ok {
			kept = append(kept, id)
		}
	}
	vm.selection.Select(kept)
	return vm.selection.Len()
}

// SelectVisible selects every row on the current page.
func (vm *ViewModel[T, ID]) SelectVisible() int {
	visible := vm.Visible()
	ids := make([]ID, len(visible))
	for i, row := range visible {
		ids[i] = vm.rows.IDOf(row)
	}
	vm.selection.Select(ids)
	return vm.selection.Len()
}

// ClearSelection empties the selection and flips the clear signal.
func (vm *ViewModel[T, ID]) ClearSelection() {
	vm.selection.Clear()
}

// Selection returns the selection state.
func (vm *ViewModel[T, ID]) Selection() SelectionState[ID] {
	return vm.selection.State()
}

// Action returns the bulk action state.
func (vm *ViewModel[T, ID]) Action() Action {
	return vm.action
}

// SetAction replaces the bulk action state.
func (vm *ViewModel[T, ID]) SetAction(a Action) {
	vm.action = a
}

// SetActionKind transitions the bulk action selector to kind.
func (vm *ViewModel[T, ID]) SetActionKind(kind ActionKind) {
	vm.action = vm.action.WithKind(kind)
}

// SetActionStatus sets the status sub-filter of a Status action.
func (vm *ViewModel[T, ID]) SetActionStatus(sub StatusFilter) error {
	a, err := vm.action.WithStatus(sub)
	if err != nil {
		return err
	}
	vm.action = a
	return nil
}

// CanApply reports whether the Apply control should be enabled.
func (vm *ViewModel[T, ID]) CanApply() bool {
	return vm.bulk != nil && !vm.bulk.Pending() && vm.selection.Len() > 0 && vm.action.Ready()
}

// BulkApply runs the current bulk action over the selection and reports the
// result through the Notifier. On success the action selector returns to
// NoAction.
func (vm *ViewModel[T, ID]) BulkApply(ctx context.Context) error {
	if vm.bulk == nil {
		return domain.NewAppError(domain.CodeValidation, fmt.Sprintf("bulk actions are not available for %s", vm.name), nil)
	}
	if vm.selection.Len() == 0 {
		vm.notifier.Notify(NotifyWarning, fmt.Sprintf("Select at least one of the %s first", vm.name))
		return nil
	}

	out, err := vm.bulk.Apply(ctx, vm.action)
	switch {
	case err == nil:
		vm.reconcile()
	case IsResyncError(err):
		vm.reconcile()
		vm.action = NoAction()
		vm.notifier.Notify(NotifySuccess, vm.bulkMessage(out))
		vm.notifier.Notify(NotifyWarning, fmt.Sprintf("Could not refresh %s", vm.name))
		return err
	case domain.IsValidation(err), domain.IsConflict(err):
		vm.notifier.Notify(NotifyWarning, userMessage(err))
		return err
	default:
		vm.notifier.Notify(NotifyError, vm.bulkFailure(out.Request))
		return err
	}

	vm.action = NoAction()
	if out.Dispatched {
		vm.notifier.Notify(NotifySuccess, vm.bulkMessage(out))
	}
	return nil
}

func (vm *ViewModel[T, ID]) bulkMessage(out BulkOutcome[ID]) string {
	n := len(out.Request.IDs)
	if out.Request.Kind == BulkDelete {
		return fmt.Sprintf("Deleted %d %s", n, vm.name)
	}
	label := StatusInactive
	if out.Request.TargetStatus {
		label = StatusActive
	}
	return fmt.Sprintf("Marked %d %s as %s", n, vm.name, label)
}

func (vm *ViewModel[T, ID]) bulkFailure(req BulkRequest[ID]) string {
	if req.Kind == BulkDelete {
		return fmt.Sprintf("Failed to delete the selected %s", vm.name)
	}
	return fmt.Sprintf("Failed to update the status of the selected %s", vm.name)
}

// ToggleStatus sets a single row's status optimistically. A failure rolls
// the row back and is notified once.
func (vm *ViewModel[T, ID]) ToggleStatus(ctx context.Context, row T, next bool) error {
	if vm.toggler == nil {
		return domain.NewAppError(domain.CodeValidation, fmt.Sprintf("status toggling is not available for %s", vm.name), nil)
	}
	err := vm.toggler.Toggle(ctx, row, next)
	vm.reconcile()
	if err != nil {
		vm.notifier.Notify(NotifyError, "Failed to update status")
		return err
	}
	vm.notifier.Notify(NotifySuccess, "Status updated")
	return nil
}

// ExportColumns returns the display, CSV, and PDF column projections.
func (vm *ViewModel[T, ID]) ExportColumns() ExportColumns[T] {
	return vm.columns
}

// ExportRows returns the rows an export of the given scope covers.
func (vm *ViewModel[T, ID]) ExportRows(ctx context.Context, scope ExportScope) ([]T, error) {
	rows, err := vm.exportRows(ctx, scope)
	if err != nil {
		if domain.IsValidation(err) {
			vm.notifier.Notify(NotifyWarning, userMessage(err))
		} else {
			vm.notifier.Notify(NotifyError, fmt.Sprintf("Failed to export %s", vm.name))
		}
		return nil, err
	}
	return rows, nil
}

func (vm *ViewModel[T, ID]) exportRows(ctx context.Context, scope ExportScope) ([]T, error) {
	switch scope {
	case ExportLoaded:
		return vm.rows.Snapshot(), nil
	case ExportSelected:
		ids := vm.selection.IDs()
		if len(ids) == 0 {
			return nil, domain.NewAppError(domain.CodeValidation, fmt.Sprintf("select at least one of the %s to export", vm.name), nil)
		}
		if vm.exporter == nil {
			return vm.localRows(ids), nil
		}
		rows, err := vm.exporter.GetSelected(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("export selected %s: %w", vm.name, err)
		}
		return vm.normalizeAll(rows), nil
	case ExportAll:
		if vm.exporter == nil {
			return nil, domain.NewAppError(domain.CodeValidation, fmt.Sprintf("exporting all %s is not available", vm.name), nil)
		}
		rows, err := vm.exporter.GetAll(ctx, vm.filters)
		if t, ok := AsTruncated(err); ok {
			vm.notifier.Notify(NotifyWarning, fmt.Sprintf("Exported only %d of %d %s, the export limit was reached", t.Returned, t.Total, vm.name))
			err = nil
		}
		if err != nil {
			return nil, fmt.Errorf("export all %s: %w", vm.name, err)
		}
		return vm.normalizeAll(rows), nil
	default:
		return nil, domain.NewAppError(domain.CodeValidation, fmt.Sprintf("unknown export scope %d", scope), nil)
	}
}

func (vm *ViewModel[T, ID]) localRows(ids []ID) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if row, ok := vm.rows.Find(id); ok {
			out = append(out, row)
		}
	}
	return out
}

// Mode returns the pagination mode.
func (vm *ViewModel[T, ID]) Mode() PaginationMode {
	return vm.paginator.Mode()
}

// PageState returns the pagination to render.
func (vm *ViewModel[T, ID]) PageState() Pagination {
	return vm.paginator.State(len(vm.Filtered()))
}

// OnChangePage moves to page. In server-driven mode this navigates and the
// caller resyncs once the new page arrives.
func (vm *ViewModel[T, ID]) OnChangePage(ctx context.Context, page int) error {
	if err := vm.paginator.OnChangePage(ctx, page); err != nil {
		return err
	}
	vm.paginator.Clamp(len(vm.Filtered()))
	return nil
}

// OnChangeRowsPerPage changes the page size and returns to the first page.
func (vm *ViewModel[T, ID]) OnChangeRowsPerPage(ctx context.Context, perPage int) error {
	return vm.paginator.OnChangeRowsPerPage(ctx, perPage)
}

// State is a render-ready snapshot of a ViewModel.
type State[T any, ID comparable] struct {
	Rows         []T
	Filters      FilterState
	Selection    SelectionState[ID]
	ActionKind   ActionKind
	ActionStatus StatusFilter
	CanApply     bool
	Pagination   Pagination
	Mode         PaginationMode
}

// State returns a render-ready snapshot.
func (vm *ViewModel[T, ID]) State() State[T, ID] {
	return State[T, ID]{
		Rows:         vm.Visible(),
		Filters:      vm.filters,
		Selection:    vm.selection.State(),
		ActionKind:   vm.action.Kind(),
		ActionStatus: vm.action.SubStatus(),
		CanApply:     vm.CanApply(),
		Pagination:   vm.PageState(),
		Mode:         vm.paginator.Mode(),
	}
}

// userMessage returns the message of an *domain.AppError, or err's text.
func userMessage(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
