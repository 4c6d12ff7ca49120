package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/listview"
	"github.com/simp-lee/catalogadmin/internal/middleware"
	"github.com/simp-lee/catalogadmin/internal/pkg"
	"github.com/simp-lee/catalogadmin/internal/resource"
)

// tableTarget is the element id htmx swaps when only the table changes.
const tableTarget = "list-table"

// PageSizes are the rows-per-page choices offered on list pages.
var PageSizes = []int{10, 20, 50, 100}

// PageHandler renders the list page of one catalog resource and handles its
// htmx interactions. Every request builds a server-driven list view from the
// current URL, so the browser's query string is the only client state.
type PageHandler[T resource.Entity] struct {
	svc        *Service[T]
	def        resource.Definition[T]
	limits     pkg.PageLimits
	categories func(ctx context.Context) ([]string, error)
	now        func() time.Time
}

// NewPageHandler creates a PageHandler over svc.
func NewPageHandler[T resource.Entity](svc *Service[T], def resource.Definition[T], limits pkg.PageLimits) *PageHandler[T] {
	return &PageHandler[T]{svc: svc, def: def, limits: limits, now: time.Now}
}

// WithCategories sets the source of the category filter options.
func (h *PageHandler[T]) WithCategories(fn func(ctx context.Context) ([]string, error)) *PageHandler[T] {
	h.categories = fn
	return h
}

// Register mounts the page routes on g.
func (h *PageHandler[T]) Register(g *gin.RouterGroup) {
	g.GET("", h.ListPage)
	g.GET("/export.csv", h.Export)
	g.POST("/bulk", h.BulkHTMX)
	g.POST("/page", h.PageHTMX)
	g.POST("/page-size", h.PageSizeHTMX)
	g.POST("/:id/status", h.ToggleHTMX)
	g.DELETE("/:id", h.DeleteHTMX)
}

func (h *PageHandler[T]) baseURL() string {
	return "/" + h.def.Name
}

// view builds the list view for the current URL and loads its page.
func (h *PageHandler[T]) view(c *gin.Context, toast *toastNotifier) (*listview.ViewModel[T, uint], error) {
	q, err := pkg.ParseListQuery(c, h.limits)
	if err != nil {
		return nil, err
	}
	status, err := listview.ParseStatusFilter(c.Query(listview.ParamStatus))
	if err != nil {
		return nil, err
	}

	src := serviceSource[T]{svc: h.svc, sort: q.Sort}
	cfg := h.def.ViewConfig()
	cfg.Mode = listview.ServerDriven
	cfg.PerPage = q.PageSize
	cfg.Page = listview.Pagination{CurrentPage: q.Page, ItemsPerPage: q.PageSize}
	cfg.Filters = listview.FilterState{SearchTerm: q.Search, Status: status, Category: q.Category}
	cfg.Sort = c.Query(listview.ParamSort)
	cfg.Source = src
	cfg.Bulk = src
	cfg.Exporter = src
	cfg.Navigator = hxNavigator{c: c, base: h.baseURL()}
	cfg.Notifier = toast

	vm, err := listview.New(cfg)
	if err != nil {
		return nil, err
	}
	listview.EnableStatusToggle[T, uint, bool](vm,
		func(_ T, next bool) bool { return next },
		h.svc.UpdateStatus,
	)
	if err := vm.Load(c.Request.Context()); err != nil {
		return nil, err
	}
	return vm, nil
}

// rowView is one table row ready for the template.
type rowView struct {
	ID       uint
	Cells    []string
	Status   bool
	Selected bool
}

func (h *PageHandler[T]) data(c *gin.Context, vm *listview.ViewModel[T, uint]) gin.H {
	state := vm.State()
	header, records := vm.ExportColumns().DisplayTable(state.Rows)

	selected := make(map[uint]struct{}, len(state.Selection.SelectedIDs))
	for _, id := range state.Selection.SelectedIDs {
		selected[id] = struct{}{}
	}
	rows := make([]rowView, len(state.Rows))
	for i, r := range state.Rows {
		_, sel := selected[r.GetID()]
		rows[i] = rowView{
			ID:       r.GetID(),
			Cells:    records[i],
			Status:   h.def.Status.Get(r),
			Selected: sel,
		}
	}

	var categories []string
	if h.categories != nil && h.def.HasCategory() {
		var err error
		categories, err = h.categories(c.Request.Context())
		if err != nil {
			slog.WarnContext(c.Request.Context(), "load category options", slog.Any("error", err))
		}
	}

	return gin.H{
		"Title":         h.def.Title,
		"Singular":      h.def.Singular,
		"BaseURL":       h.baseURL(),
		"Headers":       header,
		"Rows":          rows,
		"Filters":       state.Filters,
		"Sort":          vm.Sort(),
		"Pagination":    state.Pagination,
		"Query":         stateQuery(state.Filters, vm.Sort(), state.Pagination).Encode(),
		"ActionKind":    state.ActionKind.String(),
		"ActionStatus":  string(state.ActionStatus),
		"HasCategory":   h.def.HasCategory(),
		"Categories":    categories,
		"StatusOptions": []listview.StatusFilter{listview.StatusAll, listview.StatusActive, listview.StatusInactive},
		"PageSizes":     PageSizes,
		"CSRFToken":     middleware.CSRFTokenFrom(c),
	}
}

// stateQuery encodes the filters, sort and page of a list view as URL
// parameters. An empty sort leaves the server default in place.
func stateQuery(f listview.FilterState, sort string, p listview.Pagination) url.Values {
	v := url.Values{}
	if f.SearchTerm != "" {
		v.Set(listview.ParamSearch, f.SearchTerm)
	}
	if f.Status != "" && f.Status != listview.StatusAll {
		v.Set(listview.ParamStatus, string(f.Status))
	}
	if f.Category != "" && f.Category != listview.CategoryAll {
		v.Set(listview.ParamCategory, f.Category)
	}
	if sort != "" {
		v.Set(listview.ParamSort, sort)
	}
	if p.CurrentPage > 0 {
		v.Set(listview.ParamPage, strconv.Itoa(p.CurrentPage))
	}
	if p.ItemsPerPage > 0 {
		v.Set(listview.ParamPageSize, strconv.Itoa(p.ItemsPerPage))
	}
	return v
}

func (h *PageHandler[T]) renderTable(c *gin.Context, vm *listview.ViewModel[T, uint], toast *toastNotifier) {
	toast.flush(c)
	c.HTML(http.StatusOK, "catalog/table.html", h.data(c, vm))
}

// fail reports err as a toast and tells htmx to leave the page alone.
func (h *PageHandler[T]) fail(c *gin.Context, toast *toastNotifier, err error, fallback string) {
	if len(toast.messages) == 0 {
		toast.Notify(listview.NotifyError, safePageErrorMessage(err, fallback))
	}
	toast.flush(c)
	middleware.KeepPage(c)
	c.Status(http.StatusOK)
}

// ListPage renders the list page, or just its table for htmx requests
// targeting the table.
// GET /<resource>
func (h *PageHandler[T]) ListPage(c *gin.Context) {
	toast := &toastNotifier{}
	vm, err := h.view(c, toast)
	if err != nil {
		if domain.IsValidation(err) {
			c.HTML(http.StatusBadRequest, "errors/400.html", gin.H{})
			return
		}
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
		return
	}

	if middleware.IsHTMX(c) && c.GetHeader(middleware.HXTarget) == tableTarget {
		c.HTML(http.StatusOK, "catalog/table.html", h.data(c, vm))
		return
	}
	c.HTML(http.StatusOK, "catalog/list.html", h.data(c, vm))
}

type bulkForm struct {
	Action       string `form:"action"`
	ActionStatus string `form:"action_status"`
	IDs          []uint `form:"ids"`
}

// BulkHTMX applies the chosen bulk action to the checked rows and re-renders
// the table.
// POST /<resource>/bulk
func (h *PageHandler[T]) BulkHTMX(c *gin.Context) {
	toast := &toastNotifier{}
	vm, err := h.view(c, toast)
	if err != nil {
		h.fail(c, toast, err, "Failed to load "+h.def.Name)
		return
	}

	var form bulkForm
	if err := c.ShouldBindWith(&form, binding.FormPost); err != nil {
		slog.Debug("bulk: bind error", "error", err)
		toast.Notify(listview.NotifyWarning, "Please check the selected rows")
		h.renderTable(c, vm, toast)
		return
	}

	vm.Select(form.IDs)
	action, err := listview.ActionFromFilters(form.Action, form.ActionStatus)
	if err != nil {
		toast.Notify(listview.NotifyWarning, safePageErrorMessage(err, "Choose a bulk action"))
		h.renderTable(c, vm, toast)
		return
	}
	vm.SetAction(action)
	if err := vm.BulkApply(c.Request.Context()); err != nil {
		slog.DebugContext(c.Request.Context(), "bulk action not applied",
			slog.String("resource", h.def.Name),
			slog.String("action", action.String()),
			slog.Any("error", err),
		)
	}
	h.renderTable(c, vm, toast)
}

// ToggleHTMX flips one row's status and re-renders the table.
// POST /<resource>/:id/status
func (h *PageHandler[T]) ToggleHTMX(c *gin.Context) {
	toast := &toastNotifier{}
	id, err := parseID(c)
	if err != nil {
		h.fail(c, toast, err, "Invalid "+h.def.Singular+" ID")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindWith(&req, binding.FormPost); err != nil {
		h.fail(c, toast, err, "Invalid status")
		return
	}

	vm, err := h.view(c, toast)
	if err != nil {
		h.fail(c, toast, err, "Failed to load "+h.def.Name)
		return
	}

	row, ok := vm.Store().Find(id)
	if !ok {
		got, err := h.svc.Get(c.Request.Context(), id)
		if err != nil {
			h.fail(c, toast, err, "Failed to update status")
			return
		}
		row = *got
	}
	_ = vm.ToggleStatus(c.Request.Context(), row, *req.Status)
	h.renderTable(c, vm, toast)
}

// PageHTMX moves to another page.
// POST /<resource>/page
func (h *PageHandler[T]) PageHTMX(c *gin.Context) {
	h.paginate(c, listview.ParamPage, func(ctx context.Context, vm *listview.ViewModel[T, uint], n int) error {
		return vm.OnChangePage(ctx, n)
	})
}

// PageSizeHTMX changes the rows per page and returns to the first page.
// POST /<resource>/page-size
func (h *PageHandler[T]) PageSizeHTMX(c *gin.Context) {
	h.paginate(c, listview.ParamPageSize, func(ctx context.Context, vm *listview.ViewModel[T, uint], n int) error {
		if n > h.limits.MaxPageSize && h.limits.MaxPageSize > 0 {
			n = h.limits.MaxPageSize
		}
		return vm.OnChangeRowsPerPage(ctx, n)
	})
}

func (h *PageHandler[T]) paginate(c *gin.Context, field string, change func(context.Context, *listview.ViewModel[T, uint], int) error) {
	toast := &toastNotifier{}
	n, err := strconv.Atoi(c.PostForm(field))
	if err != nil {
		h.fail(c, toast, domain.NewAppError(domain.CodeValidation, "invalid "+field, nil), "")
		return
	}
	vm, err := h.view(c, toast)
	if err != nil {
		h.fail(c, toast, err, "Failed to load "+h.def.Name)
		return
	}
	if err := change(c.Request.Context(), vm, n); err != nil {
		h.fail(c, toast, err, "Failed to change page")
		return
	}
	c.Status(http.StatusOK)
}

// Export downloads the rows of the requested scope as CSV.
// GET /<resource>/export.csv?scope=loaded|selected|all
func (h *PageHandler[T]) Export(c *gin.Context) {
	toast := &toastNotifier{}
	scope, err := listview.ParseExportScope(c.DefaultQuery("scope", listview.ExportAll.String()))
	if err != nil {
		c.String(http.StatusBadRequest, safePageErrorMessage(err, "Invalid export scope"))
		return
	}
	vm, err := h.view(c, toast)
	if err != nil {
		c.String(domain.HTTPStatusCode(err), safePageErrorMessage(err, "Failed to load "+h.def.Name))
		return
	}
	if scope == listview.ExportSelected {
		ids, err := parseIDList(c.QueryArray("ids"))
		if err != nil {
			c.String(http.StatusBadRequest, safePageErrorMessage(err, "Invalid ids"))
			return
		}
		vm.Select(ids)
	}

	rows, err := vm.ExportRows(c.Request.Context(), scope)
	if err != nil {
		c.String(domain.HTTPStatusCode(err), safePageErrorMessage(err, "Failed to export "+h.def.Name))
		return
	}
	toast.flush(c)
	if err := pkg.CSVAttachment(c, pkg.ExportFilename(h.def.Name, h.now()), vm.ExportColumns(), rows); err != nil {
		_ = c.Error(err)
	}
}

// DeleteHTMX removes one row.
// DELETE /<resource>/:id
func (h *PageHandler[T]) DeleteHTMX(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		middleware.KeepPage(c)
		middleware.ShowToast(c, "Invalid "+h.def.Singular+" ID", middleware.ToastError)
		c.Status(http.StatusOK)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		middleware.KeepPage(c)
		if domain.IsNotFound(err) {
			middleware.ShowToast(c, "The "+h.def.Singular+" does not exist or was already deleted", middleware.ToastError)
		} else {
			middleware.ShowToast(c, "Failed to delete the "+h.def.Singular, middleware.ToastError)
		}
		c.Status(http.StatusOK)
		return
	}

	middleware.ShowToast(c, "Deleted 1 "+h.def.Singular, middleware.ToastSuccess)
	c.Status(http.StatusOK)
}

// safePageErrorMessage returns the AppError message for user-facing codes
// and fallback for everything else.
func safePageErrorMessage(err error, fallback string) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Message != "" && appErr.Code.UserFacing() {
		return appErr.Message
	}
	return fallback
}
