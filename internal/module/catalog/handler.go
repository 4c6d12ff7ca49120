package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/listview"
	"github.com/simp-lee/catalogadmin/internal/pkg"
	"github.com/simp-lee/catalogadmin/internal/resource"
)

// Handler handles REST API requests for one catalog resource.
type Handler[T resource.Entity, R Request[T]] struct {
	svc    *Service[T]
	def    resource.Definition[T]
	limits pkg.PageLimits
	now    func() time.Time
}

// NewHandler creates a Handler over svc.
func NewHandler[T resource.Entity, R Request[T]](svc *Service[T], def resource.Definition[T], limits pkg.PageLimits) *Handler[T, R] {
	return &Handler[T, R]{svc: svc, def: def, limits: limits, now: time.Now}
}

// Register mounts the resource routes on g.
func (h *Handler[T, R]) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/all", h.All)
	g.GET("/export.csv", h.Export)
	g.POST("/bulk/delete", h.BulkDelete)
	g.POST("/bulk/status", h.BulkStatus)
	g.POST("/bulk/get", h.BulkGet)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.DELETE("/:id", h.Delete)
}

// List handles GET /api/v1/<resource>.
func (h *Handler[T, R]) List(c *gin.Context) {
	q, err := pkg.ParseListQuery(c, h.limits)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	result, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, result)
}

// All handles GET /api/v1/<resource>/all. It ignores pagination and returns
// every row matching the filters, up to the export limit.
func (h *Handler[T, R]) All(c *gin.Context) {
	q, err := pkg.ParseListQuery(c, h.limits)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	items, err := h.svc.ListAll(c.Request.Context(), q)
	if err = markTruncated(c, err); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, items)
}

// markTruncated turns a truncated listing into the HeaderTotalCount response
// header. Any other error is returned unchanged.
func markTruncated(c *gin.Context, err error) error {
	t, ok := listview.AsTruncated(err)
	if !ok {
		return err
	}
	c.Header(listview.HeaderTotalCount, strconv.Itoa(t.Total))
	return nil
}

// Get handles GET /api/v1/<resource>/:id.
func (h *Handler[T, R]) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	item, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, item)
}

// Create handles POST /api/v1/<resource>.
func (h *Handler[T, R]) Create(c *gin.Context) {
	var req R
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	var entity T
	req.Apply(&entity)
	item, err := h.svc.Create(c.Request.Context(), &entity)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, item)
}

// Update handles PUT /api/v1/<resource>/:id.
func (h *Handler[T, R]) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	var req R
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	item, err := h.svc.Update(c.Request.Context(), id, req.Apply)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, item)
}

// UpdateStatus handles PATCH /api/v1/<resource>/:id/status.
func (h *Handler[T, R]) UpdateStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	var req StatusRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), id, *req.Status); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, nil)
}

// Delete handles DELETE /api/v1/<resource>/:id.
func (h *Handler[T, R]) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, nil)
}

// BulkDelete handles POST /api/v1/<resource>/bulk/delete.
func (h *Handler[T, R]) BulkDelete(c *gin.Context) {
	var req BulkIDsRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	result, err := h.svc.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, result)
}

// BulkStatus handles POST /api/v1/<resource>/bulk/status.
func (h *Handler[T, R]) BulkStatus(c *gin.Context) {
	var req BulkStatusRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	result, err := h.svc.BulkUpdateStatus(c.Request.Context(), req.IDs, *req.Status)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, result)
}

// BulkGet handles POST /api/v1/<resource>/bulk/get.
func (h *Handler[T, R]) BulkGet(c *gin.Context) {
	var req BulkIDsRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	items, err := h.svc.GetMany(c.Request.Context(), req.IDs)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, items)
}

// Export handles GET /api/v1/<resource>/export.csv.
//
// scope=all (the default) exports every row matching the filters;
// scope=selected exports the rows named by ids.
func (h *Handler[T, R]) Export(c *gin.Context) {
	scope := listview.ExportAll
	if s := c.Query("scope"); s != "" {
		parsed, err := listview.ParseExportScope(s)
		if err != nil {
			pkg.Error(c, err)
			return
		}
		scope = parsed
	}

	var (
		rows []T
		err  error
	)
	switch scope {
	case listview.ExportSelected:
		ids, perr := parseIDList(c.QueryArray("ids"))
		if perr != nil {
			pkg.Error(c, perr)
			return
		}
		rows, err = h.svc.GetMany(c.Request.Context(), ids)
	case listview.ExportAll:
		q, qerr := pkg.ParseListQuery(c, h.limits)
		if qerr != nil {
			pkg.Error(c, qerr)
			return
		}
		rows, err = h.svc.ListAll(c.Request.Context(), q)
		err = markTruncated(c, err)
	default:
		err = domain.NewAppError(domain.CodeValidation, "scope must be all or selected", nil)
	}
	if err != nil {
		pkg.Error(c, err)
		return
	}

	rows = normalizeRows(rows, h.def.Normalize)
	filename := pkg.ExportFilename(h.def.Name, h.now())
	if err := pkg.CSVAttachment(c, filename, h.def.ExportColumns(), rows); err != nil {
		_ = c.Error(err)
	}
}

func normalizeRows[T any](rows []T, normalize func(T) T) []T {
	if normalize == nil {
		return rows
	}
	for i := range rows {
		rows[i] = normalize(rows[i])
	}
	return rows
}

// parseID extracts and validates the "id" URL parameter.
func parseID(c *gin.Context) (uint, error) {
	return parseUint(c.Param("id"))
}

func parseUint(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	if id > uint64(^uint(0)) {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	return uint(id), nil
}

// parseIDList accepts repeated and comma-separated id values.
func parseIDList(values []string) ([]uint, error) {
	var ids []uint
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseUint(part)
			if err != nil {
				return nil, domain.NewAppError(domain.CodeValidation, err.Error(), nil)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, domain.NewAppError(domain.CodeValidation, "ids must not be empty", nil)
	}
	return ids, nil
}
