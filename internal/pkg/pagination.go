package pkg

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/listview"
)

const (
	defaultPage = 1
	defaultSort = "id:desc"
)

// PageLimits bounds the page size accepted from clients.
type PageLimits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultPageLimits is used when no limits are configured.
var DefaultPageLimits = PageLimits{DefaultPageSize: 20, MaxPageSize: 100}

// validFieldName matches only alphanumeric characters and underscores.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseListQuery extracts pagination, sorting, and filter parameters from the
// query string. Out-of-range page numbers and sizes fall back to defaults; an
// unknown status value is a validation error.
func ParseListQuery(c *gin.Context, limits PageLimits) (domain.ListQuery, error) {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = DefaultPageLimits.DefaultPageSize
	}
	if limits.MaxPageSize < limits.DefaultPageSize {
		limits.MaxPageSize = max(DefaultPageLimits.MaxPageSize, limits.DefaultPageSize)
	}

	page, _ := strconv.Atoi(c.DefaultQuery(listview.ParamPage, strconv.Itoa(defaultPage)))
	if page < 1 {
		page = defaultPage
	}

	pageSize, _ := strconv.Atoi(c.DefaultQuery(listview.ParamPageSize, strconv.Itoa(limits.DefaultPageSize)))
	if pageSize < 1 {
		pageSize = limits.DefaultPageSize
	}
	if pageSize > limits.MaxPageSize {
		pageSize = limits.MaxPageSize
	}

	q := domain.ListQuery{
		Page:     page,
		PageSize: pageSize,
		Sort:     c.DefaultQuery(listview.ParamSort, defaultSort),
		Search:   strings.TrimSpace(c.Query(listview.ParamSearch)),
		Category: strings.TrimSpace(c.Query(listview.ParamCategory)),
	}

	status, err := listview.ParseStatusFilter(c.Query(listview.ParamStatus))
	if err != nil {
		return q, err
	}
	if target, ok := status.Target(); ok {
		q.Status = &target
	}
	return q, nil
}

// FilterColumns names the columns the list filters apply to. An empty field
// disables the corresponding filter.
type FilterColumns struct {
	// Search columns are OR'd together with a case-insensitive LIKE.
	Search []string
	// SearchExprs are trusted SQL expressions searched like Search columns,
	// e.g. a correlated subquery for a related name.
	SearchExprs []string
	Status string
	// Category is a WHERE clause with a single placeholder for the category
	// value, e.g. "category_id IN (SELECT id FROM categories WHERE name = ?)".
	Category string
}

// Paginate returns a GORM scope that applies LIMIT and OFFSET based on the query.
func Paginate(q domain.ListQuery) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(q.Offset()).Limit(q.PageSize)
	}
}

// Sort returns a GORM scope that applies ORDER BY based on the query.
// Only field names present in the allowed list are accepted; others are silently ignored.
// Field names are validated against a strict pattern to prevent SQL injection.
func Sort(q domain.ListQuery, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field, direction, ok := strings.Cut(q.Sort, ":")
		if !ok {
			return db
		}
		field = strings.TrimSpace(field)
		direction = strings.ToLower(strings.TrimSpace(direction))

		if direction != "asc" && direction != "desc" {
			return db
		}
		if !validFieldName.MatchString(field) || !slices.Contains(allowed, field) {
			return db
		}
		return db.Order(field + " " + direction)
	}
}

// Filter returns a GORM scope applying the search, status, and category
// filters of q to the given columns. It is the database twin of listview.Apply.
func Filter(q domain.ListQuery, cols FilterColumns) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
			exprs := make([]string, 0, len(cols.Search)+len(cols.SearchExprs))
			for _, col := range cols.Search {
				if validFieldName.MatchString(col) {
					exprs = append(exprs, col)
				}
			}
			for _, expr := range cols.SearchExprs {
				exprs = append(exprs, "("+expr+")")
			}

			clauses := make([]string, 0, len(exprs))
			args := make([]any, 0, len(exprs))
			pattern := "%" + escapeLike(term) + "%"
			for _, expr := range exprs {
				clauses = append(clauses, lowerExpr(db, expr)+" LIKE ? ESCAPE '\\'")
				args = append(args, pattern)
			}
			if len(clauses) > 0 {
				db = db.Where("("+strings.Join(clauses, " OR ")+")", args...)
			}
		}
		if q.Status != nil && validFieldName.MatchString(cols.Status) {
			db = db.Where(cols.Status+" = ?", *q.Status)
		}
		if cols.Category != "" && q.Category != "" && q.Category != listview.CategoryAll {
			db = db.Where(cols.Category, q.Category)
		}
		return db
	}
}

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// NewPage creates a PageResult with computed TotalPages.
func NewPage[T any](items []T, total int64, q domain.ListQuery) *domain.PageResult[T] {
	totalPages := 0
	if q.PageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(q.PageSize)))
	}

	if items == nil {
		items = []T{}
	}

	return &domain.PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}
}

// ToListviewPage converts a PageResult into the engine's page shape.
func ToListviewPage[T any](r *domain.PageResult[T]) listview.Page[T] {
	return listview.Page[T]{
		Rows: r.Items,
		Pagination: listview.Pagination{
			TotalItems:   int(r.Total),
			ItemsPerPage: r.PageSize,
			CurrentPage:  r.Page,
		},
	}
}

// ListQueryFrom builds the server query matching an engine query.
func ListQueryFrom(q listview.Query) domain.ListQuery {
	lq := domain.ListQuery{
		Page:     q.Pagination.CurrentPage,
		PageSize: q.Pagination.ItemsPerPage,
		Sort:     q.Sort,
		Search:   strings.TrimSpace(q.Filters.SearchTerm),
		Category: q.Filters.Category,
	}
	if target, ok := q.Filters.Status.Target(); ok {
		lq.Status = &target
	}
	return lq
}
