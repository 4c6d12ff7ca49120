package pkg

import (
	"database/sql/driver"
	"strings"

	sqlite "github.com/glebarez/go-sqlite"
	"gorm.io/gorm"
)

// foldFunc is a SQLite scalar function that lower-cases text with Go's
// Unicode rules. SQLite's own LOWER only folds ASCII letters.
const foldFunc = "casefold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// lowerExpr lower-cases expr the way strings.ToLower does for the dialect
// behind db.
func lowerExpr(db *gorm.DB, expr string) string {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return foldFunc + "(" + expr + ")"
	}
	return "LOWER(" + expr + ")"
}
