package option

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/collections/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before it is executed.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type Operator string

const (
	Equal    Operator = "="
	NotEqual Operator = "<>"
	GT       Operator = ">"
	GTE      Operator = ">="
	LT       Operator = "<"
	LTE      Operator = "<="
	In       Operator = "IN"
	// Contains is a case-insensitive substring match.
	Contains Operator = "CONTAINS"
	IsNull   Operator = "IS NULL"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a single where clause. Field names must come from code, never from user input.
func ApplyOperator(cond Condition) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		switch cond.Operator {
		case Contains:
			value := strings.ToLower(strings.TrimSpace(fmt.Sprint(cond.Value)))
			return db.Where(fmt.Sprintf("LOWER(%s) LIKE ?", cond.Field), "%"+value+"%")
		case In:
			return db.Where(fmt.Sprintf("%s IN ?", cond.Field), cond.Value)
		case IsNull:
			return db.Where(fmt.Sprintf("%s IS NULL", cond.Field))
		case "":
			return db.Where(fmt.Sprintf("%s = ?", cond.Field), cond.Value)
		default:
			return db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), cond.Value)
		}
	})
}

// WithSortBy orders by field, newest first when desc is set.
func WithSortBy(field string, desc bool) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if desc {
			return db.Order(field + " desc")
		}
		return db.Order(field + " asc")
	})
}

// ApplyRange applies offset/limit pagination.
func ApplyRange(r pagination.Range) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		r = r.Normalize()
		return db.Offset(r.Offset).Limit(r.Limit)
	})
}

// ApplyLimit caps the result set, used by cursor pagination with limit+1 lookahead.
func ApplyLimit(limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}
