package option

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before it is executed.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type QueryOptionFunc func(*gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
	IN  Operator = "IN"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(cond Condition) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(cond.Field)
		if field == "" {
			return db
		}
		op := cond.Operator
		if op == "" {
			op = EQ
		}
		if op == IN {
			return db.Where(fmt.Sprintf("%s IN ?", field), cond.Value)
		}
		return db.Where(fmt.Sprintf("%s %s ?", field, op), cond.Value)
	})
}

type QuerySortBy struct {
	Field string
	Desc  bool
	Allow map[string]bool
}

// WithSortBy orders by an allow-listed column, defaulting to created_at desc.
func WithSortBy(sort QuerySortBy) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(sort.Field)
		if field == "" || !sort.Allow[field] {
			return db.Order("created_at desc").Order("id desc")
		}
		direction := "asc"
		if sort.Desc {
			direction = "desc"
		}
		return db.Order(fmt.Sprintf("%s %s", field, direction)).Order("id " + direction)
	})
}

func WithOrder(clause string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(clause)
	})
}

func WithLimit(limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

// ApplyPagination applies keyset pagination on (created_at, id) and fetches
// one extra row so callers can detect a following page.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if token := strings.TrimSpace(page.PageToken); token != "" {
			if createdAt, id, ok := decodeKeyset(token); ok {
				db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
			}
		}
		size := pagination.NormalizePageSize(page.PageSize)
		return db.Limit(size + 1)
	})
}

func decodeKeyset(token string) (time.Time, any, bool) {
	cursor, err := pagination.DecodeCursor(token)
	if err != nil || cursor.CreatedAt == "" || cursor.ID == "" {
		return time.Time{}, nil, false
	}
	createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
	if err != nil {
		return time.Time{}, nil, false
	}
	if numeric, err := strconv.ParseInt(cursor.ID, 10, 64); err == nil {
		return createdAt, numeric, true
	}
	return createdAt, cursor.ID, true
}
