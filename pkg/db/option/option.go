package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type SortBy struct {
	Column    string
	Direction string
	// TieBreaker is appended ascending when it differs from Column.
	TieBreaker string
}

// WithQuerySortBy validates the requested column against allowed. A column
// that is not allowed leaves only the tie breaker in effect.
func WithQuerySortBy(sortBy, orderBy string, allowed map[string]bool) SortBy {
	column := strings.ToLower(strings.TrimSpace(sortBy))
	if !allowed[column] {
		column = ""
	}
	direction := strings.ToUpper(strings.TrimSpace(orderBy))
	if direction != "DESC" {
		direction = "ASC"
	}
	return SortBy{Column: column, Direction: direction}
}

func (s SortBy) WithTieBreaker(column string) SortBy {
	s.TieBreaker = column
	return s
}

func WithSortBy(s SortBy) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if s.Column != "" {
			db = db.Order(fmt.Sprintf("%s %s", s.Column, s.Direction))
		}
		if s.TieBreaker != "" && s.TieBreaker != s.Column {
			db = db.Order(fmt.Sprintf("%s ASC", s.TieBreaker))
		}
		return db
	})
}

func WithPaging(offset, limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if offset > 0 {
			db = db.Offset(offset)
		}
		if limit > 0 {
			db = db.Limit(limit)
		}
		return db
	})
}
