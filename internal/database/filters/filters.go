// Package filters turns optional request parameters into a single SQL conjunction.
//
// Every filter is a plain struct whose zero-valued fields impose no constraint.
// Sqlizer compiles the populated fields into a squirrel expression that Apply
// hands to gorm as one WHERE clause, together with the page size cap.
package filters

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// MaxPageSize caps every filtered find.
const MaxPageSize = 100

// Dialect selects the JSON array functions used for list columns.
// It matches gorm's Dialector.Name().
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Filter is implemented by every resource filter.
type Filter interface {
	Sqlizer(d Dialect) sq.Sqlizer
}

// Apply adds the filter's conjunction and the page cap to db.
func Apply(db *gorm.DB, f Filter) (*gorm.DB, error) {
	query, args, err := f.Sqlizer(Dialect(db.Dialector.Name())).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}
	return db.Where(query, args...).Limit(MaxPageSize), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

// contains matches column against a case-insensitive substring.
// LIKE wildcards in value are matched literally.
func contains(column, value string) sq.Sqlizer {
	return sq.Expr("LOWER("+column+") LIKE LOWER(?) ESCAPE '\\'", likePattern(value))
}

// elementContains matches a JSON array column when any one of its elements
// contains value. The stored JSON text itself is never searched.
func elementContains(d Dialect, column, value string) sq.Sqlizer {
	if d == DialectPostgres {
		return sq.Expr("EXISTS (SELECT 1 FROM jsonb_array_elements_text("+
			"CASE WHEN jsonb_typeof("+column+"::jsonb) = 'array' THEN "+column+"::jsonb ELSE '[]'::jsonb END"+
			") AS elem(value) WHERE LOWER(elem.value) LIKE LOWER(?) ESCAPE '\\')", likePattern(value))
	}
	return sq.Expr("EXISTS (SELECT 1 FROM json_each("+column+") AS elem "+
		"WHERE elem.type = 'text' AND LOWER(elem.value) LIKE LOWER(?) ESCAPE '\\')", likePattern(value))
}

// containsAny matches any element of a JSON array column against any of
// values. Empty values are skipped; nil means no constraint.
func containsAny(d Dialect, column string, values []string) sq.Sqlizer {
	var or sq.Or
	for _, v := range values {
		if v == "" {
			continue
		}
		or = append(or, elementContains(d, column, v))
	}
	if len(or) == 0 {
		return nil
	}
	return or
}

// BookFilter searches books. Authors and Genres are OR-ed within themselves.
type BookFilter struct {
	Title      string
	Authors    []string
	Genres     []string
	BookFormat string
	ISBN       string
}

func (f BookFilter) Sqlizer(d Dialect) sq.Sqlizer {
	and := sq.And{}
	if f.Title != "" {
		and = append(and, contains("title", f.Title))
	}
	if or := containsAny(d, "author", f.Authors); or != nil {
		and = append(and, or)
	}
	if or := containsAny(d, "genre", f.Genres); or != nil {
		and = append(and, or)
	}
	if f.BookFormat != "" {
		and = append(and, contains("book_format", f.BookFormat))
	}
	if f.ISBN != "" {
		and = append(and, contains("isbn", f.ISBN))
	}
	return and
}

// ReviewFilter searches reviews. Rating bounds are inclusive.
type ReviewFilter struct {
	UserID    string
	BookID    string
	RatingMin *int
	RatingMax *int
}

func (f ReviewFilter) Sqlizer(Dialect) sq.Sqlizer {
	and := sq.And{}
	if f.UserID != "" {
		and = append(and, sq.Eq{"user_id": f.UserID})
	}
	if f.BookID != "" {
		and = append(and, sq.Eq{"book_id": f.BookID})
	}
	if f.RatingMin != nil {
		and = append(and, sq.GtOrEq{"rating": *f.RatingMin})
	}
	if f.RatingMax != nil {
		and = append(and, sq.LtOrEq{"rating": *f.RatingMax})
	}
	return and
}

// HistoryFilter searches history entries. Datetime bounds are inclusive
// and compared as strings.
type HistoryFilter struct {
	UserID      string
	TypeEvent   string
	DatetimeMin string
	DatetimeMax string
}

func (f HistoryFilter) Sqlizer(Dialect) sq.Sqlizer {
	and := sq.And{}
	if f.UserID != "" {
		and = append(and, sq.Eq{"user_id": f.UserID})
	}
	if f.TypeEvent != "" {
		and = append(and, contains("type_event", f.TypeEvent))
	}
	if f.DatetimeMin != "" {
		and = append(and, sq.GtOrEq{"event_time": f.DatetimeMin})
	}
	if f.DatetimeMax != "" {
		and = append(and, sq.LtOrEq{"event_time": f.DatetimeMax})
	}
	return and
}
