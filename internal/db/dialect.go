package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// sqliteTimeFormat is fixed width so stored timestamps sort lexically.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Rebind rewrites ? placeholders into the dialect's bind syntax.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ForUpdate is the row-lock suffix for a read inside a read-modify-write.
func (d Dialect) ForUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// TimeArg converts a timestamp into a bind argument for the dialect.
func (d Dialect) TimeArg(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	if d == SQLite {
		return t.UTC().Format(sqliteTimeFormat)
	}
	return t.UTC()
}

// Time scans timestamps regardless of how the driver returns them.
type Time struct {
	Time  time.Time
	Valid bool
}

func (st *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		st.Time, st.Valid = time.Time{}, false
		return nil
	case time.Time:
		st.Time, st.Valid = v.UTC(), true
		return nil
	case []byte:
		return st.parse(string(v))
	case string:
		return st.parse(v)
	case int64:
		st.Time, st.Valid = time.Unix(v, 0).UTC(), true
		return nil
	default:
		return fmt.Errorf("db.Time: unsupported type %T", src)
	}
}

func (st *Time) parse(s string) error {
	formats := []string{
		sqliteTimeFormat,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			st.Time, st.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("db.Time: cannot parse %q", s)
}

// Ptr returns nil for NULL columns.
func (st Time) Ptr() *time.Time {
	if !st.Valid {
		return nil
	}
	t := st.Time
	return &t
}
