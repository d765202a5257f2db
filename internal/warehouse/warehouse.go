package warehouse

import (
	"context"
	"fmt"
	"time"
)

// Gateway runs a single already-built analytical query against the warehouse.
// Implementations do not retry; a failed query aborts only the current page.
type Gateway interface {
	Query(ctx context.Context, sql string, args ...any) (*ResultSet, error)
}

// ConnectivityError wraps any failure to get rows back from the warehouse:
// unreachable store, auth failure, malformed query, timeout.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("warehouse: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ResultSet is a tabular query result with engine column and row order
// preserved. Cells are accessed through the typed helpers below; NULL
// ratios stay nil so guarded divisions survive transport.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

func (rs *ResultSet) Empty() bool {
	return rs == nil || len(rs.Rows) == 0
}

func (rs *ResultSet) index(col string) int {
	for i, c := range rs.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

func (rs *ResultSet) cell(row int, col string) any {
	i := rs.index(col)
	if i < 0 || row < 0 || row >= len(rs.Rows) || i >= len(rs.Rows[row]) {
		return nil
	}
	return rs.Rows[row][i]
}

func (rs *ResultSet) String(row int, col string) string {
	switch v := rs.cell(row, col).(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (rs *ResultSet) Int64(row int, col string) int64 {
	switch v := rs.cell(row, col).(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// NullFloat64 returns nil for SQL NULL, which is how guarded divisions
// report "insufficient data".
func (rs *ResultSet) NullFloat64(row int, col string) *float64 {
	switch v := rs.cell(row, col).(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

func (rs *ResultSet) Time(row int, col string) time.Time {
	if v, ok := rs.cell(row, col).(time.Time); ok {
		return v
	}
	return time.Time{}
}
