package record

import (
	"strconv"
)

// Count is a reported integer figure. Zero is a valid report; Valid=false is
// the NULL sentinel for a column the active profile declares absent.
type Count struct {
	N     int64
	Valid bool
}

// Null is the absent value.
var Null = Count{}

// Known wraps a reported value.
func Known(n int64) Count {
	return Count{N: n, Valid: true}
}

// FromPtr converts a nullable database value.
func FromPtr(p *int64) Count {
	if p == nil {
		return Null
	}
	return Known(*p)
}

// Ptr returns nil for NULL, for drivers that map nil to SQL NULL.
func (c Count) Ptr() *int64 {
	if !c.Valid {
		return nil
	}
	n := c.N
	return &n
}

// Minus returns c-o, NULL when either side is NULL.
func (c Count) Minus(o Count) Count {
	if !c.Valid || !o.Valid {
		return Null
	}
	return Known(c.N - o.N)
}

// Max returns the larger of two values, ignoring NULLs.
func (c Count) Max(o Count) Count {
	switch {
	case !c.Valid:
		return o
	case !o.Valid:
		return c
	case o.N > c.N:
		return o
	default:
		return c
	}
}

// Less reports c < o when both are known.
func (c Count) Less(o Count) bool {
	return c.Valid && o.Valid && c.N < o.N
}

// String renders NULL as the empty string.
func (c Count) String() string {
	if !c.Valid {
		return ""
	}
	return strconv.FormatInt(c.N, 10)
}
