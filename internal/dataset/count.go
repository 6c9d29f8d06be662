package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Count is a case count that may be null.
type Count struct {
	N     int64
	Valid bool
}

// Known returns a valid Count of n.
func Known(n int64) Count {
	return Count{N: n, Valid: true}
}

// String returns the count, or "null".
func (c Count) String() string {
	if !c.Valid {
		return "null"
	}
	return strconv.FormatInt(c.N, 10)
}

// MarshalJSON encodes a null count as JSON null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.N)
}

// groupedThousands matches counts like "1.234" or "12,345,678".
var groupedThousands = regexp.MustCompile(`^\d{1,3}([.,]\d{3})+$`)

// ParseCount reads a count as printed in a report or stored in a workbook.
// Whitespace (including non-breaking spaces) is ignored and "." or "," are
// accepted as thousands separators. Integral decimals such as "12.0" are
// accepted. An empty string is a null count; anything else is an error.
func ParseCount(s string) (Count, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\u202f' {
			return -1
		}
		return r
	}, s)
	if compact == "" {
		return Count{}, nil
	}

	if n, err := strconv.ParseInt(compact, 10, 64); err == nil {
		return countOf(n, s)
	}
	if groupedThousands.MatchString(compact) {
		n, err := strconv.ParseInt(strings.NewReplacer(".", "", ",", "").Replace(compact), 10, 64)
		if err == nil {
			return countOf(n, s)
		}
	}
	if f, err := strconv.ParseFloat(compact, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return countOf(int64(f), s)
	}
	return Count{}, fmt.Errorf("invalid count %q", s)
}

func countOf(n int64, s string) (Count, error) {
	if n < 0 {
		return Count{}, fmt.Errorf("negative count %q", s)
	}
	return Known(n), nil
}
