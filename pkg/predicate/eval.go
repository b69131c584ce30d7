package predicate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Truth is a value of SQL three-valued logic.
type Truth int8

const (
	False Truth = iota
	Unknown
	True
)

// Not negates t. Unknown stays Unknown.
func (t Truth) Not() Truth {
	switch t {
	case True:
		return False
	case False:
		return True
	}
	return Unknown
}

// Holds is true only for True, the way a WHERE clause keeps a row.
func (t Truth) Holds() bool {
	return t == True
}

func (t Truth) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unknown"
}

func truth(b bool) Truth {
	if b {
		return True
	}
	return False
}

// DateLayout is the layout of dates in canonical forms and in stores
// that keep dates as text.
const DateLayout = "2006-01-02"

// compare orders a against b. The second value is false when the values
// cannot be compared.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case time.Time:
		y, ok := toTime(b)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
		if y, ok := b.(time.Time); ok {
			xt, ok := toTime(x)
			if !ok {
				return 0, false
			}
			return xt.Compare(y), true
		}
		return 0, false
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}

	xf, ok1 := toFloat(a)
	yf, ok2 := toFloat(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	switch {
	case xf < yf:
		return -1, true
	case xf > yf:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		t, err := time.Parse(DateLayout, x)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	}
	return formatValue(v)
}

// formatValue gives values a representation that does not depend on
// their Go type, so 3 and int64(3) look the same.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case time.Time:
		return x.Format(DateLayout)
	case bool:
		return strconv.FormatBool(x)
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// Compare orders two column values the way conditions compare them.
// The second value is false when the values are not comparable, for
// example when one of them is nil.
func Compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return compare(a, b)
}
