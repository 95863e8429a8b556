package reader

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// normalizeLiteral gives every format the same literal types: integers
// become int, other numbers float64.
func normalizeLiteral(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return intOf(i)
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case int64:
		return intOf(n)
	case uint64:
		if n <= math.MaxInt64 {
			return intOf(int64(n))
		}
		return n
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return intOf(int64(n))
		}
		return n
	default:
		return v
	}
}

func intOf(i int64) any {
	if i >= math.MinInt && i <= math.MaxInt {
		return int(i)
	}
	return i
}

// convertLiteral converts text according to an explicit type hint, as
// used by the XML value elements. An empty hint keeps the string.
func convertLiteral(text, hint string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "", "string":
		return text, nil
	case "int", "integer":
		return strconv.Atoi(strings.TrimSpace(text))
	case "int64", "long":
		return strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	case "float", "float64", "double":
		return strconv.ParseFloat(strings.TrimSpace(text), 64)
	case "bool", "boolean":
		return strconv.ParseBool(strings.TrimSpace(text))
	case "duration":
		return time.ParseDuration(strings.TrimSpace(text))
	default:
		return nil, fmt.Errorf("unknown value type %q", hint)
	}
}
