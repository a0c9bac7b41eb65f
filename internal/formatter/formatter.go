package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Formatter renders values selected by a path expression as text
type Formatter struct{}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format renders a single value. Strings are written bare, a missing value
// is "null", whole floats keep a ".0" suffix so 10.0 and 10 stay distinct,
// and objects and arrays become compact JSON.
func (f *Formatter) Format(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return formatFloat(v), nil
	case json.Number:
		return v.String(), nil
	case map[string]any, []any:
		return f.compact(v)
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// FormatAll renders each value of a list
func (f *Formatter) FormatAll(values []any) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, value := range values {
		s, err := f.Format(value)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *Formatter) compact(value any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", fmt.Errorf("failed to render value: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// formatFloat writes plain decimals between 1e-3 and 1e7 and scientific
// notation (1.0E7) outside that range
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	abs := math.Abs(v)
	if v == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	// 1.5E+07 -> 1.5E7, 1E-05 -> 1.0E-5
	s := strconv.FormatFloat(v, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(n)
}
