package train

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownCategory is returned when a value was not seen while fitting.
var ErrUnknownCategory = errors.New("unknown category")

// LabelEncoder maps the distinct values of one column to 0..k-1 in sorted
// order. Classes of a numeric column sort by value, so "9" comes before "10".
type LabelEncoder struct {
	Column  string
	Classes []string
	Numeric bool
}

// FitEncoder fits an encoder over values. numeric reports whether the column
// is stored as numbers.
func FitEncoder(column string, values []string, numeric bool) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	e := &LabelEncoder{Column: column, Classes: classes, Numeric: numeric}
	sort.Slice(classes, func(i, j int) bool { return e.less(classes[i], classes[j]) })
	return e
}

// less orders numeric classes by value and falls back to string order for
// equal values or anything that does not parse.
func (e *LabelEncoder) less(a, b string) bool {
	if e.Numeric {
		fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
		fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if errA == nil && errB == nil && fa != fb {
			return fa < fb
		}
	}
	return a < b
}

// Encode returns the code of v.
func (e *LabelEncoder) Encode(v string) (int, error) {
	i := sort.Search(len(e.Classes), func(i int) bool { return !e.less(e.Classes[i], v) })
	if i < len(e.Classes) && e.Classes[i] == v {
		return i, nil
	}
	return 0, fmt.Errorf("%w %q in column %q", ErrUnknownCategory, v, e.Column)
}

// Transform encodes every value.
func (e *LabelEncoder) Transform(values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		code, err := e.Encode(v)
		if err != nil {
			return nil, err
		}
		out[i] = code
	}
	return out, nil
}

// Decode maps a code back to its value.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("code %d out of range for column %q", code, e.Column)
	}
	return e.Classes[code], nil
}
