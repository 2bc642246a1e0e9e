// Package chart resolves chart requests against classified columns and
// renders the resulting specs.
package chart

import (
	"fmt"
	"strings"

	"github.com/uday-t-s/car-brand-sales/internal/pipeline"
)

// Placeholder is shown instead of a chart when nothing can be drawn.
const Placeholder = "Upload data and select fields to generate charts."

// Kind is one of the supported chart types.
type Kind int

const (
	Bar Kind = iota + 1
	Box
	Scatter
	Pie
)

// Kinds returns every supported kind in menu order.
func Kinds() []Kind { return []Kind{Bar, Box, Scatter, Pie} }

// String returns the menu label.
func (k Kind) String() string {
	if r, ok := rules[k]; ok {
		return r.label
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Slug returns the short lowercase name used by flags and query strings.
func (k Kind) Slug() string {
	if r, ok := rules[k]; ok {
		return r.slug
	}
	return ""
}

// ParseKind accepts a slug ("bar") or a menu label ("Bar Chart"), case
// insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range Kinds() {
		r := rules[k]
		if strings.EqualFold(s, r.slug) || strings.EqualFold(s, r.label) {
			return k, nil
		}
	}
	return 0, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown chart type %q", s)}
}

// Request is the raw selection coming from a front-end. For Pie, X carries
// the names column.
type Request struct {
	Kind  Kind
	X     string
	Y     string
	Color string
}

// Spec is a validated chart description. Y is empty for Pie.
type Spec struct {
	Kind  Kind
	X     string
	Y     string
	Color string
	Title string
}

// ValidationError reports a selection that cannot produce a chart.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type rule struct {
	slug  string
	label string
	// xField names the first selection in errors.
	xField        string
	needY         bool
	colorOverride bool
	title         func(Spec) string
}

var rules = map[Kind]rule{
	Bar: {
		slug: "bar", label: "Bar Chart", xField: "x", needY: true,
		title: func(s Spec) string { return fmt.Sprintf("%s by %s", s.Y, s.X) },
	},
	Box: {
		slug: "box", label: "Box Plot", xField: "x", needY: true,
		title: func(s Spec) string { return fmt.Sprintf("Distribution of %s by %s", s.Y, s.X) },
	},
	Scatter: {
		slug: "scatter", label: "Scatter Plot", xField: "x", needY: true, colorOverride: true,
		title: func(s Spec) string {
			if s.Color != s.X {
				return fmt.Sprintf("%s vs %s (colored by %s)", s.Y, s.X, s.Color)
			}
			return fmt.Sprintf("%s vs %s", s.Y, s.X)
		},
	},
	Pie: {
		slug: "pie", label: "Pie Chart", xField: "names",
		title: func(s Spec) string { return fmt.Sprintf("Distribution of %s", s.X) },
	},
}

// Resolve validates req against the columns of the current table. It holds no
// state between calls.
func Resolve(req Request, cols pipeline.Columns) (Spec, error) {
	r, ok := rules[req.Kind]
	if !ok {
		return Spec{}, &ValidationError{Field: "kind", Reason: "unknown chart type"}
	}
	if req.X == "" {
		return Spec{}, &ValidationError{Field: r.xField, Reason: "no column selected"}
	}
	if !cols.Has(req.X) {
		return Spec{}, &ValidationError{Field: r.xField, Reason: fmt.Sprintf("unknown column %q", req.X)}
	}
	spec := Spec{Kind: req.Kind, X: req.X}

	if r.needY {
		if req.Y == "" {
			return Spec{}, &ValidationError{Field: "y", Reason: "no column selected"}
		}
		role, ok := cols.Role(req.Y)
		if !ok {
			return Spec{}, &ValidationError{Field: "y", Reason: fmt.Sprintf("unknown column %q", req.Y)}
		}
		if role != pipeline.Numeric {
			return Spec{}, &ValidationError{Field: "y", Reason: fmt.Sprintf("column %q is not numeric", req.Y)}
		}
		spec.Y = req.Y
		spec.Color = req.X
		if r.colorOverride && req.Color != "" {
			if !cols.Has(req.Color) {
				return Spec{}, &ValidationError{Field: "color", Reason: fmt.Sprintf("unknown column %q", req.Color)}
			}
			spec.Color = req.Color
		}
	}

	spec.Title = r.title(spec)
	return spec, nil
}
