package train

import (
	"fmt"
	"strconv"

	"github.com/uday-t-s/car-brand-sales/internal/table"
)

// dataset is an encoded feature matrix with its target codes.
type dataset struct {
	source   *table.Table // complete rows of the used columns, in input order
	label    string
	features []string
	encoders map[string]*LabelEncoder
	X        [][]float64
	y        []int
}

// prepare selects the label and feature columns, drops rows missing any of
// them, and fits one encoder per categorical column and one for the label.
func prepare(t *table.Table, label string, categorical []string) (*dataset, error) {
	if _, ok := t.Column(label); !ok {
		return nil, fmt.Errorf("label column %q not found", label)
	}
	isCat := make(map[string]bool, len(categorical))
	for _, name := range categorical {
		if name == label {
			continue
		}
		if _, ok := t.Column(name); !ok {
			return nil, fmt.Errorf("categorical column %q not found", name)
		}
		isCat[name] = true
	}

	var features []string
	for _, c := range t.Columns {
		if c.Name == label {
			continue
		}
		if !isCat[c.Name] && !c.Type.IsNumeric() {
			return nil, fmt.Errorf("feature column %q is text; list it in categorical_features", c.Name)
		}
		features = append(features, c.Name)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("no feature columns besides %q", label)
	}

	var keep []int
	for i := 0; i < t.NumRows(); i++ {
		complete := true
		for _, c := range t.Columns {
			if c.Cells[i].Missing {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	src := t.Take(keep)

	encoders := map[string]*LabelEncoder{}
	for _, name := range append([]string{label}, features...) {
		if name != label && !isCat[name] {
			continue
		}
		col, _ := src.Column(name)
		encoders[name] = FitEncoder(name, rawValues(col), col.Type.IsNumeric())
	}

	X, err := encodeRows(src, features, encoders)
	if err != nil {
		return nil, err
	}
	labels, _ := src.Column(label)
	y, err := encoders[label].Transform(rawValues(labels))
	if err != nil {
		return nil, err
	}
	return &dataset{
		source:   src,
		label:    label,
		features: features,
		encoders: encoders,
		X:        X,
		y:        y,
	}, nil
}

func rawValues(c *table.Column) []string {
	out := make([]string, len(c.Cells))
	for i, cell := range c.Cells {
		out[i] = cell.Raw
	}
	return out
}

// encodeRows builds the feature matrix for t. Categorical columns go through
// their encoder; the rest must hold numbers.
func encodeRows(t *table.Table, features []string, encoders map[string]*LabelEncoder) ([][]float64, error) {
	cols := make([]*table.Column, len(features))
	for j, name := range features {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("feature column %q not found", name)
		}
		cols[j] = c
	}
	X := make([][]float64, t.NumRows())
	for i := range X {
		row := make([]float64, len(features))
		for j, c := range cols {
			cell := c.Cells[i]
			if cell.Missing {
				return nil, fmt.Errorf("row %d: missing value in %q", i+1, c.Name)
			}
			if enc, ok := encoders[c.Name]; ok {
				code, err := enc.Encode(cell.Raw)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", i+1, err)
				}
				row[j] = float64(code)
				continue
			}
			if c.Type.IsNumeric() {
				row[j] = cell.Num
				continue
			}
			v, err := strconv.ParseFloat(cell.Raw, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %q in %q is not a number", i+1, cell.Raw, c.Name)
			}
			row[j] = v
		}
		X[i] = row
	}
	return X, nil
}
