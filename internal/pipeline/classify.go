package pipeline

import "github.com/uday-t-s/car-brand-sales/internal/table"

// Role tags a column for selection purposes.
type Role int

const (
	Categorical Role = iota
	Numeric
)

func (r Role) String() string {
	if r == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Columns is the role partition of one table's columns. Each list keeps the
// table's column order.
type Columns struct {
	Numeric     []string
	Categorical []string
	roles       map[string]Role
}

// Classify partitions columns by their stored type: Int and Float columns are
// numeric, everything else categorical.
func Classify(t *table.Table) Columns {
	cols := Columns{
		Numeric:     []string{},
		Categorical: []string{},
		roles:       make(map[string]Role, t.NumCols()),
	}
	for _, c := range t.Columns {
		if c.Type.IsNumeric() {
			cols.Numeric = append(cols.Numeric, c.Name)
			cols.roles[c.Name] = Numeric
		} else {
			cols.Categorical = append(cols.Categorical, c.Name)
			cols.roles[c.Name] = Categorical
		}
	}
	return cols
}

// Role returns the role of a column and whether the column exists.
func (c Columns) Role(name string) (Role, bool) {
	r, ok := c.roles[name]
	return r, ok
}

// Has reports whether the column was classified.
func (c Columns) Has(name string) bool {
	_, ok := c.roles[name]
	return ok
}

// All returns categorical names followed by numeric names.
func (c Columns) All() []string {
	out := make([]string, 0, len(c.Categorical)+len(c.Numeric))
	out = append(out, c.Categorical...)
	return append(out, c.Numeric...)
}
