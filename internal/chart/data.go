package chart

import (
	"sort"
	"strconv"

	"github.com/uday-t-s/car-brand-sales/internal/pipeline"
	"github.com/uday-t-s/car-brand-sales/internal/table"
)

// category is a labelled value in first-seen order.
type category struct {
	Label string
	Value float64
}

type boxStats struct {
	Label    string
	Low      float64 // lower whisker
	Q1       float64
	Median   float64
	Q3       float64
	High     float64 // upper whisker
	Outliers []float64
}

type scatterGroup struct {
	Name string
	X    []float64
	Y    []float64
}

type scatterData struct {
	Groups []scatterGroup
	// XLabels is set when x is categorical; X values are then 1-based
	// positions into it.
	XLabels []string
}

// label renders a cell as a category key. Numeric cells go through their
// parsed value so "1" and "1.0" land in the same group.
func label(col *table.Column, i int) string {
	c := col.Cells[i]
	if col.Type.IsNumeric() {
		return strconv.FormatFloat(c.Num, 'g', -1, 64)
	}
	return c.Raw
}

func mustColumn(t *table.Table, name string) (*table.Column, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, &ValidationError{Field: "column", Reason: strconv.Quote(name) + " not in table"}
	}
	return col, nil
}

// barData sums y per x category.
func barData(s Spec, t *table.Table) ([]category, error) {
	xc, err := mustColumn(t, s.X)
	if err != nil {
		return nil, err
	}
	yc, err := mustColumn(t, s.Y)
	if err != nil {
		return nil, err
	}
	var out []category
	pos := map[string]int{}
	for i := range xc.Cells {
		if xc.Cells[i].Missing || yc.Cells[i].Missing {
			continue
		}
		k := label(xc, i)
		j, ok := pos[k]
		if !ok {
			j = len(out)
			pos[k] = j
			out = append(out, category{Label: k})
		}
		out[j].Value += yc.Cells[i].Num
	}
	return out, nil
}

// pieData counts rows per names value.
func pieData(s Spec, t *table.Table) ([]category, error) {
	xc, err := mustColumn(t, s.X)
	if err != nil {
		return nil, err
	}
	var out []category
	pos := map[string]int{}
	for i := range xc.Cells {
		if xc.Cells[i].Missing {
			continue
		}
		k := label(xc, i)
		j, ok := pos[k]
		if !ok {
			j = len(out)
			pos[k] = j
			out = append(out, category{Label: k})
		}
		out[j].Value++
	}
	return out, nil
}

// boxData computes quartiles per x category with whiskers at the most extreme
// values inside 1.5 IQR of the box.
func boxData(s Spec, t *table.Table) ([]boxStats, error) {
	xc, err := mustColumn(t, s.X)
	if err != nil {
		return nil, err
	}
	yc, err := mustColumn(t, s.Y)
	if err != nil {
		return nil, err
	}
	var order []string
	groups := map[string][]float64{}
	for i := range xc.Cells {
		if xc.Cells[i].Missing || yc.Cells[i].Missing {
			continue
		}
		k := label(xc, i)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], yc.Cells[i].Num)
	}

	out := make([]boxStats, 0, len(order))
	for _, k := range order {
		vals := groups[k]
		sort.Float64s(vals)
		q1, _ := pipeline.Quantile(vals, 0.25)
		med, _ := pipeline.Quantile(vals, 0.5)
		q3, _ := pipeline.Quantile(vals, 0.75)
		iqr := q3 - q1
		lowFence, highFence := q1-1.5*iqr, q3+1.5*iqr

		b := boxStats{Label: k, Q1: q1, Median: med, Q3: q3, Low: q1, High: q3}
		for _, v := range vals {
			if v < lowFence || v > highFence {
				b.Outliers = append(b.Outliers, v)
				continue
			}
			if v < b.Low {
				b.Low = v
			}
			if v > b.High {
				b.High = v
			}
		}
		out = append(out, b)
	}
	return out, nil
}

// scatterPoints splits rows into one group per color value.
func scatterPoints(s Spec, t *table.Table) (scatterData, error) {
	var d scatterData
	xc, err := mustColumn(t, s.X)
	if err != nil {
		return d, err
	}
	yc, err := mustColumn(t, s.Y)
	if err != nil {
		return d, err
	}
	cc, err := mustColumn(t, s.Color)
	if err != nil {
		return d, err
	}

	xpos := map[string]int{}
	gpos := map[string]int{}
	for i := range xc.Cells {
		if xc.Cells[i].Missing || yc.Cells[i].Missing || cc.Cells[i].Missing {
			continue
		}
		var x float64
		if xc.Type.IsNumeric() {
			x = xc.Cells[i].Num
		} else {
			k := xc.Cells[i].Raw
			p, ok := xpos[k]
			if !ok {
				d.XLabels = append(d.XLabels, k)
				p = len(d.XLabels)
				xpos[k] = p
			}
			x = float64(p)
		}
		g := label(cc, i)
		j, ok := gpos[g]
		if !ok {
			j = len(d.Groups)
			gpos[g] = j
			d.Groups = append(d.Groups, scatterGroup{Name: g})
		}
		d.Groups[j].X = append(d.Groups[j].X, x)
		d.Groups[j].Y = append(d.Groups[j].Y, yc.Cells[i].Num)
	}
	return d, nil
}
