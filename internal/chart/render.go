package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/uday-t-s/car-brand-sales/internal/table"
)

// ErrNoData is returned when the table has no rows to draw.
var ErrNoData = errors.New("no data to chart")

// Default canvas size in pixels.
const (
	DefaultWidth  = 1000
	DefaultHeight = 550
)

// maxLegendEntries caps the legend; larger groupings are still drawn.
const maxLegendEntries = 12

// Format is an output image encoding.
type Format int

const (
	PNG Format = iota
	SVG
)

// ParseFormat accepts "png" or "svg".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return PNG, nil
	case "svg":
		return SVG, nil
	}
	return PNG, &ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q", s)}
}

// FormatFor picks the format from a file extension, defaulting to PNG.
func FormatFor(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return PNG
}

func (f Format) Ext() string {
	if f == SVG {
		return ".svg"
	}
	return ".png"
}

func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() gochart.RendererProvider {
	if f == SVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// Theme holds the colors used for every chart.
type Theme struct {
	Background drawing.Color
	Text       drawing.Color
	Accent     drawing.Color
	Palettes   map[Kind][]drawing.Color
}

func hexColors(hex ...string) []drawing.Color {
	out := make([]drawing.Color, len(hex))
	for i, h := range hex {
		out[i] = drawing.ColorFromHex(h)
	}
	return out
}

// DarkTheme is the dashboard look: dark canvas, light text and one
// qualitative palette per chart kind.
func DarkTheme() Theme {
	return Theme{
		Background: drawing.ColorFromHex("161b22"),
		Text:       drawing.ColorFromHex("f5f5f5"),
		Accent:     drawing.ColorFromHex("00ffff"),
		Palettes: map[Kind][]drawing.Color{
			// Vivid
			Bar: hexColors("E58606", "5D69B1", "52BCA3", "99C945", "CC61B0", "24796C", "DAA51B", "2F8AC4", "764E9F", "ED645A", "A5AA99"),
			// Set2
			Box: hexColors("66c2a5", "fc8d62", "8da0cb", "e78ac3", "a6d854", "ffd92f", "e5c494", "b3b3b3"),
			// Safe
			Scatter: hexColors("88CCEE", "CC6677", "DDCC77", "117733", "332288", "AA4499", "44AA99", "999933", "882255", "661100", "6699CC", "888888"),
			// Pastel
			Pie: hexColors("66C5CC", "F6CF71", "F89C74", "DCB0F2", "87C55F", "9EB9F3", "FE88B1", "C9DB74", "8BE0A4", "B497E7", "D3B484", "B3B3B3"),
		},
	}
}

func (th Theme) color(k Kind, i int) drawing.Color {
	p := th.Palettes[k]
	if len(p) == 0 {
		return th.Accent
	}
	return p[i%len(p)]
}

func (th Theme) titleStyle() gochart.Style {
	return gochart.Style{FontColor: th.Accent, FontSize: 22}
}

func (th Theme) textStyle() gochart.Style {
	return gochart.Style{FontColor: th.Text, FontSize: 14}
}

func (th Theme) axisStyle() gochart.Style {
	return gochart.Style{FontColor: th.Text, StrokeColor: th.Text}
}

func (th Theme) background() gochart.Style {
	return gochart.Style{
		FillColor: th.Background,
		Padding:   gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
	}
}

func (th Theme) canvas() gochart.Style {
	return gochart.Style{FillColor: th.Background}
}

type renderable interface {
	Render(rp gochart.RendererProvider, w io.Writer) error
}

type drawFunc func(r *Renderer, s Spec, t *table.Table) (renderable, error)

var renderers = map[Kind]drawFunc{
	Bar:     (*Renderer).bar,
	Box:     (*Renderer).box,
	Scatter: (*Renderer).scatter,
	Pie:     (*Renderer).pie,
}

// Renderer draws resolved specs with go-chart.
type Renderer struct {
	Width  int
	Height int
	Theme  Theme
}

// NewRenderer returns a dark-themed renderer. Non-positive sizes fall back to
// the defaults.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{Width: width, Height: height, Theme: DarkTheme()}
}

// Render writes the chart for s drawn from t. A table without rows, or
// without a single complete point for the selected columns, yields
// ErrNoData.
func (r *Renderer) Render(w io.Writer, s Spec, t *table.Table, f Format) error {
	if t == nil || t.NumRows() == 0 {
		return ErrNoData
	}
	draw, ok := renderers[s.Kind]
	if !ok {
		return &ValidationError{Field: "kind", Reason: "unknown chart type"}
	}
	c, err := draw(r, s, t)
	if err != nil {
		return err
	}
	if err := c.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render %s: %w", s.Kind.Slug(), err)
	}
	return nil
}

func (r *Renderer) bar(s Spec, t *table.Table) (renderable, error) {
	cats, err := barData(s, t)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, ErrNoData
	}
	bars := make([]gochart.Value, len(cats))
	lo, hi := 0.0, 0.0
	for i, c := range cats {
		col := r.Theme.color(Bar, i)
		bars[i] = gochart.Value{
			Label: c.Label,
			Value: c.Value,
			Style: gochart.Style{FillColor: col, StrokeColor: col},
		}
		lo, hi = math.Min(lo, c.Value), math.Max(hi, c.Value)
	}
	bw := barWidth(r.Width, len(cats))
	return &gochart.BarChart{
		Title:        s.Title,
		TitleStyle:   r.Theme.titleStyle(),
		Width:        r.Width,
		Height:       r.Height,
		Background:   r.Theme.background(),
		Canvas:       r.Theme.canvas(),
		XAxis:        r.Theme.axisStyle(),
		YAxis:        gochart.YAxis{Name: s.Y, Style: r.Theme.axisStyle(), Range: baseRange(lo, hi)},
		BarWidth:     bw,
		BarSpacing:   bw / 2,
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
	}, nil
}

func (r *Renderer) box(s Spec, t *table.Table) (renderable, error) {
	stats, err := boxData(s, t)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, ErrNoData
	}
	const half = 0.3
	var series []gochart.Series
	ticks := make([]gochart.Tick, 0, len(stats))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, b := range stats {
		x := float64(i + 1)
		col := r.Theme.color(Box, i)
		line := gochart.Style{StrokeColor: col, StrokeWidth: 2}
		seg := func(xs, ys []float64, st gochart.Style) {
			series = append(series, gochart.ContinuousSeries{XValues: xs, YValues: ys, Style: st})
		}
		seg([]float64{x - half, x + half, x + half, x - half, x - half}, []float64{b.Q1, b.Q1, b.Q3, b.Q3, b.Q1}, line)
		seg([]float64{x - half, x + half}, []float64{b.Median, b.Median}, gochart.Style{StrokeColor: col, StrokeWidth: 4})
		seg([]float64{x, x}, []float64{b.Low, b.Q1}, line)
		seg([]float64{x, x}, []float64{b.Q3, b.High}, line)
		seg([]float64{x - half/2, x + half/2}, []float64{b.Low, b.Low}, line)
		seg([]float64{x - half/2, x + half/2}, []float64{b.High, b.High}, line)
		if len(b.Outliers) > 0 {
			xs := make([]float64, len(b.Outliers))
			for j := range xs {
				xs[j] = x
			}
			seg(xs, b.Outliers, gochart.Style{StrokeWidth: gochart.Disabled, DotWidth: 3, DotColor: col})
		}
		ticks = append(ticks, gochart.Tick{Value: x, Label: b.Label})

		lo, hi = math.Min(lo, b.Low), math.Max(hi, b.High)
		for _, v := range b.Outliers {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	return r.xyChart(s, series, r.categoryAxis(s.X, ticks), paddedRange(lo, hi), false), nil
}

func (r *Renderer) scatter(s Spec, t *table.Table) (renderable, error) {
	d, err := scatterPoints(s, t)
	if err != nil {
		return nil, err
	}
	if len(d.Groups) == 0 {
		return nil, ErrNoData
	}
	series := make([]gochart.Series, len(d.Groups))
	xlo, xhi := math.Inf(1), math.Inf(-1)
	ylo, yhi := math.Inf(1), math.Inf(-1)
	for i, g := range d.Groups {
		series[i] = gochart.ContinuousSeries{
			Name:    g.Name,
			XValues: g.X,
			YValues: g.Y,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    5,
				DotColor:    r.Theme.color(Scatter, i),
			},
		}
		for j := range g.X {
			xlo, xhi = math.Min(xlo, g.X[j]), math.Max(xhi, g.X[j])
			ylo, yhi = math.Min(ylo, g.Y[j]), math.Max(yhi, g.Y[j])
		}
	}

	var xaxis gochart.XAxis
	if d.XLabels != nil {
		ticks := make([]gochart.Tick, len(d.XLabels))
		for i, l := range d.XLabels {
			ticks[i] = gochart.Tick{Value: float64(i + 1), Label: l}
		}
		xaxis = r.categoryAxis(s.X, ticks)
	} else {
		xaxis = gochart.XAxis{
			Name:      s.X,
			NameStyle: r.Theme.textStyle(),
			Style:     r.Theme.axisStyle(),
			Range:     paddedRange(xlo, xhi),
		}
	}
	legend := len(d.Groups) > 1 && len(d.Groups) <= maxLegendEntries
	return r.xyChart(s, series, xaxis, paddedRange(ylo, yhi), legend), nil
}

func (r *Renderer) pie(s Spec, t *table.Table) (renderable, error) {
	cats, err := pieData(s, t)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, ErrNoData
	}
	values := make([]gochart.Value, len(cats))
	for i, c := range cats {
		values[i] = gochart.Value{
			Label: fmt.Sprintf("%s (%d)", c.Label, int(c.Value)),
			Value: c.Value,
			Style: gochart.Style{
				FillColor:   r.Theme.color(Pie, i),
				StrokeColor: r.Theme.Background,
				FontColor:   r.Theme.Background,
			},
		}
	}
	return &gochart.PieChart{
		Title:      s.Title,
		TitleStyle: r.Theme.titleStyle(),
		Width:      r.Width,
		Height:     r.Height,
		Background: r.Theme.background(),
		Canvas:     r.Theme.canvas(),
		Values:     values,
	}, nil
}

func (r *Renderer) xyChart(s Spec, series []gochart.Series, xaxis gochart.XAxis, yrange *gochart.ContinuousRange, legend bool) *gochart.Chart {
	ch := &gochart.Chart{
		Title:      s.Title,
		TitleStyle: r.Theme.titleStyle(),
		Width:      r.Width,
		Height:     r.Height,
		Background: r.Theme.background(),
		Canvas:     r.Theme.canvas(),
		XAxis:      xaxis,
		YAxis: gochart.YAxis{
			Name:      s.Y,
			NameStyle: r.Theme.textStyle(),
			Style:     r.Theme.axisStyle(),
			Range:     yrange,
		},
		Series: series,
	}
	if legend {
		ch.Elements = []gochart.Renderable{gochart.Legend(ch, gochart.Style{
			FillColor:   r.Theme.Background,
			FontColor:   r.Theme.Text,
			StrokeColor: r.Theme.Text,
		})}
	}
	return ch
}

// categoryAxis places one labeled tick per category at 1..n. go-chart takes
// the x range from explicit ticks, so unlabeled bounds at 0.5 and n+0.5 keep
// a single category from collapsing it to zero width.
func (r *Renderer) categoryAxis(name string, ticks []gochart.Tick) gochart.XAxis {
	hi := float64(len(ticks)) + 0.5
	bounded := make([]gochart.Tick, 0, len(ticks)+2)
	bounded = append(bounded, gochart.Tick{Value: 0.5})
	bounded = append(bounded, ticks...)
	bounded = append(bounded, gochart.Tick{Value: hi})
	return gochart.XAxis{
		Name:      name,
		NameStyle: r.Theme.textStyle(),
		Style:     r.Theme.axisStyle(),
		Ticks:     bounded,
		Range:     &gochart.ContinuousRange{Min: 0.5, Max: hi},
	}
}

// paddedRange widens [lo, hi] by 5% on each side and never returns a
// zero-width range, which go-chart rejects.
func paddedRange(lo, hi float64) *gochart.ContinuousRange {
	if lo == hi {
		pad := math.Abs(lo) * 0.1
		if pad == 0 {
			pad = 1
		}
		return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	pad := (hi - lo) * 0.05
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// baseRange is the y range for bars drawn from zero; lo <= 0 <= hi.
func baseRange(lo, hi float64) *gochart.ContinuousRange {
	if lo == 0 && hi == 0 {
		return &gochart.ContinuousRange{Min: 0, Max: 1}
	}
	pad := (hi - lo) * 0.05
	rng := &gochart.ContinuousRange{Min: lo, Max: hi}
	if hi > 0 {
		rng.Max += pad
	}
	if lo < 0 {
		rng.Min -= pad
	}
	return rng
}

func barWidth(width, n int) int {
	bw := width / (2 * (n + 1))
	switch {
	case bw > 60:
		return 60
	case bw < 4:
		return 4
	}
	return bw
}
