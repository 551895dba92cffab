package chart

import (
	"fmt"
	"math"
	"strings"

	"go-energy-dashboard/internal/model"
	"go-energy-dashboard/internal/pipeline"

	"github.com/samber/lo"
)

var (
	dashStyles = []string{"solid", "dashed", "dotted"}
	symbols    = []string{"circle", "rect", "triangle", "diamond", "pin", "arrow", "roundRect"}
	opacities  = []float32{1, 0.7, 0.45, 0.25}
)

// Figure is the chart-ready form of a grid: one facet per row/column value
// pair, each with one series per color and dash label.
type Figure struct {
	Title   string
	Kind    model.ChartKind
	XTitle  string
	YTitle  string
	XLabels []string
	Facets  []*Facet
}

// Facet is a single panel of a figure
type Facet struct {
	Title  string
	Series []*Series
}

// Series holds one value per x label. NaN marks a gap. Low and High are only
// set for error band figures.
type Series struct {
	Name    string
	Values  []float64
	Low     []float64
	High    []float64
	Dash    string
	Symbol  string
	Opacity float32
}

// channels resolves the request channels against the columns of the grid
type channels struct {
	x, row, col                 *model.Column
	color, dash, shape, opacity *model.Column
	dashLevels, shapeLevels     map[string]int
	opacityLevels               map[string]int
}

// Plan maps the grid columns to visual channels. The value of each series at
// each x label is the sum over the dimensions no channel uses; error band
// figures use the mean and its standard error instead.
func Plan(grid *pipeline.Grid, req model.ChartRequest) (*Figure, error) {
	req = req.Normalize()
	table := grid.Table
	if req.X == "" {
		return nil, model.ErrNoXAxis
	}
	if !table.HasColumn(req.X) {
		return nil, fmt.Errorf("%w: no column %s", model.ErrNoXAxis, req.X)
	}
	values, ok := table.Column(grid.ValueColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrMissingValueColumn, grid.ValueColumn)
	}

	ch := resolveChannels(table, req)
	xLabels := ch.x.Unique()
	xIndex := lo.SliceToMap(lo.Range(len(xLabels)), func(i int) (string, int) {
		return xLabels[i], i
	})

	fig := &Figure{
		Title:   req.Title,
		Kind:    req.Kind,
		XTitle:  model.TitleCase(req.X),
		YTitle:  model.TitleCase(grid.ValueColumn),
		XLabels: xLabels,
	}
	if fig.Title == "" {
		fig.Title = fig.YTitle
	}

	// samples[facet][series][x] collects the cells of each bucket
	type builder struct {
		facet   *Facet
		samples map[string][][]float64
		order   []*Series
	}
	facets := make(map[string]*builder)
	var facetOrder []string

	rowLevels := levelsOrBlank(ch.row)
	colLevels := levelsOrBlank(ch.col)
	for _, r := range rowLevels {
		for _, c := range colLevels {
			key := r + "\x1f" + c
			facetOrder = append(facetOrder, key)
			facets[key] = &builder{
				facet:   &Facet{Title: facetTitle(fig.Title, req, r, c)},
				samples: make(map[string][][]float64),
			}
		}
	}

	for i := 0; i < table.NumRows(); i++ {
		if ch.x.IsNull(i) {
			continue
		}
		b := facets[label(ch.row, i)+"\x1f"+label(ch.col, i)]
		if b == nil {
			continue
		}
		name := seriesName(ch, i)
		buckets, seen := b.samples[name]
		if !seen {
			buckets = make([][]float64, len(xLabels))
			b.samples[name] = buckets
			b.order = append(b.order, ch.style(name, i))
		}
		if v, ok := values.Float(i); ok {
			x := xIndex[ch.x.Label(i)]
			buckets[x] = append(buckets[x], v)
		}
	}

	for _, key := range facetOrder {
		b := facets[key]
		if len(b.order) == 0 {
			continue
		}
		for _, s := range b.order {
			fill(s, b.samples[s.Name], req.Kind)
		}
		b.facet.Series = b.order
		fig.Facets = append(fig.Facets, b.facet)
	}
	return fig, nil
}

func resolveChannels(table *model.Table, req model.ChartRequest) *channels {
	lookup := func(name string) *model.Column {
		if name == "" {
			return nil
		}
		c, _ := table.Column(name)
		return c
	}
	ch := &channels{
		x:       lookup(req.X),
		row:     lookup(req.Row),
		col:     lookup(req.Column),
		color:   lookup(req.Color),
		dash:    lookup(req.Dash),
		shape:   lookup(req.Shape),
		opacity: lookup(req.Opacity),
	}
	ch.dashLevels = levelIndex(ch.dash)
	ch.shapeLevels = levelIndex(ch.shape)
	ch.opacityLevels = levelIndex(ch.opacity)
	return ch
}

// style assigns the cycled dash, symbol and opacity of the series row i starts
func (ch *channels) style(name string, i int) *Series {
	s := &Series{Name: name, Dash: dashStyles[0], Symbol: symbols[0], Opacity: opacities[0]}
	if ch.dash != nil {
		s.Dash = dashStyles[ch.dashLevels[label(ch.dash, i)]%len(dashStyles)]
	}
	if ch.shape != nil {
		s.Symbol = symbols[ch.shapeLevels[label(ch.shape, i)]%len(symbols)]
	}
	if ch.opacity != nil {
		s.Opacity = opacities[ch.opacityLevels[label(ch.opacity, i)]%len(opacities)]
	}
	return s
}

func fill(s *Series, buckets [][]float64, kind model.ChartKind) {
	s.Values = make([]float64, len(buckets))
	if kind == model.ChartErrorBand {
		s.Low = make([]float64, len(buckets))
		s.High = make([]float64, len(buckets))
	}
	for x, cells := range buckets {
		if len(cells) == 0 {
			s.Values[x] = math.NaN()
			if s.Low != nil {
				s.Low[x], s.High[x] = math.NaN(), math.NaN()
			}
			continue
		}
		if kind != model.ChartErrorBand {
			s.Values[x] = lo.Sum(cells)
			continue
		}
		mean, se := meanStdErr(cells)
		s.Values[x] = mean
		s.Low[x] = mean - se
		s.High[x] = mean + se
	}
}

// meanStdErr returns the mean and the standard error of the mean, using the
// sample standard deviation. A single sample has no spread.
func meanStdErr(xs []float64) (float64, float64) {
	n := float64(len(xs))
	mean := lo.Sum(xs) / n
	if len(xs) < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss/(n-1)) / math.Sqrt(n)
}

func seriesName(ch *channels, i int) string {
	var parts []string
	for _, c := range []*model.Column{ch.color, ch.dash, ch.shape, ch.opacity} {
		if c == nil {
			continue
		}
		l := label(c, i)
		if !lo.Contains(parts, l) {
			parts = append(parts, l)
		}
	}
	if len(parts) == 0 {
		return model.TitleCase(ch.x.Name)
	}
	return strings.Join(parts, ", ")
}

func facetTitle(title string, req model.ChartRequest, row, col string) string {
	var parts []string
	if req.Row != "" && row != "" {
		parts = append(parts, model.TitleCase(req.Row)+": "+row)
	}
	if req.Column != "" && col != "" {
		parts = append(parts, model.TitleCase(req.Column)+": "+col)
	}
	if len(parts) == 0 {
		return title
	}
	return strings.Join(parts, " | ")
}

func label(c *model.Column, i int) string {
	if c == nil {
		return ""
	}
	return c.Label(i)
}

func levelsOrBlank(c *model.Column) []string {
	if c == nil {
		return []string{""}
	}
	levels := c.Unique()
	if lo.SomeBy(lo.Range(c.Len()), c.IsNull) {
		levels = append(levels, "")
	}
	return levels
}

func levelIndex(c *model.Column) map[string]int {
	if c == nil {
		return nil
	}
	levels := c.Unique()
	return lo.SliceToMap(lo.Range(len(levels)), func(i int) (string, int) {
		return levels[i], i
	})
}
