package pipeline

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"go-energy-dashboard/internal/model"

	"github.com/samber/lo"
)

// keySep joins dimension labels into a group key. Labels come from CSV and
// Parquet text, where the unit separator does not occur.
const keySep = "\x1f"

// aggregatedGroup accumulates one group of the aggregation
type aggregatedGroup struct {
	labels []string
	sum    float64
	count  int
}

func (g *aggregatedGroup) result(mode model.AggregateMode) float64 {
	if mode == model.AggregateMean {
		if g.count == 0 {
			return math.NaN()
		}
		return g.sum / float64(g.count)
	}
	return g.sum
}

// Aggregate groups table rows by the dimensions it has and reduces
// valueColumn with SUM or MEAN. Unknown dimension names are dropped and
// duplicates collapse to one key. Rows with a null dimension label do not
// join any group, and null values are skipped by the reduction.
//
// The result has one column per dimension followed by valueColumn, with
// groups in ascending key order. With no dimensions it is a single row.
func Aggregate(table *model.Table, dimensions []string, valueColumn string, mode model.AggregateMode) (*model.Table, error) {
	values, ok := table.Column(valueColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrMissingValueColumn, valueColumn)
	}
	dims := lo.Without(presentDimensions(table, dimensions), valueColumn)
	dimCols := make([]*model.Column, len(dims))
	for j, d := range dims {
		dimCols[j], _ = table.Column(d)
	}

	groups := make(map[string]*aggregatedGroup)
	var order []*aggregatedGroup
	if len(dims) == 0 {
		g := &aggregatedGroup{}
		groups[""] = g
		order = append(order, g)
	}

	var sb strings.Builder
rows:
	for i := 0; i < table.NumRows(); i++ {
		sb.Reset()
		for j, c := range dimCols {
			if c.IsNull(i) {
				continue rows
			}
			if j > 0 {
				sb.WriteString(keySep)
			}
			sb.WriteString(c.Label(i))
		}
		key := sb.String()

		g, exists := groups[key]
		if !exists {
			g = &aggregatedGroup{labels: make([]string, len(dimCols))}
			for j, c := range dimCols {
				g.labels[j] = c.Label(i)
			}
			groups[key] = g
			order = append(order, g)
		}
		if v, ok := values.Float(i); ok {
			g.sum += v
			g.count++
		}
	}

	slices.SortStableFunc(order, func(a, b *aggregatedGroup) int {
		for j := range a.labels {
			if c := compareLabels(a.labels[j], b.labels[j]); c != 0 {
				return c
			}
		}
		return 0
	})

	cols := make([]*model.Column, 0, len(dims)+1)
	for j, d := range dims {
		c := model.NewCategoricalColumn(d)
		for _, g := range order {
			c.AppendLabel(g.labels[j])
		}
		cols = append(cols, c)
	}
	out := model.NewNumericColumn(valueColumn)
	for _, g := range order {
		out.AppendFloat(g.result(mode))
	}
	cols = append(cols, out)
	return model.NewTable(cols...)
}

// compareLabels orders numbers numerically and everything else as text.
// Numbers sort before text.
func compareLabels(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(fa, fb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
