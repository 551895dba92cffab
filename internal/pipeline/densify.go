package pipeline

import (
	"strings"

	"go-energy-dashboard/internal/model"

	"github.com/samber/lo"
)

// Densify reindexes table onto the cartesian product of the distinct values
// of each dimension, in first-seen order with the first dimension varying
// slowest. Combinations missing from the table get 0 in every numeric
// non-dimension column and null in categorical ones.
//
// No dimensions is the identity. A dimension with no values gives zero rows.
func Densify(table *model.Table, dimensions []string) (*model.Table, error) {
	dims := presentDimensions(table, dimensions)
	if len(dims) == 0 {
		return table, nil
	}

	dimCols := make([]*model.Column, len(dims))
	levels := make([][]string, len(dims))
	total := 1
	for j, d := range dims {
		dimCols[j], _ = table.Column(d)
		levels[j] = dimCols[j].Unique()
		total *= len(levels[j])
	}

	var rest []*model.Column
	for _, c := range table.Columns() {
		if !lo.Contains(dims, c.Name) {
			rest = append(rest, c)
		}
	}

	existing := make(map[string]int, table.NumRows())
	for i := 0; i < table.NumRows(); i++ {
		key := rowKey(dimCols, i)
		if _, dup := existing[key]; !dup {
			existing[key] = i
		}
	}

	outDims := make([]*model.Column, len(dims))
	for j, d := range dims {
		outDims[j] = model.NewCategoricalColumn(d)
	}
	outRest := make([]*model.Column, len(rest))
	for j, c := range rest {
		outRest[j] = model.NewColumnLike(c)
	}

	combo := make([]string, len(dims))
	pos := make([]int, len(dims))
	for n := 0; n < total; n++ {
		for j := range dims {
			combo[j] = levels[j][pos[j]]
			outDims[j].AppendLabel(combo[j])
		}
		src, found := existing[strings.Join(combo, keySep)]
		for j, c := range rest {
			switch {
			case found:
				outRest[j].AppendFrom(c, src)
			case c.Kind == model.Numeric:
				outRest[j].AppendFloat(0)
			default:
				outRest[j].AppendNull()
			}
		}
		for j := len(pos) - 1; j >= 0; j-- {
			pos[j]++
			if pos[j] < len(levels[j]) {
				break
			}
			pos[j] = 0
		}
	}

	return model.NewTable(append(outDims, outRest...)...)
}

func rowKey(cols []*model.Column, i int) string {
	parts := make([]string, len(cols))
	for j, c := range cols {
		parts[j] = c.Label(i)
	}
	return strings.Join(parts, keySep)
}
