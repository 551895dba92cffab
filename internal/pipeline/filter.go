package pipeline

import (
	"go-energy-dashboard/internal/model"

	"github.com/samber/lo"
)

// FilterByCapacityType keeps rows whose capacity_type is one of allowedTypes.
// A table without capacity_type, or a nil allowedTypes, is returned as is; an
// empty non-nil allowedTypes keeps no rows.
func FilterByCapacityType(table *model.Table, allowedTypes []string) *model.Table {
	col, ok := table.Column(model.CapacityTypeColumn)
	if !ok || allowedTypes == nil {
		return table
	}

	allowed := lo.SliceToMap(allowedTypes, func(s string) (string, bool) { return s, true })
	var keep []int
	for i := 0; i < table.NumRows(); i++ {
		if !col.IsNull(i) && allowed[col.Label(i)] {
			keep = append(keep, i)
		}
	}
	return table.Take(keep)
}

// presentDimensions drops names the table does not have and de-duplicates
// the rest, keeping first occurrence.
func presentDimensions(table *model.Table, dimensions []string) []string {
	return lo.Uniq(lo.Filter(dimensions, func(d string, _ int) bool {
		return d != "" && table.HasColumn(d)
	}))
}

// SplitByTime separates capacity rows (no time) from time-series rows
func SplitByTime(table *model.Table) (capacity, timeSeries *model.Table) {
	col, ok := table.Column(model.TimeColumn)
	if !ok {
		return table, table.Take(nil)
	}
	var c, ts []int
	for i := 0; i < table.NumRows(); i++ {
		if col.IsNull(i) {
			c = append(c, i)
		} else {
			ts = append(ts, i)
		}
	}
	return table.Take(c), table.Take(ts)
}
