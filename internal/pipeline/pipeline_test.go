package pipeline

import (
	"errors"
	"math"
	"strings"
	"testing"

	"go-energy-dashboard/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const capacityCSV = `
model,case,region,planning_year,tech_type,capacity_type,value
GenX,base,A,2030,solar,New,10
GenX,base,A,2030,solar,Retired,2
GenX,base,B,2030,wind,New,4
GenX,high,A,2040,solar,New,6
TEMOA,base,A,2030,solar,New,8
TEMOA,base,B,2040,wind,Total,3
`

func TestAggregateAndDensifyExample(t *testing.T) {
	tbl := csvTable(t, `
region,year,value
A,2020,10
A,2021,5
B,2020,7
`)
	dims := []string{"region", "year"}
	agg, err := Aggregate(tbl, dims, "value", model.AggregateSum)
	require.NoError(t, err)

	dense, err := Densify(agg, dims)
	require.NoError(t, err)

	want := [][]string{
		{"A", "2020", "10"},
		{"A", "2021", "5"},
		{"B", "2020", "7"},
		{"B", "2021", "0"},
	}
	if diff := cmp.Diff(want, rowsOf(dense)); diff != "" {
		t.Errorf("densified grid mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"region", "year", "value"}, dense.ColumnNames())
}

func TestDensifyRowCountIsProductOfDistinctValues(t *testing.T) {
	tbl := csvTable(t, capacityCSV)
	for _, dims := range [][]string{
		{"model"},
		{"model", "case"},
		{"region", "planning_year", "tech_type"},
		{"model", "case", "region", "planning_year", "tech_type", "capacity_type"},
	} {
		agg, err := Aggregate(tbl, dims, "value", model.AggregateSum)
		require.NoError(t, err)
		dense, err := Densify(agg, dims)
		require.NoError(t, err)

		want := 1
		for _, d := range dims {
			c, _ := tbl.Column(d)
			want *= len(c.Unique())
		}
		assert.Equal(t, want, dense.NumRows(), "dims %v", dims)
	}
}

func TestDensifyPreservesSum(t *testing.T) {
	tbl := csvTable(t, capacityCSV)
	dims := []string{"model", "region", "planning_year"}
	agg, err := Aggregate(tbl, dims, "value", model.AggregateSum)
	require.NoError(t, err)
	dense, err := Densify(agg, dims)
	require.NoError(t, err)

	assert.InDelta(t, sumColumn(t, tbl, "value"), sumColumn(t, dense, "value"), 1e-9)
}

func TestDensifyZeroFillsMissingCombinations(t *testing.T) {
	tbl := csvTable(t, capacityCSV)
	dims := []string{"model", "case"}
	agg, err := Aggregate(tbl, dims, "value", model.AggregateSum)
	require.NoError(t, err)
	dense, err := Densify(agg, dims)
	require.NoError(t, err)

	want := [][]string{
		{"GenX", "base", "16"},
		{"GenX", "high", "6"},
		{"TEMOA", "base", "11"},
		{"TEMOA", "high", "0"},
	}
	assert.Equal(t, want, rowsOf(dense))
}

func TestDensifyEdgeCases(t *testing.T) {
	tbl := csvTable(t, capacityCSV)
	agg, err := Aggregate(tbl, nil, "value", model.AggregateSum)
	require.NoError(t, err)

	same, err := Densify(agg, nil)
	require.NoError(t, err)
	assert.Same(t, agg, same)
	assert.Equal(t, [][]string{{"33"}}, rowsOf(same))

	empty := tbl.Take(nil)
	dims := []string{"region", "planning_year"}
	agg, err = Aggregate(empty, dims, "value", model.AggregateSum)
	require.NoError(t, err)
	dense, err := Densify(agg, dims)
	require.NoError(t, err)
	assert.Equal(t, 0, dense.NumRows())
	assert.Equal(t, []string{"region", "planning_year", "value"}, dense.ColumnNames())
}

func TestAggregateDropsUnknownAndDuplicateDimensions(t *testing.T) {
	tbl := csvTable(t, capacityCSV)

	once, err := Aggregate(tbl, []string{"region"}, "value", model.AggregateSum)
	require.NoError(t, err)
	twice, err := Aggregate(tbl, []string{"region", "zone_id", "region", ""}, "value", model.AggregateSum)
	require.NoError(t, err)

	assert.Equal(t, rowsOf(once), rowsOf(twice))
	assert.Equal(t, once.ColumnNames(), twice.ColumnNames())
	assert.Equal(t, [][]string{{"A", "26"}, {"B", "7"}}, rowsOf(once))
}

func TestAggregateMean(t *testing.T) {
	tbl := csvTable(t, capacityCSV)
	agg, err := Aggregate(tbl, []string{"model"}, "value", model.AggregateMean)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"GenX", "5.5"}, {"TEMOA", "5.5"}}, rowsOf(agg))
}

func TestAggregateWholeTable(t *testing.T) {
	tbl := csvTable(t, capacityCSV)
	agg, err := Aggregate(tbl, []string{"not_a_column"}, "value", model.AggregateMean)
	require.NoError(t, err)
	require.Equal(t, 1, agg.NumRows())
	assert.Equal(t, []string{"value"}, agg.ColumnNames())
	assert.Equal(t, "5.5", agg.Row(0)[0])
}

func TestAggregateSortsNumericLabelsNumerically(t *testing.T) {
	tbl := csvTable(t, `
hour_of_day,value
10,1
9,1
2,1
10,1
`)
	agg, err := Aggregate(tbl, []string{"hour_of_day"}, "value", model.AggregateSum)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2", "1"}, {"9", "1"}, {"10", "2"}}, rowsOf(agg))
}

func TestAggregateNullHandling(t *testing.T) {
	tbl := csvTable(t, `
region,value
A,1
A,
,5
B,
`)
	sum, err := Aggregate(tbl, []string{"region"}, "value", model.AggregateSum)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "1"}, {"B", "0"}}, rowsOf(sum))

	mean, err := Aggregate(tbl, []string{"region"}, "value", model.AggregateMean)
	require.NoError(t, err)
	col, _ := mean.Column("value")
	assert.Equal(t, "1", col.Label(0))
	assert.True(t, col.IsNull(1))
}

func TestAggregateMissingValueColumn(t *testing.T) {
	tbl := csvTable(t, capacityCSV)
	_, err := Aggregate(tbl, []string{"region"}, "end_value", model.AggregateSum)
	assert.True(t, errors.Is(err, model.ErrMissingValueColumn))
}

func TestFilterByCapacityType(t *testing.T) {
	tbl := csvTable(t, capacityCSV)

	kept := FilterByCapacityType(tbl, []string{"New"})
	col, _ := kept.Column("capacity_type")
	assert.Equal(t, []string{"New"}, col.Unique())
	assert.Equal(t, 4, kept.NumRows())

	assert.Same(t, tbl, FilterByCapacityType(tbl, nil))
	assert.Equal(t, 0, FilterByCapacityType(tbl, []string{}).NumRows())

	noCapType := csvTable(t, "region,value\nA,1\n")
	assert.Same(t, noCapType, FilterByCapacityType(noCapType, []string{"New"}))
}

func TestPrepare(t *testing.T) {
	tbl := csvTable(t, capacityCSV)
	p := NewPreparer(zap.NewNop())

	grid, err := p.Prepare(tbl, []string{"model", "planning_year"}, "", "", []string{"New"})
	require.NoError(t, err)
	want := [][]string{
		{"GenX", "2030", "14"},
		{"GenX", "2040", "6"},
		{"TEMOA", "2030", "8"},
		{"TEMOA", "2040", "0"},
	}
	assert.Equal(t, want, rowsOf(grid))
}

func TestPrepareAverageBy(t *testing.T) {
	tbl := csvTable(t, capacityCSV)
	p := NewPreparer(nil)

	grid, err := p.Prepare(tbl, []string{"region"}, "value", "model", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "model", "value"}, grid.ColumnNames())
	want := [][]string{
		{"A", "GenX", "6"},
		{"A", "TEMOA", "8"},
		{"B", "GenX", "4"},
		{"B", "TEMOA", "3"},
	}
	assert.Equal(t, want, rowsOf(grid))
}

func TestPrepareIsDeterministic(t *testing.T) {
	tbl := csvTable(t, capacityCSV)
	p := NewPreparer(nil)
	req := model.ChartRequest{X: "planning_year", Row: "case", Column: "tech_type", Color: "model", Dash: "None"}

	first, err := p.PrepareChart(tbl, req)
	require.NoError(t, err)
	var a, b strings.Builder
	_, err = WriteCSV(&a, first.Table)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := p.PrepareChart(tbl, req)
		require.NoError(t, err)
		b.Reset()
		_, err = WriteCSV(&b, again.Table)
		require.NoError(t, err)
		assert.Equal(t, a.String(), b.String())
	}
	assert.Equal(t, []string{"planning_year", "tech_type", "case", "model"}, first.Dimensions)
	assert.Equal(t, "value", first.ValueColumn)
	assert.Equal(t, 2*2*2*2, first.Table.NumRows())
}

func TestPrepareWithoutUpload(t *testing.T) {
	grid, err := NewPreparer(nil).Prepare(model.EmptyTable(), []string{"region", "year"}, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, grid.NumRows())
}

func TestPrepareMissingValueColumn(t *testing.T) {
	tbl := csvTable(t, "region,capacity\nA,1\n")
	_, err := NewPreparer(nil).Prepare(tbl, []string{"region"}, "", "", nil)
	assert.True(t, errors.Is(err, model.ErrMissingValueColumn))
}

func TestPrepareEndValue(t *testing.T) {
	tbl := csvTable(t, "region,end_value\nA,1\nA,2\nB,4\n")
	grid, err := NewPreparer(nil).PrepareChart(tbl, model.ChartRequest{X: "region"})
	require.NoError(t, err)
	assert.Equal(t, "end_value", grid.ValueColumn)
	assert.Equal(t, [][]string{{"A", "3"}, {"B", "4"}}, rowsOf(grid.Table))
}

func TestSplitByTime(t *testing.T) {
	tbl := csvTable(t, `
region,time,value
A,,10
A,1,2
B,2,3
`)
	capacity, ts := SplitByTime(tbl)
	assert.Equal(t, 1, capacity.NumRows())
	assert.Equal(t, 2, ts.NumRows())

	noTime := csvTable(t, "region,value\nA,1\n")
	capacity, ts = SplitByTime(noTime)
	assert.Same(t, noTime, capacity)
	assert.Equal(t, 0, ts.NumRows())
}

func sumColumn(t *testing.T, tbl *model.Table, name string) float64 {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok)
	total := 0.0
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Float(i); ok && !math.IsNaN(v) {
			total += v
		}
	}
	return total
}
