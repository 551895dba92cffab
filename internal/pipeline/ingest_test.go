package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-energy-dashboard/internal/model"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parquetObservation struct {
	Model        string  `parquet:"model"`
	Region       string  `parquet:"region"`
	PlanningYear int64   `parquet:"planning_year"`
	Time         int32   `parquet:"time"`
	Value        float64 `parquet:"value"`
}

func parquetBytes(t *testing.T, rows []parquetObservation) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[parquetObservation](&buf)
	_, err := w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func csvSource(name, text string) Source {
	r := strings.NewReader(text)
	return Source{Name: name, Data: r, Size: int64(r.Len())}
}

func TestReadCSVInfersColumnKinds(t *testing.T) {
	tbl := csvTable(t, `
"model", planning_year ,value,note
GenX,2030,1.5,
GenX,2040,2,late
`)
	require.Equal(t, []string{"model", "planning_year", "value", "note"}, tbl.ColumnNames())

	kinds := map[string]model.ColumnKind{}
	for _, c := range tbl.Columns() {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, model.Categorical, kinds["model"])
	assert.Equal(t, model.Categorical, kinds["planning_year"])
	assert.Equal(t, model.Numeric, kinds["value"])
	assert.Equal(t, model.Categorical, kinds["note"])

	note, _ := tbl.Column("note")
	assert.True(t, note.IsNull(0))
}

func TestReadCSVDropsEmptyRows(t *testing.T) {
	tbl := csvTable(t, `
region,value
A,1
,
 ,
B,2
`)
	assert.Equal(t, 2, tbl.NumRows())
}

func TestReadCSVRaggedRowIsMalformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("region,value\nA,1,extra\n"), "bad.csv", DefaultIngestOptions())
	assert.True(t, errors.Is(err, model.ErrMalformedFile))
}

func TestReadCSVHeaderOnly(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("region,value\n"), "empty.csv", DefaultIngestOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumColumns())

	tbl, err = ReadCSV(strings.NewReader(""), "blank.csv", DefaultIngestOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumColumns())
}

func TestReadParquet(t *testing.T) {
	data := parquetBytes(t, []parquetObservation{
		{Model: "GenX", Region: "A", PlanningYear: 2030, Time: 1, Value: 1.5},
		{Model: "GenX", Region: "B", PlanningYear: 2030, Time: 25, Value: 2},
	})

	tbl, err := ReadParquet(bytes.NewReader(data), int64(len(data)), "obs.parquet", DefaultIngestOptions())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"model", "region", "planning_year", "time", "value"}, tbl.ColumnNames())
	assert.Equal(t, "GenX", cell(t, tbl, "model", 0))
	assert.Equal(t, "B", cell(t, tbl, "region", 1))
	assert.Equal(t, "2030", cell(t, tbl, "planning_year", 0))
	assert.Equal(t, "1.5", cell(t, tbl, "value", 0))

	year, _ := tbl.Column("planning_year")
	assert.Equal(t, model.Categorical, year.Kind)
	tm, _ := tbl.Column("time")
	assert.Equal(t, model.Numeric, tm.Kind)
}

func TestReadParquetGarbage(t *testing.T) {
	data := []byte("definitely not parquet")
	_, err := ReadParquet(bytes.NewReader(data), int64(len(data)), "bad.parquet", DefaultIngestOptions())
	assert.True(t, errors.Is(err, model.ErrMalformedFile))
}

func TestLoadFilesConcatenatesFormats(t *testing.T) {
	pq := parquetBytes(t, []parquetObservation{
		{Model: "GenX", Region: "A", PlanningYear: 2030, Time: 26, Value: 3},
	})
	sources := []Source{
		csvSource("capacity.csv", "model,region,planning_year,capacity_type,value\nTEMOA,A,2030,New,4\n"),
		{Name: "timeseries.parquet", Data: bytes.NewReader(pq), Size: int64(len(pq))},
	}

	tbl, err := LoadFiles(sources, DefaultIngestOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, []string{"model", "region", "planning_year", "capacity_type", "value"}, tbl.ColumnNames()[:5])
	assert.ElementsMatch(t,
		[]string{"model", "region", "planning_year", "capacity_type", "value", "time", "hour_of_day", "month"},
		tbl.ColumnNames())

	assert.Equal(t, "TEMOA", cell(t, tbl, "model", 0))
	assert.Equal(t, "", cell(t, tbl, "time", 0))
	assert.Equal(t, "", cell(t, tbl, "hour_of_day", 0))
	assert.Equal(t, "GenX", cell(t, tbl, "model", 1))
	assert.Equal(t, "", cell(t, tbl, "capacity_type", 1))
	assert.Equal(t, "3", cell(t, tbl, "value", 1))
	assert.Equal(t, "1", cell(t, tbl, "hour_of_day", 1))
	assert.Equal(t, "1", cell(t, tbl, "month", 1))
}

func TestLoadFilesErrors(t *testing.T) {
	_, err := LoadFiles([]Source{csvSource("notes.txt", "hello")}, DefaultIngestOptions())
	assert.True(t, errors.Is(err, model.ErrUnsupportedFormat))

	_, err = LoadFiles([]Source{
		csvSource("good.csv", "region,value\nA,1\n"),
		csvSource("bad.csv", "region,value\nA,1,2\n"),
	}, DefaultIngestOptions())
	assert.True(t, errors.Is(err, model.ErrMalformedFile))

	tbl, err := LoadFiles(nil, DefaultIngestOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumColumns())
}

func TestLoadPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capacity.csv")
	require.NoError(t, os.WriteFile(path, []byte("region,value\nA,1\nB,2\n"), 0644))

	tbl, err := LoadPaths([]string{path}, DefaultIngestOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())

	_, err = LoadPaths([]string{filepath.Join(dir, "missing.csv")}, DefaultIngestOptions())
	assert.Error(t, err)
}

func TestAddTimeDimensions(t *testing.T) {
	tbl := csvTable(t, `
time,value
1,1
24,1
25,1
745,1
8760,1
,1
`)
	out := AddTimeDimensions(tbl)
	hour, ok := out.Column("hour_of_day")
	require.True(t, ok)
	month, ok := out.Column("month")
	require.True(t, ok)

	var hours, months []string
	for i := 0; i < out.NumRows(); i++ {
		hours = append(hours, hour.Label(i))
		months = append(months, month.Label(i))
	}
	assert.Equal(t, []string{"0", "23", "0", "0", "23", ""}, hours)
	assert.Equal(t, []string{"1", "1", "1", "2", "12", ""}, months)

	assert.Same(t, out, AddTimeDimensions(out))
}

func cell(t *testing.T, tbl *model.Table, column string, row int) string {
	t.Helper()
	c, ok := tbl.Column(column)
	require.True(t, ok, "column %s", column)
	return c.Label(row)
}
