package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go-energy-dashboard/internal/model"
	"go-energy-dashboard/pkg/utils"

	"github.com/parquet-go/parquet-go"
	"github.com/samber/lo"
)

// Source is one uploaded file
type Source struct {
	Name string
	Data io.ReaderAt
	Size int64
}

// IngestOptions controls how uploaded files become an observation table
type IngestOptions struct {
	// Categorical columns are typed categorical even if every cell is numeric.
	Categorical []string
	// DeriveTimeDimensions adds hour_of_day and month from a time column.
	DeriveTimeDimensions bool
}

// DefaultIngestOptions types the usual energy-model dimensions as categorical
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		Categorical:          model.DefaultCategoricalColumns,
		DeriveTimeDimensions: true,
	}
}

// ------------------- Ingestion -------------------

// LoadFiles reads every source and concatenates them into one observation
// table. No sources give the empty table. Any unreadable source fails the
// whole load.
func LoadFiles(sources []Source, opts IngestOptions) (*model.Table, error) {
	if len(sources) == 0 {
		return model.EmptyTable(), nil
	}
	tables := make([]*model.Table, 0, len(sources))
	for _, src := range sources {
		t, err := ReadSource(src, opts)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	table := model.Concat(tables...)
	if opts.DeriveTimeDimensions {
		table = AddTimeDimensions(table)
	}
	return table, nil
}

// LoadPaths opens files from disk and loads them with LoadFiles
func LoadPaths(paths []string, opts IngestOptions) (*model.Table, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", p, err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		sources = append(sources, Source{Name: p, Data: f, Size: info.Size()})
	}
	return LoadFiles(sources, opts)
}

// ReadSource reads one source according to its extension
func ReadSource(src Source, opts IngestOptions) (*model.Table, error) {
	switch utils.GetFileType(src.Name) {
	case "csv":
		return ReadCSV(io.NewSectionReader(src.Data, 0, src.Size), src.Name, opts)
	case "parquet":
		return ReadParquet(src.Data, src.Size, src.Name, opts)
	default:
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedFormat, src.Name)
	}
}

// ------------------- CSV Ingestion -------------------

// ReadCSV parses a CSV file whose first row is the header. Rows with every
// cell blank are dropped. A column is numeric when every non-blank cell is a
// number and it is not listed in opts.Categorical.
func ReadCSV(r io.Reader, name string, opts IngestOptions) (*model.Table, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	csvReader.ReuseRecord = false

	headers, err := csvReader.Read()
	if err == io.EOF {
		return model.EmptyTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to read CSV header: %v", model.ErrMalformedFile, name, err)
	}
	for i, h := range headers {
		headers[i] = utils.CleanHeader(h)
	}

	var records [][]string
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrMalformedFile, name, err)
		}
		if lo.EveryBy(record, utils.IsBlank) {
			continue
		}
		records = append(records, record)
	}

	categorical := lo.SliceToMap(opts.Categorical, func(s string) (string, bool) { return s, true })
	cols := make([]*model.Column, len(headers))
	for j, h := range headers {
		numeric := !categorical[h]
		for _, rec := range records {
			if numeric && !utils.IsBlank(rec[j]) && !utils.IsNumeric(rec[j]) {
				numeric = false
				break
			}
		}
		if numeric {
			cols[j] = model.NewNumericColumn(h)
		} else {
			cols[j] = model.NewCategoricalColumn(h)
		}
		for _, rec := range records {
			cell := strings.TrimSpace(rec[j])
			if utils.IsBlank(cell) {
				cols[j].AppendNull()
			} else {
				cols[j].AppendLabel(cell)
			}
		}
	}

	table, err := model.NewTable(cols...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrMalformedFile, name, err)
	}
	return table, nil
}

// ------------------- Parquet Ingestion -------------------

// ReadParquet reads a flat Parquet file. Integer and floating point columns
// are numeric unless listed in opts.Categorical; everything else is
// categorical. Rows whose values are all null are dropped.
func ReadParquet(r io.ReaderAt, size int64, name string, opts IngestOptions) (*model.Table, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to open Parquet file: %v", model.ErrMalformedFile, name, err)
	}

	schema := pf.Schema()
	paths := schema.Columns()
	categorical := lo.SliceToMap(opts.Categorical, func(s string) (string, bool) { return s, true })

	cols := make([]*model.Column, len(paths))
	for j, path := range paths {
		colName := strings.Join(path, ".")
		leaf, ok := schema.Lookup(path...)
		if !ok {
			return nil, fmt.Errorf("%w: %s: column %s not in schema", model.ErrMalformedFile, name, colName)
		}
		if leaf.MaxRepetitionLevel > 0 {
			return nil, fmt.Errorf("%w: %s: repeated column %s is not supported", model.ErrMalformedFile, name, colName)
		}
		if isNumericKind(leaf.Node.Type().Kind()) && !categorical[colName] {
			cols[j] = model.NewNumericColumn(colName)
		} else {
			cols[j] = model.NewCategoricalColumn(colName)
		}
	}

	buf := make([]parquet.Row, 256)
	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(rg, buf, cols); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrMalformedFile, name, err)
		}
	}

	return model.NewTable(cols...)
}

func readRowGroup(rg parquet.RowGroup, buf []parquet.Row, cols []*model.Column) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			appendParquetRow(row, cols)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func appendParquetRow(row parquet.Row, cols []*model.Column) {
	allNull := true
	for _, v := range row {
		if !v.IsNull() {
			allNull = false
			break
		}
	}
	if allNull {
		return
	}

	seen := make([]bool, len(cols))
	for _, v := range row {
		j := v.Column()
		if j < 0 || j >= len(cols) || seen[j] {
			continue
		}
		seen[j] = true
		appendParquetValue(cols[j], v)
	}
	for j, ok := range seen {
		if !ok {
			cols[j].AppendNull()
		}
	}
}

func appendParquetValue(c *model.Column, v parquet.Value) {
	if v.IsNull() {
		c.AppendNull()
		return
	}
	switch v.Kind() {
	case parquet.Int32:
		c.AppendFloat(float64(v.Int32()))
	case parquet.Int64:
		c.AppendFloat(float64(v.Int64()))
	case parquet.Float:
		c.AppendFloat(float64(v.Float()))
	case parquet.Double:
		c.AppendFloat(v.Double())
	case parquet.Boolean:
		c.AppendLabel(strconv.FormatBool(v.Boolean()))
	case parquet.ByteArray, parquet.FixedLenByteArray:
		c.AppendLabel(string(v.ByteArray()))
	default:
		c.AppendLabel(v.String())
	}
}

func isNumericKind(k parquet.Kind) bool {
	switch k {
	case parquet.Int32, parquet.Int64, parquet.Float, parquet.Double:
		return true
	default:
		return false
	}
}

// ------------------- Derived Dimensions -------------------

var daysPerMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// AddTimeDimensions derives hour_of_day (0-23) and month (1-12) from an
// hourly time column numbered 1..8760. Existing columns are left alone and
// rows without a time get nulls.
func AddTimeDimensions(table *model.Table) *model.Table {
	timeCol, ok := table.Column(model.TimeColumn)
	if !ok {
		return table
	}
	addHour := !table.HasColumn(model.HourOfDayColumn)
	addMonth := !table.HasColumn(model.MonthColumn)
	if !addHour && !addMonth {
		return table
	}

	hour := model.NewCategoricalColumn(model.HourOfDayColumn)
	month := model.NewCategoricalColumn(model.MonthColumn)
	for i := 0; i < table.NumRows(); i++ {
		t, ok := timeCol.Float(i)
		if !ok || t < 1 {
			hour.AppendNull()
			month.AppendNull()
			continue
		}
		h := int(t) - 1
		hour.AppendLabel(strconv.Itoa(h % 24))
		month.AppendLabel(strconv.Itoa(monthOfHour(h)))
	}

	cols := table.Columns()
	if addHour {
		cols = append(cols, hour)
	}
	if addMonth {
		cols = append(cols, month)
	}
	return model.MustTable(cols...)
}

func monthOfHour(h int) int {
	day := (h / 24) % 365
	for m, n := range daysPerMonth {
		if day < n {
			return m + 1
		}
		day -= n
	}
	return 12
}
