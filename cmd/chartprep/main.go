// Package main provides chartprep, an offline CLI over the chart preparation
// pipeline.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go-energy-dashboard/internal/chart"
	"go-energy-dashboard/internal/model"
	"go-energy-dashboard/internal/pipeline"
	"go-energy-dashboard/pkg/utils"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	files    []string
	req      model.ChartRequest
	capTypes string
	kind     string
	gridOut  string
	chartOut string
	limit    int
	verbose  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	rootCmd := &cobra.Command{
		Use:   "chartprep",
		Short: "Prepare dashboard chart grids from energy model outputs",
		Long: `chartprep loads CSV and Parquet outputs of energy models and runs the
dashboard preparation offline: filter by capacity type, aggregate by the
chosen channels and zero-fill every combination.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringSliceVarP(&o.files, "file", "f", nil, "Input CSV or Parquet file (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Log pipeline stages")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the columns of the input files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, o)
		},
	}

	prepareCmd := &cobra.Command{
		Use:   "prepare",
		Short: "Print or write the prepared grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, o)
		},
	}
	addChannelFlags(prepareCmd, o)
	prepareCmd.Flags().StringVarP(&o.gridOut, "out", "o", "", "Write the grid to a .csv or .xlsx file instead of printing it")
	prepareCmd.Flags().IntVar(&o.limit, "limit", 0, "Print at most this many rows (0 for all)")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render the prepared grid as an HTML chart page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, o)
		},
	}
	addChannelFlags(renderCmd, o)
	renderCmd.Flags().StringVar(&o.kind, "kind", "line", "Chart kind: line, bar, area, errorband")
	renderCmd.Flags().StringVarP(&o.chartOut, "out", "o", "chart.html", "Output HTML file")

	rootCmd.AddCommand(inspectCmd, prepareCmd, renderCmd)
	return rootCmd
}

func addChannelFlags(cmd *cobra.Command, o *options) {
	cmd.Flags().StringVar(&o.req.X, "x", "", "X axis column")
	cmd.Flags().StringVar(&o.req.Row, "row", "", "Facet row column")
	cmd.Flags().StringVar(&o.req.Column, "col", "", "Facet column column")
	cmd.Flags().StringVar(&o.req.Color, "color", "", "Color column")
	cmd.Flags().StringVar(&o.req.Dash, "dash", "", "Dash column")
	cmd.Flags().StringVar(&o.req.Shape, "shape", "", "Shape column")
	cmd.Flags().StringVar(&o.req.Opacity, "opacity", "", "Opacity column")
	cmd.Flags().StringVar(&o.req.AverageBy, "avg-by", "", "Average over this column instead of summing")
	cmd.Flags().StringVar(&o.capTypes, "cap-types", "", "Comma separated capacity types to keep")
	cmd.Flags().StringVar(&o.req.ValueColumn, "value", "", "Value column (default value, then end_value)")
	cmd.Flags().StringVar(&o.req.Title, "title", "", "Chart title")
}

func load(o *options) (*model.Table, error) {
	if len(o.files) == 0 {
		return nil, fmt.Errorf("at least one --file is required")
	}
	return pipeline.LoadPaths(o.files, pipeline.DefaultIngestOptions())
}

func newLogger(o *options) *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func prepare(cmd *cobra.Command, o *options) (*pipeline.Grid, error) {
	table, err := load(o)
	if err != nil {
		return nil, err
	}
	req := o.req
	if cmd.Flags().Changed("cap-types") {
		req.CapacityTypes = utils.SplitList(o.capTypes)
	}
	logger := newLogger(o)
	defer logger.Sync()
	return pipeline.NewPreparer(logger).PrepareChart(table, req)
}

func runInspect(cmd *cobra.Command, o *options) error {
	table, err := load(o)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d rows, %d columns\n", table.NumRows(), table.NumColumns())

	t := newTable(out)
	t.Header([]string{"Column", "Kind", "Distinct", "Nulls", "Sample"})
	for _, c := range table.Columns() {
		nulls := 0
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				nulls++
			}
		}
		levels := c.Unique()
		sample := ""
		if c.Kind == model.Categorical && len(levels) > 0 {
			sample = levels[0]
			if len(levels) > 1 {
				sample += ", " + levels[1]
			}
			if len(levels) > 2 {
				sample += ", ..."
			}
		}
		t.Append([]string{c.Name, c.Kind.String(), strconv.Itoa(len(levels)), strconv.Itoa(nulls), sample})
	}
	return t.Render()
}

func runPrepare(cmd *cobra.Command, o *options) error {
	grid, err := prepare(cmd, o)
	if err != nil {
		return err
	}

	if o.gridOut != "" {
		n, err := writeGrid(o.gridOut, grid.Table)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", n, o.gridOut)
		return nil
	}

	shown := grid.Table
	if o.limit > 0 {
		shown = shown.Slice(0, o.limit)
	}
	t := newTable(cmd.OutOrStdout())
	t.Header(shown.ColumnNames())
	for i := 0; i < shown.NumRows(); i++ {
		t.Append(shown.Row(i))
	}
	return t.Render()
}

func writeGrid(path string, table *model.Table) (int, error) {
	fileType := utils.GetFileType(path)
	if fileType != "excel" && fileType != "csv" {
		return 0, fmt.Errorf("%w: %s", model.ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if fileType == "excel" {
		return pipeline.WriteXLSX(f, table, pipeline.DefaultSheet)
	}
	return pipeline.WriteCSV(f, table)
}

func runRender(cmd *cobra.Command, o *options) error {
	kind, err := model.ParseChartKind(o.kind)
	if err != nil {
		return err
	}
	o.req.Kind = kind
	grid, err := prepare(cmd, o)
	if err != nil {
		return err
	}

	// build before creating the file so a rejected request leaves nothing behind
	page, err := chart.Build(grid, grid.Request, chart.Options{})
	if err != nil {
		return err
	}

	f, err := os.Create(o.chartOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", o.chartOut, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s chart to %s\n", kind, o.chartOut)
	return nil
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
	}))
}
