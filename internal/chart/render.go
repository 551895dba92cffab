package chart

import (
	"io"
	"math"

	"go-energy-dashboard/internal/model"
	"go-energy-dashboard/internal/pipeline"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// DefaultPageTitle is used when neither the options nor the request name the page
const DefaultPageTitle = "Energy Dashboard"

// Options control the size of each facet and the page title
type Options struct {
	Width  string
	Height string
	Title  string
}

func (o Options) withDefaults() Options {
	if o.Width == "" {
		o.Width = "100%"
	}
	if o.Height == "" {
		o.Height = "450px"
	}
	if o.Title == "" {
		o.Title = DefaultPageTitle
	}
	return o
}

// Build lays out the grid as a page with one chart per facet
func Build(grid *pipeline.Grid, req model.ChartRequest, o Options) (*components.Page, error) {
	fig, err := Plan(grid, req)
	if err != nil {
		return nil, err
	}
	if o.Title == "" {
		o.Title = req.Title
	}
	o = o.withDefaults()

	page := components.NewPage()
	page.PageTitle = o.Title
	page.SetLayout(components.PageFlexLayout)

	req = req.Normalize()
	showSymbols := req.Dash == "" || req.Shape != ""
	for _, facet := range fig.Facets {
		switch fig.Kind {
		case model.ChartBar:
			page.AddCharts(barChart(fig, facet, o))
		default:
			page.AddCharts(lineChart(fig, facet, o, showSymbols))
		}
	}
	return page, nil
}

// Render writes the HTML page of the grid to w
func Render(w io.Writer, grid *pipeline.Grid, req model.ChartRequest, o Options) error {
	page, err := Build(grid, req, o)
	if err != nil {
		return err
	}
	return page.Render(w)
}

func globalOptions(fig *Figure, facet *Facet, o Options) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{
			Title: facet.Title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "bottom",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: fig.XTitle,
			Type: "category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: fig.YTitle,
			Type: "value",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  o.Width,
			Height: o.Height,
		}),
	}
}

func lineChart(fig *Figure, facet *Facet, o Options, showSymbols bool) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globalOptions(fig, facet, o)...)
	line.SetXAxis(fig.XLabels)

	for _, s := range facet.Series {
		lineOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{
				ShowSymbol: opts.Bool(showSymbols),
				Symbol:     s.Symbol,
			}),
			charts.WithLineStyleOpts(opts.LineStyle{
				Type:    s.Dash,
				Opacity: s.Opacity,
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{
				Opacity: s.Opacity,
			}),
		}

		switch fig.Kind {
		case model.ChartArea:
			lineOpts[0] = charts.WithLineChartOpts(opts.LineChart{
				Stack:      "total",
				ShowSymbol: opts.Bool(false),
			})
			lineOpts = append(lineOpts, charts.WithAreaStyleOpts(opts.AreaStyle{
				Opacity: 0.6 * s.Opacity,
			}))
		case model.ChartErrorBand:
			line.AddSeries(s.Name+" (low)", lineData(s.Low), bandOpts(s)...)
			line.AddSeries(s.Name+" (high)", lineData(s.High), bandOpts(s)...)
		}
		line.AddSeries(s.Name, lineData(s.Values), lineOpts...)
	}
	return line
}

// bandOpts draws the standard error bounds as faint unmarked lines
func bandOpts(s *Series) []charts.SeriesOpts {
	return []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			ShowSymbol: opts.Bool(false),
		}),
		charts.WithLineStyleOpts(opts.LineStyle{
			Type:    "dotted",
			Opacity: 0.4 * s.Opacity,
		}),
	}
}

func barChart(fig *Figure, facet *Facet, o Options) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions(fig, facet, o)...)
	bar.SetXAxis(fig.XLabels)

	for _, s := range facet.Series {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: cellValue(v)}
		}
		bar.AddSeries(s.Name, data,
			charts.WithBarChartOpts(opts.BarChart{
				Stack: "total",
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{
				Opacity: s.Opacity,
			}),
		)
	}
	return bar
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: cellValue(v)}
	}
	return data
}

// cellValue leaves gaps for missing buckets
func cellValue(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
