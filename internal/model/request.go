package model

import (
	"fmt"
	"strings"
)

// Well-known column names of the observation table
const (
	CapacityTypeColumn = "capacity_type"
	ValueColumn        = "value"
	EndValueColumn     = "end_value"
	TimeColumn         = "time"
	HourOfDayColumn    = "hour_of_day"
	MonthColumn        = "month"
)

// NoneChannel is the dropdown choice that leaves a channel unset
const NoneChannel = "None"

// DefaultCategoricalColumns are typed as categorical on ingestion even when
// every cell looks numeric.
var DefaultCategoricalColumns = []string{
	"model", "scenario", "region", "variable", "type", "case",
	"tech_type", "capacity_type", "year", "planning_year",
	"hour_of_day", "month", "zone", "resource", "line",
}

// AggregateMode selects the reduction applied per group
type AggregateMode int

const (
	AggregateSum AggregateMode = iota
	AggregateMean
)

func (m AggregateMode) String() string {
	if m == AggregateMean {
		return "mean"
	}
	return "sum"
}

// ChartKind is the mark used to draw a grid
type ChartKind string

const (
	ChartLine      ChartKind = "line"
	ChartBar       ChartKind = "bar"
	ChartArea      ChartKind = "area"
	ChartErrorBand ChartKind = "errorband"
)

// ParseChartKind accepts the kind names used in query strings and flags
func ParseChartKind(s string) (ChartKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "line":
		return ChartLine, nil
	case "bar":
		return ChartBar, nil
	case "area", "stacked_area", "stacked-area":
		return ChartArea, nil
	case "errorband", "error_band", "error-band", "error_line":
		return ChartErrorBand, nil
	default:
		return "", fmt.Errorf("unknown chart kind: %s", s)
	}
}

// ChartRequest is the set of dashboard selections behind one chart, table or
// download.
type ChartRequest struct {
	X       string `json:"x"`
	Row     string `json:"row,omitempty"`
	Column  string `json:"col,omitempty"`
	Color   string `json:"color,omitempty"`
	Dash    string `json:"dash,omitempty"`
	Shape   string `json:"shape,omitempty"`
	Opacity string `json:"opacity,omitempty"`

	// AverageBy switches aggregation to MEAN and adds the column to the grid.
	AverageBy string `json:"avg_by,omitempty"`
	// CapacityTypes keeps only rows with these capacity_type labels. Nil
	// leaves the filter unset; an empty slice keeps nothing.
	CapacityTypes []string `json:"cap_types,omitempty"`
	// ValueColumn defaults to value, then end_value.
	ValueColumn string `json:"value,omitempty"`

	Kind    ChartKind `json:"kind,omitempty"`
	Context string    `json:"context,omitempty"`
	Title   string    `json:"title,omitempty"`
}

// Normalize resolves "None" channels to unset
func (r ChartRequest) Normalize() ChartRequest {
	r.X = ParseChannel(r.X)
	r.Row = ParseChannel(r.Row)
	r.Column = ParseChannel(r.Column)
	r.Color = ParseChannel(r.Color)
	r.Dash = ParseChannel(r.Dash)
	r.Shape = ParseChannel(r.Shape)
	r.Opacity = ParseChannel(r.Opacity)
	r.AverageBy = ParseChannel(r.AverageBy)
	if r.Kind == "" {
		r.Kind = ChartLine
	}
	return r
}

// Dimensions lists the set channels in grouping order, duplicates included
func (r ChartRequest) Dimensions() []string {
	r = r.Normalize()
	var dims []string
	for _, d := range []string{r.X, r.Column, r.Row, r.Color, r.Shape, r.Dash, r.Opacity} {
		if d != "" {
			dims = append(dims, d)
		}
	}
	return dims
}

// ParseChannel maps the "None" dropdown choice and blanks to ""
func ParseChannel(v string) string {
	v = strings.TrimSpace(v)
	if v == NoneChannel {
		return ""
	}
	return v
}

// TitleCase turns a column name into a display title: tech_type -> Tech Type
func TitleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// ResolveValueColumn picks the numeric column to aggregate. An explicit name
// must exist; otherwise value is preferred over end_value.
func ResolveValueColumn(t *Table, requested string) (string, error) {
	if requested != "" {
		if !t.HasColumn(requested) {
			return "", fmt.Errorf("%w: %s", ErrMissingValueColumn, requested)
		}
		return requested, nil
	}
	for _, name := range []string{ValueColumn, EndValueColumn} {
		if t.HasColumn(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: need %s or %s", ErrMissingValueColumn, ValueColumn, EndValueColumn)
}
