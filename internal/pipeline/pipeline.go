package pipeline

import (
	"fmt"
	"time"

	"go-energy-dashboard/internal/model"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Grid is a prepared chart table together with what produced it
type Grid struct {
	Table       *model.Table       `json:"table"`
	Dimensions  []string           `json:"dimensions"`
	ValueColumn string             `json:"value_column"`
	Mode        string             `json:"mode"`
	Request     model.ChartRequest `json:"request"`
}

// Preparer turns an observation table and a set of dashboard selections
// into a dense aggregated grid.
type Preparer struct {
	logger *zap.Logger
}

// NewPreparer creates a Preparer. A nil logger discards output.
func NewPreparer(logger *zap.Logger) *Preparer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preparer{logger: logger}
}

// ------------------- Preparation Runner -------------------

// Prepare filters, aggregates and densifies table.
//
// If averageBy is set it joins the dimensions and the values are averaged,
// otherwise summed. capacityTypes follows FilterByCapacityType. A table with
// no columns (nothing uploaded) gives an empty grid.
func (p *Preparer) Prepare(table *model.Table, dimensions []string, valueColumn, averageBy string, capacityTypes []string) (*model.Table, error) {
	grid, err := p.prepare(table, dimensions, valueColumn, averageBy, capacityTypes)
	if err != nil {
		return nil, err
	}
	return grid.Table, nil
}

// PrepareChart runs Prepare with the dimensions and options of req
func (p *Preparer) PrepareChart(table *model.Table, req model.ChartRequest) (*Grid, error) {
	req = req.Normalize()
	grid, err := p.prepare(table, req.Dimensions(), req.ValueColumn, req.AverageBy, req.CapacityTypes)
	if err != nil {
		return nil, err
	}
	grid.Request = req
	return grid, nil
}

func (p *Preparer) prepare(table *model.Table, dimensions []string, valueColumn, averageBy string, capacityTypes []string) (*Grid, error) {
	start := time.Now()
	if table.NumColumns() == 0 {
		p.logger.Debug("No observation table, returning empty grid")
		return &Grid{Table: model.EmptyTable(), Mode: model.AggregateSum.String()}, nil
	}

	valueColumn, err := model.ResolveValueColumn(table, valueColumn)
	if err != nil {
		return nil, err
	}

	// --- FILTER STAGE ---
	filtered := FilterByCapacityType(table, capacityTypes)
	p.logger.Debug("Capacity type filter applied",
		zap.Int("rows_in", table.NumRows()),
		zap.Int("rows_out", filtered.NumRows()),
		zap.Strings("capacity_types", capacityTypes))

	// --- AGGREGATION STAGE ---
	mode := model.AggregateSum
	dims := append([]string(nil), dimensions...)
	if averageBy != "" {
		dims = append(dims, averageBy)
		mode = model.AggregateMean
	}
	dims = lo.Without(presentDimensions(filtered, dims), valueColumn)

	aggregated, err := Aggregate(filtered, dims, valueColumn, mode)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", valueColumn, err)
	}

	// --- DENSIFY STAGE ---
	dense, err := Densify(aggregated, dims)
	if err != nil {
		return nil, fmt.Errorf("densify: %w", err)
	}

	p.logger.Debug("Grid prepared",
		zap.Strings("dimensions", dims),
		zap.String("value_column", valueColumn),
		zap.Stringer("mode", mode),
		zap.Int("groups", aggregated.NumRows()),
		zap.Int("cells", dense.NumRows()),
		zap.Duration("took", time.Since(start)))

	return &Grid{
		Table:       dense,
		Dimensions:  dims,
		ValueColumn: valueColumn,
		Mode:        mode.String(),
	}, nil
}
