package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	assert.Equal(t, "", ParseChannel("None"))
	assert.Equal(t, "", ParseChannel("  "))
	assert.Equal(t, "region", ParseChannel(" region "))
}

func TestDimensionsOrderAndNone(t *testing.T) {
	req := ChartRequest{
		X:      "planning_year",
		Row:    "case",
		Column: "tech_type",
		Color:  "model",
		Dash:   "None",
	}
	assert.Equal(t, []string{"planning_year", "tech_type", "case", "model"}, req.Dimensions())
}

func TestDimensionsKeepDuplicates(t *testing.T) {
	req := ChartRequest{X: "region", Color: "region"}
	assert.Equal(t, []string{"region", "region"}, req.Dimensions())
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Tech Type", TitleCase("tech_type"))
	assert.Equal(t, "Planning Year", TitleCase("PLANNING_YEAR"))
	assert.Equal(t, "Case", TitleCase("case"))
	assert.Equal(t, "", TitleCase(""))
}

func TestParseChartKind(t *testing.T) {
	k, err := ParseChartKind("stacked_area")
	require.NoError(t, err)
	assert.Equal(t, ChartArea, k)

	k, err = ParseChartKind("")
	require.NoError(t, err)
	assert.Equal(t, ChartLine, k)

	_, err = ParseChartKind("pie")
	assert.Error(t, err)
}

func TestResolveValueColumn(t *testing.T) {
	withEnd := MustTable(numbers("end_value", 1))
	name, err := ResolveValueColumn(withEnd, "")
	require.NoError(t, err)
	assert.Equal(t, "end_value", name)

	both := MustTable(numbers("end_value", 1), numbers("value", 1))
	name, err = ResolveValueColumn(both, "")
	require.NoError(t, err)
	assert.Equal(t, "value", name)

	_, err = ResolveValueColumn(both, "start_value")
	assert.True(t, errors.Is(err, ErrMissingValueColumn))

	_, err = ResolveValueColumn(MustTable(labels("region", "A")), "")
	assert.True(t, errors.Is(err, ErrMissingValueColumn))
}
