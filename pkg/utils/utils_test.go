package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "resource_capacity_data.csv", DownloadName("resource_capacity", "csv"))
	assert.Equal(t, "chart_data.xlsx", DownloadName("", ".XLSX"))
	assert.Equal(t, "co2_emissions_data.csv", DownloadName(" CO2 Emissions ", ""))
	assert.Equal(t, "etc_passwd_data.csv", DownloadName("../etc/passwd", "csv"))
}

func TestGetFileType(t *testing.T) {
	assert.Equal(t, "csv", GetFileType("capacity.CSV"))
	assert.Equal(t, "parquet", GetFileType("dir/timeseries.parquet"))
	assert.Equal(t, "unknown", GetFileType("notes.txt"))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, ParseDuration("3s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("-1s", time.Minute))
}

func TestCellHelpers(t *testing.T) {
	assert.Equal(t, "tech_type", CleanHeader(` "tech_type" `))
	assert.True(t, IsBlank("  "))
	assert.True(t, IsBlank("NaN"))
	assert.False(t, IsBlank("0"))
	assert.True(t, IsNumeric(" 1e3"))
	assert.False(t, IsNumeric("2020s"))
	assert.Equal(t, []string{"New", "Retired"}, SplitList("New, ,Retired"))
	assert.Equal(t, []string{}, SplitList(""))
}
