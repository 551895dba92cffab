package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultDownloadContext names downloads when the caller gives no context
const DefaultDownloadContext = "chart"

var unsafeName = regexp.MustCompile(`[^a-z0-9_]+`)

// DownloadName returns the fixed file name of a chart context's download,
// e.g. DownloadName("resource_capacity", "csv") is resource_capacity_data.csv.
func DownloadName(context, ext string) string {
	context = strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(context)), "_"), "_")
	if context == "" {
		context = DefaultDownloadContext
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "csv"
	}
	return fmt.Sprintf("%s_data.%s", context, ext)
}

// GetFileType determines the file type based on extension
func GetFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return "csv"
	case ".parquet", ".pq":
		return "parquet"
	case ".json":
		return "json"
	case ".xlsx", ".xls":
		return "excel"
	case ".html", ".htm":
		return "html"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type served for a file type
func ContentType(fileType string) string {
	switch fileType {
	case "csv":
		return "text/csv; charset=utf-8"
	case "excel":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "json":
		return "application/json"
	case "html":
		return "text/html; charset=utf-8"
	case "parquet":
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}
