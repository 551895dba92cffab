package model

import "errors"

var (
	// ErrMissingValueColumn means the column to aggregate is not in the table.
	ErrMissingValueColumn = errors.New("value column not found")
	// ErrUnsupportedFormat means an uploaded file is neither CSV nor Parquet.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrMalformedFile means an uploaded file could not be parsed.
	ErrMalformedFile = errors.New("malformed file")
	// ErrNoXAxis means a chart was requested without an x channel.
	ErrNoXAxis = errors.New("chart requires an x variable")
	// ErrSessionNotFound means no live session has the requested id.
	ErrSessionNotFound = errors.New("session not found")
)
