package model

import "time"

// Session statuses kept in the catalog
const (
	SessionActive  = "active"
	SessionFailed  = "failed"
	SessionExpired = "expired"
	SessionDeleted = "deleted"
)

// FileInfo describes one uploaded file of a session
type FileInfo struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Format string `json:"format"`
}

// SessionRecord is the catalog entry of an upload session. It never holds
// the uploaded table itself.
type SessionRecord struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	RowCount  int        `json:"row_count"`
	Columns   []string   `json:"columns"`
	Files     []FileInfo `json:"files,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SessionError is a failure recorded against a session
type SessionError struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ColumnSummary describes a column for the dashboard dropdowns. Values lists
// the distinct labels of categorical columns.
type ColumnSummary struct {
	Name   string     `json:"name"`
	Kind   ColumnKind `json:"kind"`
	Values []string   `json:"values,omitempty"`
}

// Summarize lists the columns of t in table order
func Summarize(t *Table) []ColumnSummary {
	out := make([]ColumnSummary, 0, t.NumColumns())
	for _, c := range t.Columns() {
		s := ColumnSummary{Name: c.Name, Kind: c.Kind}
		if c.Kind == Categorical {
			s.Values = c.Unique()
		}
		out = append(out, s)
	}
	return out
}
