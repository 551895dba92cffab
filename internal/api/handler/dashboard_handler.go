package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"go-energy-dashboard/internal/chart"
	"go-energy-dashboard/internal/model"
	"go-energy-dashboard/internal/pipeline"
	"go-energy-dashboard/internal/session"
	"go-energy-dashboard/pkg/router"
	"go-energy-dashboard/pkg/utils"

	"go.uber.org/zap"
)

// DefaultMaxUpload bounds the multipart body of an upload
const DefaultMaxUpload = 256 << 20

// Catalog is the read side of the session catalog. store.DB implements it.
type Catalog interface {
	ListSessions() ([]model.SessionRecord, error)
	GetSessionErrors(sessionID string) ([]model.SessionError, error)
}

// Handler serves the dashboard API
type Handler struct {
	sessions  *session.Manager
	catalog   Catalog
	preparer  *pipeline.Preparer
	logger    *zap.Logger
	maxUpload int64
}

// New creates a Handler. A nil catalog lists live sessions only.
func New(sessions *session.Manager, catalog Catalog, logger *zap.Logger, maxUpload int64) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Handler{
		sessions:  sessions,
		catalog:   catalog,
		preparer:  pipeline.NewPreparer(logger),
		logger:    logger,
		maxUpload: maxUpload,
	}
}

// CreateSession uploads files into a new dashboard session
// @Summary Upload files
// @Description Load one or more CSV or Parquet files into a new session. Files are concatenated by column name.
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "CSV or Parquet files"
// @Success 201 {object} session.Summary "Session created"
// @Failure 400 {string} string "Malformed file or missing upload"
// @Failure 415 {string} string "Unsupported file format"
// @Router /sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart upload", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "At least one file is required", http.StatusBadRequest)
		return
	}

	sources := make([]pipeline.Source, 0, len(headers))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}
		opened = append(opened, f)
		sources = append(sources, pipeline.Source{Name: fh.Filename, Data: f, Size: fh.Size})
	}

	s, err := h.sessions.Create(sources)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, s.Summary())
}

// ListSessions lists the session catalog
// @Summary List sessions
// @Description List every session recorded in the catalog, including failed and expired ones
// @Tags sessions
// @Produce json
// @Success 200 {object} map[string]interface{} "Session catalog"
// @Failure 500 {string} string "Internal server error"
// @Router /sessions [get]
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	var records []model.SessionRecord
	if h.catalog != nil {
		var err error
		if records, err = h.catalog.ListSessions(); err != nil {
			h.writeError(w, r, err)
			return
		}
	} else {
		for _, s := range h.sessions.List() {
			records = append(records, model.SessionRecord{
				ID:        s.ID,
				Status:    model.SessionActive,
				RowCount:  s.Table.NumRows(),
				Columns:   s.Table.ColumnNames(),
				Files:     s.Files,
				CreatedAt: s.CreatedAt,
			})
		}
	}
	if records == nil {
		records = []model.SessionRecord{}
	}
	h.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"sessions": records,
		"count":    len(records),
	})
}

// GetSession describes a live session
// @Summary Get session
// @Description Columns, kinds and the distinct values of categorical columns, used to fill the dashboard dropdowns
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Summary "Session summary"
// @Failure 404 {string} string "Session not found"
// @Router /sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, s.Summary())
}

// DeleteSession drops a session
// @Summary Delete session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204 "Session deleted"
// @Failure 404 {string} string "Session not found"
// @Router /sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(router.Param(r, 3)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSessionErrors lists the errors recorded for a session
// @Summary Get session errors
// @Description Errors recorded in the catalog, such as a rejected upload
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{} "Session errors"
// @Failure 500 {string} string "Internal server error"
// @Router /sessions/{id}/errors [get]
func (h *Handler) GetSessionErrors(w http.ResponseWriter, r *http.Request) {
	id := router.Param(r, 3)
	errs := []model.SessionError{}
	if h.catalog != nil {
		found, err := h.catalog.GetSessionErrors(id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		errs = append(errs, found...)
	}
	h.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"session_id": id,
		"errors":     errs,
		"count":      len(errs),
	})
}

// GetData pages through the raw observation table
// @Summary Get session data
// @Tags data
// @Produce json
// @Param id path string true "Session ID"
// @Param limit query int false "Rows per page, 0 for all" default(100)
// @Param offset query int false "First row"
// @Success 200 {object} map[string]interface{} "Table page"
// @Failure 400 {string} string "Invalid paging"
// @Failure 404 {string} string "Session not found"
// @Router /sessions/{id}/data [get]
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	limit, err := intParam(r.URL.Query(), "limit", 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := intParam(r.URL.Query(), "offset", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"total":  s.Table.NumRows(),
		"offset": offset,
		"limit":  limit,
		"table":  s.Table.Slice(offset, limit),
	})
}

// GetGrid prepares the dense chart grid for a set of selections
// @Summary Prepare grid
// @Description Filter by capacity type, aggregate by the selected channels and zero-fill every combination
// @Tags data
// @Produce json
// @Param id path string true "Session ID"
// @Param x query string false "X axis column"
// @Param row query string false "Facet row column"
// @Param col query string false "Facet column column"
// @Param color query string false "Color column"
// @Param dash query string false "Dash column"
// @Param shape query string false "Shape column"
// @Param opacity query string false "Opacity column"
// @Param avg_by query string false "Average over this column instead of summing"
// @Param cap_types query string false "Comma separated capacity types to keep"
// @Param value query string false "Value column, defaults to value then end_value"
// @Success 200 {object} pipeline.Grid "Prepared grid"
// @Failure 404 {string} string "Session not found"
// @Failure 422 {string} string "No value column"
// @Router /sessions/{id}/grid [get]
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := ParseChartRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	grid, err := h.preparer.PrepareChart(s.Table, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, grid)
}

// Download serves the prepared grid as a file
// @Summary Download grid
// @Description The prepared grid as CSV or XLSX, named after the chart context
// @Tags data
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Param context query string false "Chart context, names the file" default(chart)
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file "Grid file"
// @Failure 400 {string} string "Unknown format"
// @Failure 404 {string} string "Session not found"
// @Failure 422 {string} string "No value column"
// @Router /sessions/{id}/download [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := ParseChartRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	grid, err := h.preparer.PrepareChart(s.Table, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	var ext, fileType string
	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		ext, fileType = "csv", "csv"
		_, err = pipeline.WriteCSV(&buf, grid.Table)
	case "xlsx", "excel":
		ext, fileType = "xlsx", "excel"
		_, err = pipeline.WriteXLSX(&buf, grid.Table, pipeline.DefaultSheet)
	default:
		http.Error(w, fmt.Sprintf("Unknown download format: %s", format), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	name := utils.DownloadName(req.Context, ext)
	w.Header().Set("Content-Type", utils.ContentType(fileType))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetChart renders the prepared grid as an HTML chart page
// @Summary Render chart
// @Tags charts
// @Produce html
// @Param id path string true "Session ID"
// @Param x query string true "X axis column"
// @Param kind query string false "line, bar, area or errorband" default(line)
// @Param title query string false "Page title"
// @Success 200 {string} string "HTML page"
// @Failure 400 {string} string "No x axis or unknown kind"
// @Failure 404 {string} string "Session not found"
// @Failure 422 {string} string "No value column"
// @Router /sessions/{id}/chart [get]
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := ParseChartRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.X == "" {
		h.writeError(w, r, model.ErrNoXAxis)
		return
	}
	grid, err := h.preparer.PrepareChart(s.Table, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, grid, req, chart.Options{}); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", utils.ContentType("html"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ParseChartRequest reads the dashboard selections from a query string. A
// cap_types parameter that is present but empty keeps no rows; an absent one
// leaves the filter unset.
func ParseChartRequest(q url.Values) (model.ChartRequest, error) {
	kind, err := model.ParseChartKind(q.Get("kind"))
	if err != nil {
		return model.ChartRequest{}, err
	}
	req := model.ChartRequest{
		X:           q.Get("x"),
		Row:         q.Get("row"),
		Column:      q.Get("col"),
		Color:       q.Get("color"),
		Dash:        q.Get("dash"),
		Shape:       q.Get("shape"),
		Opacity:     q.Get("opacity"),
		AverageBy:   q.Get("avg_by"),
		ValueColumn: q.Get("value"),
		Kind:        kind,
		Context:     q.Get("context"),
		Title:       q.Get("title"),
	}
	if values, ok := q["cap_types"]; ok {
		req.CapacityTypes = []string{}
		for _, v := range values {
			req.CapacityTypes = append(req.CapacityTypes, utils.SplitList(v)...)
		}
	}
	return req.Normalize(), nil
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(router.Param(r, 3))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

// writeError maps domain errors to status codes
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "Internal server error", status)
		return
	}
	h.logger.Debug("Request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrMissingValueColumn):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, model.ErrMalformedFile), errors.Is(err, model.ErrNoXAxis):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %s", name, v)
	}
	return n, nil
}

// writeJSON encodes v before writing the status so an unencodable value,
// such as a grid cell that overflowed to infinity, becomes a 500.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		h.writeError(w, r, fmt.Errorf("failed to encode response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
