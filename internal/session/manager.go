package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-energy-dashboard/internal/model"
	"go-energy-dashboard/internal/pipeline"
	"go-energy-dashboard/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder keeps the catalog of sessions. store.DB implements it.
type Recorder interface {
	SaveSession(rec model.SessionRecord) error
	SaveSessionError(sessionID string, err error) error
	UpdateSessionStatus(sessionID string, status string) error
}

type nopRecorder struct{}

func (nopRecorder) SaveSession(model.SessionRecord) error    { return nil }
func (nopRecorder) SaveSessionError(string, error) error     { return nil }
func (nopRecorder) UpdateSessionStatus(string, string) error { return nil }

// Session is one dashboard upload. Table is never modified after creation
// and may be read concurrently.
type Session struct {
	ID        string
	Table     *model.Table
	Files     []model.FileInfo
	CreatedAt time.Time

	lastAccess time.Time
}

// Summary describes the session for the dashboard dropdowns
func (s *Session) Summary() Summary {
	return Summary{
		ID:        s.ID,
		RowCount:  s.Table.NumRows(),
		Columns:   model.Summarize(s.Table),
		Files:     s.Files,
		CreatedAt: s.CreatedAt,
	}
}

// Summary is the JSON view of a session
type Summary struct {
	ID        string                `json:"id"`
	RowCount  int                   `json:"row_count"`
	Columns   []model.ColumnSummary `json:"columns"`
	Files     []model.FileInfo      `json:"files"`
	CreatedAt time.Time             `json:"created_at"`
}

// Manager owns the live sessions
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	recorder Recorder
	logger   *zap.Logger
	ttl      time.Duration
	ingest   pipeline.IngestOptions
	now      func() time.Time
}

// NewManager creates a Manager. Sessions idle longer than ttl are dropped by
// Sweep; a ttl <= 0 keeps them forever. A nil recorder keeps no catalog.
func NewManager(recorder Recorder, logger *zap.Logger, ttl time.Duration, ingest pipeline.IngestOptions) *Manager {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		recorder: recorder,
		logger:   logger,
		ttl:      ttl,
		ingest:   ingest,
		now:      time.Now,
	}
}

// Create loads the uploaded files into a new session. A failed upload is
// recorded in the catalog and no session is kept.
func (m *Manager) Create(sources []pipeline.Source) (*Session, error) {
	id := uuid.New().String()
	now := m.now().UTC()
	files := make([]model.FileInfo, len(sources))
	for i, src := range sources {
		files[i] = model.FileInfo{Name: src.Name, Size: src.Size, Format: utils.GetFileType(src.Name)}
	}

	table, err := pipeline.LoadFiles(sources, m.ingest)
	if err != nil {
		m.record(id, func() error {
			return m.recorder.SaveSession(model.SessionRecord{
				ID: id, Status: model.SessionFailed, Files: files, CreatedAt: now,
			})
		})
		m.record(id, func() error { return m.recorder.SaveSessionError(id, err) })
		m.logger.Warn("Upload rejected", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	s := &Session{ID: id, Table: table, Files: files, CreatedAt: now, lastAccess: now}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.record(id, func() error {
		return m.recorder.SaveSession(model.SessionRecord{
			ID:        id,
			Status:    model.SessionActive,
			RowCount:  table.NumRows(),
			Columns:   table.ColumnNames(),
			Files:     files,
			CreatedAt: now,
		})
	})
	m.logger.Info("Session created",
		zap.String("session_id", id),
		zap.Int("files", len(files)),
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", table.NumColumns()))
	return s, nil
}

// Get returns a live session and refreshes its last access time
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}
	s.lastAccess = m.now()
	return s, nil
}

// List returns the live sessions, oldest first
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Delete drops a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}

	m.record(id, func() error { return m.recorder.UpdateSessionStatus(id, model.SessionDeleted) })
	m.logger.Info("Session deleted", zap.String("session_id", id))
	return nil
}

// Sweep drops the sessions idle for longer than the TTL and returns how many
// it dropped.
func (m *Manager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	var expired []string
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.lastAccess) > m.ttl {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		id := id
		m.record(id, func() error { return m.recorder.UpdateSessionStatus(id, model.SessionExpired) })
	}
	if len(expired) > 0 {
		m.logger.Info("Expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is cancelled
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

// record logs catalog failures; the catalog is informational only
func (m *Manager) record(id string, fn func() error) {
	if err := fn(); err != nil {
		m.logger.Warn("Failed to update session catalog", zap.String("session_id", id), zap.Error(err))
	}
}
