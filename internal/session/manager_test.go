package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go-energy-dashboard/internal/model"
	"go-energy-dashboard/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRecorder struct {
	mu       sync.Mutex
	saved    []model.SessionRecord
	errs     map[string][]string
	statuses map[string]string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{errs: map[string][]string{}, statuses: map[string]string{}}
}

func (f *fakeRecorder) SaveSession(rec model.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, rec)
	f.statuses[rec.ID] = rec.Status
	return nil
}

func (f *fakeRecorder) SaveSessionError(id string, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[id] = append(f.errs[id], err.Error())
	return nil
}

func (f *fakeRecorder) UpdateSessionStatus(id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

func (f *fakeRecorder) status(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id]
}

func source(name, text string) pipeline.Source {
	r := strings.NewReader(text)
	return pipeline.Source{Name: name, Data: r, Size: int64(r.Len())}
}

func TestCreateAndGet(t *testing.T) {
	rec := newFakeRecorder()
	m := NewManager(rec, nil, time.Hour, pipeline.DefaultIngestOptions())

	s, err := m.Create([]pipeline.Source{source("capacity.csv", "model,region,value\nGenX,A,1\nTEMOA,B,2\n")})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 2, s.Table.NumRows())
	assert.Equal(t, []model.FileInfo{{Name: "capacity.csv", Size: 38, Format: "csv"}}, s.Files)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, model.SessionActive, rec.status(s.ID))

	sum := s.Summary()
	assert.Equal(t, 2, sum.RowCount)
	require.Len(t, sum.Columns, 3)
	assert.Equal(t, []string{"GenX", "TEMOA"}, sum.Columns[0].Values)
	assert.Equal(t, model.Numeric, sum.Columns[2].Kind)
	assert.Nil(t, sum.Columns[2].Values)
}

func TestCreateRecordsFailure(t *testing.T) {
	rec := newFakeRecorder()
	m := NewManager(rec, nil, time.Hour, pipeline.DefaultIngestOptions())

	_, err := m.Create([]pipeline.Source{source("bad.csv", "region,value\nA,1,2\n")})
	require.True(t, errors.Is(err, model.ErrMalformedFile))
	assert.Empty(t, m.List())

	require.Len(t, rec.saved, 1)
	id := rec.saved[0].ID
	assert.Equal(t, model.SessionFailed, rec.saved[0].Status)
	require.Len(t, rec.errs[id], 1)
	assert.Contains(t, rec.errs[id][0], "bad.csv")
}

func TestDelete(t *testing.T) {
	rec := newFakeRecorder()
	m := NewManager(rec, nil, 0, pipeline.DefaultIngestOptions())
	s, err := m.Create(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Table.NumColumns())

	require.NoError(t, m.Delete(s.ID))
	assert.Equal(t, model.SessionDeleted, rec.status(s.ID))

	_, err = m.Get(s.ID)
	assert.True(t, errors.Is(err, model.ErrSessionNotFound))
	assert.True(t, errors.Is(m.Delete(s.ID), model.ErrSessionNotFound))
}

func TestListOrder(t *testing.T) {
	m := NewManager(nil, nil, 0, pipeline.DefaultIngestOptions())
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	first, err := m.Create(nil)
	require.NoError(t, err)
	clock = clock.Add(time.Minute)
	second, err := m.Create(nil)
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	rec := newFakeRecorder()
	m := NewManager(rec, nil, time.Hour, pipeline.DefaultIngestOptions())
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	idle, err := m.Create(nil)
	require.NoError(t, err)
	busy, err := m.Create(nil)
	require.NoError(t, err)

	clock = clock.Add(50 * time.Minute)
	_, err = m.Get(busy.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Sweep(clock.Add(20*time.Minute)))
	_, err = m.Get(idle.ID)
	assert.True(t, errors.Is(err, model.ErrSessionNotFound))
	assert.Equal(t, model.SessionExpired, rec.status(idle.ID))

	_, err = m.Get(busy.ID)
	assert.NoError(t, err)
}

func TestSweepWithoutTTL(t *testing.T) {
	m := NewManager(nil, nil, 0, pipeline.DefaultIngestOptions())
	_, err := m.Create(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Sweep(time.Now().Add(24*365*time.Hour)))
}

func TestRunStopsOnCancel(t *testing.T) {
	m := NewManager(nil, nil, time.Nanosecond, pipeline.DefaultIngestOptions())
	_, err := m.Create(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(m.List()) == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestConcurrentAccess(t *testing.T) {
	m := NewManager(nil, nil, time.Hour, pipeline.DefaultIngestOptions())
	s, err := m.Create([]pipeline.Source{source("capacity.csv", "region,value\nA,1\nB,2\n")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := m.Get(s.ID)
				if assert.NoError(t, err) {
					assert.Equal(t, 2, got.Table.NumRows())
				}
				m.List()
			}
		}()
	}
	wg.Wait()
}
