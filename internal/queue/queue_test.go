package queue

import (
	"context"
	"path/filepath"
	"testing"

	"earbridge/internal/model"
)

func row(tipo, ts string) model.DetectionRow {
	return model.DetectionRow{Tipo: tipo, Prioridad: "verde", Direccion: "frente", Timestamp: ts}
}

func openTemp(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(filepath.Join(t.TempDir(), "queue.json"))
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	return q
}

func TestAppendAndPending(t *testing.T) {
	q := openTemp(t)
	if err := q.Append(row("sirena", "2026-02-23T12:00:00Z")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := q.Append(row("voz", "2026-02-23T12:00:05Z")); err != nil {
		t.Fatalf("append: %v", err)
	}
	pending, err := q.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].Tipo != "sirena" || pending[1].Tipo != "voz" {
		t.Fatalf("pending: %+v", pending)
	}
}

func TestRemove(t *testing.T) {
	q := openTemp(t)
	a := row("sirena", "2026-02-23T12:00:00Z")
	b := row("voz", "2026-02-23T12:00:05Z")
	_ = q.Append(a)
	_ = q.Append(b)
	if err := q.Remove([]model.DetectionRow{a}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	pending, _ := q.Pending()
	if len(pending) != 1 || pending[0].Tipo != "voz" {
		t.Fatalf("pending after remove: %+v", pending)
	}
}

func TestClear(t *testing.T) {
	q := openTemp(t)
	_ = q.Append(row("sirena", "2026-02-23T12:00:00Z"))
	if err := q.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	pending, err := q.Pending()
	if err != nil || len(pending) != 0 {
		t.Fatalf("pending after clear: %v %v", pending, err)
	}
	// clearing an already-empty queue is fine
	if err := q.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

type fakeStore struct {
	saved  []model.DetectionRow
	failOn string
}

func (f *fakeStore) Init(context.Context) error  { return nil }
func (f *fakeStore) Close() error                { return nil }
func (f *fakeStore) FetchRecent(context.Context, int) ([]model.DetectionRow, error) {
	return nil, nil
}
func (f *fakeStore) SaveDetection(_ context.Context, row model.DetectionRow) error {
	if row.Tipo == f.failOn {
		return context.DeadlineExceeded
	}
	f.saved = append(f.saved, row)
	return nil
}

type onlineProber bool

func (p onlineProber) Online(context.Context) bool { return bool(p) }

func TestSyncOnceDrainsQueue(t *testing.T) {
	q := openTemp(t)
	_ = q.Append(row("sirena", "2026-02-23T12:00:00Z"))
	_ = q.Append(row("voz", "2026-02-23T12:00:05Z"))
	store := &fakeStore{}
	s := NewSyncer(q, store, onlineProber(true), 0, nil)
	s.SyncOnce(context.Background())
	if len(store.saved) != 2 {
		t.Fatalf("saved: %d", len(store.saved))
	}
	pending, _ := q.Pending()
	if len(pending) != 0 {
		t.Fatalf("queue not drained: %+v", pending)
	}
}

func TestSyncOnceKeepsFailedRows(t *testing.T) {
	q := openTemp(t)
	_ = q.Append(row("sirena", "2026-02-23T12:00:00Z"))
	_ = q.Append(row("voz", "2026-02-23T12:00:05Z"))
	store := &fakeStore{failOn: "voz"}
	s := NewSyncer(q, store, onlineProber(true), 0, nil)
	s.SyncOnce(context.Background())
	pending, _ := q.Pending()
	if len(pending) != 1 || pending[0].Tipo != "voz" {
		t.Fatalf("pending: %+v", pending)
	}
}

func TestSyncOnceSkipsWhileOffline(t *testing.T) {
	q := openTemp(t)
	_ = q.Append(row("sirena", "2026-02-23T12:00:00Z"))
	store := &fakeStore{}
	s := NewSyncer(q, store, onlineProber(false), 0, nil)
	s.SyncOnce(context.Background())
	if len(store.saved) != 0 {
		t.Fatalf("synced while offline")
	}
}
