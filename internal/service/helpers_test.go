package service_test

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/media"
	"github.com/msomdec/design-catalog/internal/repository/sqlite"
	"github.com/msomdec/design-catalog/internal/service"
	"github.com/msomdec/design-catalog/internal/storage"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var errInjected = errors.New("injected blob failure")

// flakyStore wraps a real store and fails selected calls.
type flakyStore struct {
	domain.BlobStore

	mu         sync.Mutex
	puts       int
	failPutAt  int // 1-based; 0 never fails
	failDelete bool
}

func (s *flakyStore) Put(ctx context.Context, p string, data []byte, contentType string) error {
	s.mu.Lock()
	s.puts++
	fail := s.failPutAt > 0 && s.puts == s.failPutAt
	s.mu.Unlock()
	if fail {
		return errInjected
	}
	return s.BlobStore.Put(ctx, p, data, contentType)
}

func (s *flakyStore) Delete(ctx context.Context, p string) error {
	s.mu.Lock()
	fail := s.failDelete
	s.mu.Unlock()
	if fail {
		return errInjected
	}
	return s.BlobStore.Delete(ctx, p)
}

// failPutAfter arms the store so the nth Put from now fails.
func (s *flakyStore) failPutAfter(n int) {
	s.mu.Lock()
	s.failPutAt = s.puts + n
	s.mu.Unlock()
}

type harness struct {
	db      *sqlite.DB
	root    string
	blobs   *flakyStore
	designs *service.DesignService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)
	root := t.TempDir()
	local, err := storage.NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	blobs := &flakyStore{BlobStore: local}
	coordinator := service.NewCoordinator(db, media.NewManager(blobs, nil))
	return &harness{
		db:      db,
		root:    root,
		blobs:   blobs,
		designs: service.NewDesignService(db.Designs(), coordinator),
	}
}

// blobCount returns the number of blobs on disk under prefix.
func (h *harness) blobCount(t *testing.T, prefix string) int {
	t.Helper()
	n := 0
	dir := filepath.Join(h.root, filepath.FromSlash(prefix))
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk blobs: %v", err)
	}
	return n
}

func (h *harness) exists(t *testing.T, p string) bool {
	t.Helper()
	ok, err := h.blobs.Exists(context.Background(), p)
	if err != nil {
		t.Fatalf("Exists(%s): %v", p, err)
	}
	return ok
}

func (h *harness) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := h.db.SqlDB.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func upload(name string) *domain.Upload {
	return &domain.Upload{Filename: name, ContentType: "application/octet-stream", Data: []byte("bytes of " + name)}
}

func gallery(names ...string) []domain.ImageUpload {
	out := make([]domain.ImageUpload, len(names))
	for i, n := range names {
		out[i] = domain.ImageUpload{Upload: *upload(n), Caption: "caption " + n}
	}
	return out
}

func id(v int64) *int64 { return &v }

func room(rt domain.RoomType) domain.RoomDraft {
	return domain.RoomDraft{Fields: domain.RoomFields{RoomType: rt, Length: 4, Width: 3, Height: 2.7}}
}

// floorDraft is a new floor with two rooms, a cover and one gallery image.
func floorDraft(number int) domain.FloorDraft {
	return domain.FloorDraft{
		Fields: domain.FloorFields{FloorNumber: number, Name: "Floor"},
		Media: domain.Media{
			Cover:   upload("floor-cover.jpg"),
			Gallery: gallery("floor-gallery.jpg"),
		},
		Rooms:          []domain.RoomDraft{room(domain.RoomBedroom), room(domain.RoomBathroom)},
		ReconcileRooms: true,
	}
}

func homeDraft(name string) *domain.DesignDraft {
	return &domain.DesignDraft{
		Fields: domain.DesignFields{Name: name, Style: "modern", IsActive: true},
	}
}

// sameAs returns a draft that resubmits d unchanged, without uploads.
func sameAs(d *domain.Design) *domain.DesignDraft {
	draft := &domain.DesignDraft{Fields: d.DesignFields, ReconcileFloors: true}
	for _, f := range d.Floors {
		fd := domain.FloorDraft{ID: id(f.ID), Fields: f.FloorFields, ReconcileRooms: true}
		for _, r := range f.Rooms {
			fd.Rooms = append(fd.Rooms, domain.RoomDraft{ID: id(r.ID), Fields: r.RoomFields})
		}
		draft.Floors = append(draft.Floors, fd)
	}
	return draft
}
