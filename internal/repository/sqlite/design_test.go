package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/repository/sqlite"
)

// seedHome writes a home design with one floor and two rooms, committed.
func seedHome(t *testing.T, db *sqlite.DB) *domain.Design {
	t.Helper()
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	defer tx.Rollback()

	d := &domain.Design{
		Kind: domain.DesignKindHome,
		DesignFields: domain.DesignFields{
			Name:     "Courtyard House",
			Style:    "modern",
			Features: []string{"pool", "solar"},
			Tags:     []string{"family"},
			IsActive: true,
		},
	}
	if err := tx.Designs().Create(ctx, d); err != nil {
		t.Fatalf("create design: %v", err)
	}

	floor := &domain.FloorDesign{DesignID: &d.ID, FloorFields: domain.FloorFields{FloorNumber: 0, Name: "Ground"}}
	if err := tx.Floors().Create(ctx, floor); err != nil {
		t.Fatalf("create floor: %v", err)
	}
	for _, rt := range []domain.RoomType{domain.RoomKitchen, domain.RoomLiving} {
		room := &domain.Room{FloorID: floor.ID, RoomFields: domain.RoomFields{RoomType: rt, Length: 4, Width: 3}}
		if err := tx.Rooms().Create(ctx, room); err != nil {
			t.Fatalf("create room: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return d
}

func TestDesignRepository_GetByIDLoadsTree(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seeded := seedHome(t, db)

	got, err := db.Designs().GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Kind != domain.DesignKindHome {
		t.Fatalf("expected kind home, got %q", got.Kind)
	}
	if len(got.Features) != 2 || got.Features[0] != "pool" {
		t.Fatalf("unexpected features %v", got.Features)
	}
	if !got.IsActive {
		t.Fatal("expected design to be active")
	}
	if len(got.Floors) != 1 {
		t.Fatalf("expected 1 floor, got %d", len(got.Floors))
	}
	floor := got.Floors[0]
	if floor.DesignID == nil || *floor.DesignID != seeded.ID {
		t.Fatalf("expected floor to reference design %d", seeded.ID)
	}
	if len(floor.Rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(floor.Rooms))
	}
	if floor.Rooms[0].RoomType != domain.RoomKitchen {
		t.Fatalf("expected first room kitchen, got %q", floor.Rooms[0].RoomType)
	}
}

func TestDesignRepository_UpdateKeepsCounters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seeded := seedHome(t, db)

	if _, err := db.Counters().IncrementViews(ctx, seeded.ID, domain.DesignKindHome); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}

	seeded.Name = "Courtyard House II"
	seeded.Views = 0
	if err := db.Designs().Update(ctx, seeded); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := db.Designs().GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Courtyard House II" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}
	if got.Views != 1 {
		t.Fatalf("expected views to survive update, got %d", got.Views)
	}
}

func TestDesignRepository_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seeded := seedHome(t, db)

	if err := db.Designs().Delete(ctx, seeded.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var floors, rooms int
	if err := db.SqlDB.QueryRow("SELECT COUNT(*) FROM floor_designs").Scan(&floors); err != nil {
		t.Fatalf("count floors: %v", err)
	}
	if err := db.SqlDB.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&rooms); err != nil {
		t.Fatalf("count rooms: %v", err)
	}
	if floors != 0 || rooms != 0 {
		t.Fatalf("expected cascade delete, got %d floors and %d rooms", floors, rooms)
	}

	if err := db.Designs().Delete(ctx, seeded.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDesignRepository_SetCoverImage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seeded := seedHome(t, db)

	if err := db.Designs().SetCoverImage(ctx, seeded.ID, "home-designs/covers/a.jpg"); err != nil {
		t.Fatalf("SetCoverImage: %v", err)
	}
	got, err := db.Designs().GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CoverImage != "home-designs/covers/a.jpg" {
		t.Fatalf("unexpected cover %q", got.CoverImage)
	}

	if err := db.Designs().SetCoverImage(ctx, 999, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCounterRepository_InactiveNotCounted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seeded := seedHome(t, db)

	n, err := db.Counters().IncrementDownloads(ctx, seeded.ID, domain.DesignKindHome)
	if err != nil {
		t.Fatalf("IncrementDownloads: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 download, got %d", n)
	}

	if _, err := db.Counters().IncrementViews(ctx, seeded.ID, domain.DesignKindInterior); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong kind, got %v", err)
	}

	seeded.IsActive = false
	if err := db.Designs().Update(ctx, seeded); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := db.Counters().IncrementViews(ctx, seeded.ID, domain.DesignKindHome); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive design, got %v", err)
	}
}
