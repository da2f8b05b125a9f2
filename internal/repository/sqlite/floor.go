package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/design-catalog/internal/domain"
)

// floorRepo implements domain.FloorRepository using SQLite.
type floorRepo struct {
	db querier
}

func (r *floorRepo) Create(ctx context.Context, f *domain.FloorDesign) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO floor_designs (design_id, floor_number, name, total_area, room_count, bedrooms, bathrooms,
			notes, cover_image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.DesignID, f.FloorNumber, f.Name, f.TotalArea, f.RoomCount, f.Bedrooms, f.Bathrooms,
		f.Notes, f.CoverImage, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert floor: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get floor id: %w", err)
	}

	f.ID = id
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

func (r *floorRepo) Update(ctx context.Context, f *domain.FloorDesign) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE floor_designs SET floor_number = ?, name = ?, total_area = ?, room_count = ?, bedrooms = ?,
			bathrooms = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		f.FloorNumber, f.Name, f.TotalArea, f.RoomCount, f.Bedrooms, f.Bathrooms, f.Notes, now, f.ID,
	)
	if err != nil {
		return fmt.Errorf("update floor: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	f.UpdatedAt = now
	return nil
}

func (r *floorRepo) SetCoverImage(ctx context.Context, id int64, path string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE floor_designs SET cover_image = ?, updated_at = ? WHERE id = ?",
		path, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set floor cover: %w", err)
	}
	return requireRow(result)
}

// ListByDesign returns the floors of a design ordered by floor number, ties
// broken by creation order. Children are not loaded.
func (r *floorRepo) ListByDesign(ctx context.Context, designID int64) ([]domain.FloorDesign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, design_id, floor_number, name, total_area, room_count, bedrooms, bathrooms,
			notes, cover_image, created_at, updated_at
		 FROM floor_designs WHERE design_id = ? ORDER BY floor_number, id`, designID)
	if err != nil {
		return nil, fmt.Errorf("list floors: %w", err)
	}
	defer rows.Close()

	var floors []domain.FloorDesign
	for rows.Next() {
		var f domain.FloorDesign
		if err := rows.Scan(&f.ID, &f.DesignID, &f.FloorNumber, &f.Name, &f.TotalArea, &f.RoomCount,
			&f.Bedrooms, &f.Bathrooms, &f.Notes, &f.CoverImage, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan floor: %w", err)
		}
		floors = append(floors, f)
	}
	return floors, rows.Err()
}

// loadChildren fills rooms, images and files. It runs after the floor rows
// are closed so only one result set is open at a time.
func (r *floorRepo) loadChildren(ctx context.Context, floors []domain.FloorDesign) error {
	rooms := &roomRepo{db: r.db}
	attachments := &attachmentRepo{db: r.db}
	for i := range floors {
		f := &floors[i]
		var err error
		if f.Rooms, err = rooms.ListByFloor(ctx, f.ID); err != nil {
			return err
		}
		if f.Images, err = attachments.ListImages(ctx, f.Owner()); err != nil {
			return err
		}
		if f.Files, err = attachments.ListFiles(ctx, f.Owner()); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the floor; its rooms follow by foreign-key cascade.
func (r *floorRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM floor_designs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete floor: %w", err)
	}
	return requireRow(result)
}
