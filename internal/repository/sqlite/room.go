package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/design-catalog/internal/domain"
)

// roomRepo implements domain.RoomRepository using SQLite.
type roomRepo struct {
	db querier
}

func (r *roomRepo) Create(ctx context.Context, room *domain.Room) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (floor_id, room_type, name, length, width, height, has_window, has_balcony,
			has_attached_bath, has_wardrobe, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.FloorID, room.RoomType, room.Name, room.Length, room.Width, room.Height, room.HasWindow,
		room.HasBalcony, room.HasAttachedBath, room.HasWardrobe, room.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get room id: %w", err)
	}

	room.ID = id
	room.CreatedAt = now
	room.UpdatedAt = now
	return nil
}

func (r *roomRepo) Update(ctx context.Context, room *domain.Room) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET room_type = ?, name = ?, length = ?, width = ?, height = ?, has_window = ?,
			has_balcony = ?, has_attached_bath = ?, has_wardrobe = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND floor_id = ?`,
		room.RoomType, room.Name, room.Length, room.Width, room.Height, room.HasWindow, room.HasBalcony,
		room.HasAttachedBath, room.HasWardrobe, room.Notes, now, room.ID, room.FloorID,
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	room.UpdatedAt = now
	return nil
}

func (r *roomRepo) ListByFloor(ctx context.Context, floorID int64) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, floor_id, room_type, name, length, width, height, has_window, has_balcony,
			has_attached_bath, has_wardrobe, notes, created_at, updated_at
		 FROM rooms WHERE floor_id = ? ORDER BY id`, floorID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.FloorID, &room.RoomType, &room.Name, &room.Length, &room.Width,
			&room.Height, &room.HasWindow, &room.HasBalcony, &room.HasAttachedBath, &room.HasWardrobe,
			&room.Notes, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *roomRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return requireRow(result)
}
