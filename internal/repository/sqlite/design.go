package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/design-catalog/internal/domain"
)

// designRepo implements domain.DesignRepository using SQLite.
type designRepo struct {
	db querier
}

const designColumns = `id, kind, name, description, style, total_area, room_count, bedrooms, bathrooms,
	cost_min, cost_max, features, tags, cover_image, is_active, is_featured, views, downloads,
	created_at, updated_at`

func (r *designRepo) Create(ctx context.Context, d *domain.Design) error {
	features, tags, err := encodeSets(d.Features, d.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO designs (kind, name, description, style, total_area, room_count, bedrooms, bathrooms,
			cost_min, cost_max, features, tags, cover_image, is_active, is_featured, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Kind, d.Name, d.Description, d.Style, d.TotalArea, d.RoomCount, d.Bedrooms, d.Bathrooms,
		d.CostMin, d.CostMax, features, tags, d.CoverImage, d.IsActive, d.IsFeatured, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get design id: %w", err)
	}

	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

// GetByID loads the design with its floors, rooms, images and files.
func (r *designRepo) GetByID(ctx context.Context, id int64) (*domain.Design, error) {
	d := &domain.Design{}
	var features, tags string
	err := r.db.QueryRowContext(ctx,
		`SELECT `+designColumns+` FROM designs WHERE id = ?`, id,
	).Scan(&d.ID, &d.Kind, &d.Name, &d.Description, &d.Style, &d.TotalArea, &d.RoomCount,
		&d.Bedrooms, &d.Bathrooms, &d.CostMin, &d.CostMax, &features, &tags, &d.CoverImage,
		&d.IsActive, &d.IsFeatured, &d.Views, &d.Downloads, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get design: %w", err)
	}
	if err := json.Unmarshal([]byte(features), &d.Features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}

	attachments := &attachmentRepo{db: r.db}
	if d.Images, err = attachments.ListImages(ctx, d.Owner()); err != nil {
		return nil, err
	}
	if d.Files, err = attachments.ListFiles(ctx, d.Owner()); err != nil {
		return nil, err
	}

	floors := &floorRepo{db: r.db}
	if d.Floors, err = floors.ListByDesign(ctx, id); err != nil {
		return nil, err
	}
	if err := floors.loadChildren(ctx, d.Floors); err != nil {
		return nil, err
	}
	return d, nil
}

// Update writes the scalar fields. The cover path is changed only through
// SetCoverImage and the counters only through the counter repository.
func (r *designRepo) Update(ctx context.Context, d *domain.Design) error {
	features, tags, err := encodeSets(d.Features, d.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE designs SET name = ?, description = ?, style = ?, total_area = ?, room_count = ?,
			bedrooms = ?, bathrooms = ?, cost_min = ?, cost_max = ?, features = ?, tags = ?,
			is_active = ?, is_featured = ?, updated_at = ?
		 WHERE id = ?`,
		d.Name, d.Description, d.Style, d.TotalArea, d.RoomCount, d.Bedrooms, d.Bathrooms,
		d.CostMin, d.CostMax, features, tags, d.IsActive, d.IsFeatured, now, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update design: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	d.UpdatedAt = now
	return nil
}

func (r *designRepo) SetCoverImage(ctx context.Context, id int64, path string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE designs SET cover_image = ?, updated_at = ? WHERE id = ?",
		path, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set design cover: %w", err)
	}
	return requireRow(result)
}

// Delete removes the design; floors and rooms follow by foreign-key cascade.
func (r *designRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM designs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	return requireRow(result)
}

func encodeSets(features, tags []string) (string, string, error) {
	if features == nil {
		features = []string{}
	}
	if tags == nil {
		tags = []string{}
	}
	f, err := json.Marshal(features)
	if err != nil {
		return "", "", fmt.Errorf("encode features: %w", err)
	}
	t, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	return string(f), string(t), nil
}
