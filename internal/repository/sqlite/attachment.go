package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/design-catalog/internal/domain"
)

// attachmentRepo implements domain.AttachmentRepository using SQLite.
type attachmentRepo struct {
	db querier
}

func (r *attachmentRepo) CreateImage(ctx context.Context, img *domain.DesignImage) error {
	if _, err := domain.ParseOwnerKind(string(img.Owner.Kind)); err != nil {
		return err
	}
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO design_images (owner_kind, owner_id, image_path, caption, sort_order, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		img.Owner.Kind, img.Owner.ID, img.ImagePath, img.Caption, img.SortOrder, now,
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get image id: %w", err)
	}

	img.ID = id
	img.CreatedAt = now
	return nil
}

const imageColumns = `id, owner_kind, owner_id, image_path, caption, sort_order, created_at`

func scanImage(s interface{ Scan(...any) error }, img *domain.DesignImage) error {
	var kind string
	if err := s.Scan(&img.ID, &kind, &img.Owner.ID, &img.ImagePath, &img.Caption,
		&img.SortOrder, &img.CreatedAt); err != nil {
		return err
	}
	return scanOwnerKind(kind, &img.Owner)
}

// scanOwnerKind rejects a stored owner tag that names no known entity.
func scanOwnerKind(kind string, owner *domain.OwnerRef) error {
	k, err := domain.ParseOwnerKind(kind)
	if err != nil {
		// Corrupt storage is an internal failure, not caller input.
		return fmt.Errorf("stored attachment owner: %v", err)
	}
	owner.Kind = k
	return nil
}

func (r *attachmentRepo) GetImage(ctx context.Context, id int64) (*domain.DesignImage, error) {
	img := &domain.DesignImage{}
	err := scanImage(r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM design_images WHERE id = ?`, id), img)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

func (r *attachmentRepo) ListImages(ctx context.Context, owner domain.OwnerRef) ([]domain.DesignImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+imageColumns+` FROM design_images WHERE owner_kind = ? AND owner_id = ? ORDER BY sort_order`,
		owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []domain.DesignImage
	for rows.Next() {
		var img domain.DesignImage
		if err := scanImage(rows, &img); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *attachmentRepo) MaxImageSortOrder(ctx context.Context, owner domain.OwnerRef) (int, error) {
	return r.maxSortOrder(ctx, "design_images", owner)
}

func (r *attachmentRepo) DeleteImage(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM design_images WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return requireRow(result)
}

func (r *attachmentRepo) CreateFile(ctx context.Context, f *domain.DesignFile) error {
	if _, err := domain.ParseOwnerKind(string(f.Owner.Kind)); err != nil {
		return err
	}
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO design_files (owner_kind, owner_id, file_type, title, file_path, file_extension,
			file_size, sort_order, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Owner.Kind, f.Owner.ID, f.FileType, f.Title, f.FilePath, f.FileExtension, f.FileSize, f.SortOrder, now,
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get file id: %w", err)
	}

	f.ID = id
	f.CreatedAt = now
	return nil
}

const fileColumns = `id, owner_kind, owner_id, file_type, title, file_path, file_extension, file_size, sort_order, created_at`

func scanFile(s interface{ Scan(...any) error }, f *domain.DesignFile) error {
	var kind string
	if err := s.Scan(&f.ID, &kind, &f.Owner.ID, &f.FileType, &f.Title, &f.FilePath,
		&f.FileExtension, &f.FileSize, &f.SortOrder, &f.CreatedAt); err != nil {
		return err
	}
	return scanOwnerKind(kind, &f.Owner)
}

func (r *attachmentRepo) GetFile(ctx context.Context, id int64) (*domain.DesignFile, error) {
	f := &domain.DesignFile{}
	err := scanFile(r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM design_files WHERE id = ?`, id), f)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

func (r *attachmentRepo) ListFiles(ctx context.Context, owner domain.OwnerRef) ([]domain.DesignFile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM design_files WHERE owner_kind = ? AND owner_id = ? ORDER BY sort_order`,
		owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []domain.DesignFile
	for rows.Next() {
		var f domain.DesignFile
		if err := scanFile(rows, &f); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *attachmentRepo) MaxFileSortOrder(ctx context.Context, owner domain.OwnerRef) (int, error) {
	return r.maxSortOrder(ctx, "design_files", owner)
}

func (r *attachmentRepo) DeleteFile(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM design_files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return requireRow(result)
}

func (r *attachmentRepo) DeleteByOwner(ctx context.Context, owner domain.OwnerRef) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM design_images WHERE owner_kind = ? AND owner_id = ?", owner.Kind, owner.ID); err != nil {
		return fmt.Errorf("delete images by owner: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM design_files WHERE owner_kind = ? AND owner_id = ?", owner.Kind, owner.ID); err != nil {
		return fmt.Errorf("delete files by owner: %w", err)
	}
	return nil
}

// maxSortOrder returns -1 when the owner has no rows in table. table is
// always one of the two attachment tables.
func (r *attachmentRepo) maxSortOrder(ctx context.Context, table string, owner domain.OwnerRef) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), -1) FROM `+table+` WHERE owner_kind = ? AND owner_id = ?`,
		owner.Kind, owner.ID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max sort order: %w", err)
	}
	return max, nil
}
