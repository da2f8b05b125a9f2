package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/design-catalog/internal/domain"
)

// adminRepo implements domain.AdminRepository using SQLite.
type adminRepo struct {
	db querier
}

func (r *adminRepo) Create(ctx context.Context, admin *domain.Admin) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (email, display_name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		admin.Email, admin.DisplayName, admin.PasswordHash, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert admin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	admin.ID = id
	admin.CreatedAt = now
	admin.UpdatedAt = now
	return nil
}

func (r *adminRepo) GetByID(ctx context.Context, id int64) (*domain.Admin, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *adminRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.getOne(ctx, "email = ?", strings.ToLower(email))
}

func (r *adminRepo) getOne(ctx context.Context, where string, arg any) (*domain.Admin, error) {
	a := &domain.Admin{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at, updated_at
		 FROM admins WHERE `+where, arg,
	).Scan(&a.ID, &a.Email, &a.DisplayName, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query admin: %w", err)
	}
	return a, nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
