package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle and hands out repositories.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps the PRAGMAs below in effect for every query
	// and serialises writers the way SQLite wants.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies pending schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

func (d *DB) Close() error {
	return d.SqlDB.Close()
}

// Designs returns a repository outside any transaction, for reads.
func (d *DB) Designs() domain.DesignRepository { return &designRepo{db: d.SqlDB} }

func (d *DB) Attachments() domain.AttachmentRepository { return &attachmentRepo{db: d.SqlDB} }

func (d *DB) Admins() domain.AdminRepository { return &adminRepo{db: d.SqlDB} }

func (d *DB) Counters() domain.CounterRepository { return &counterRepo{db: d.SqlDB} }

// BeginTx starts a transaction. The caller must Commit or Rollback before
// issuing any other query on d, since the pool holds a single connection.
func (d *DB) BeginTx(ctx context.Context) (domain.Tx, error) {
	tx, err := d.SqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &txStore{tx: tx}, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Designs() domain.DesignRepository         { return &designRepo{db: t.tx} }
func (t *txStore) Floors() domain.FloorRepository           { return &floorRepo{db: t.tx} }
func (t *txStore) Rooms() domain.RoomRepository             { return &roomRepo{db: t.tx} }
func (t *txStore) Attachments() domain.AttachmentRepository { return &attachmentRepo{db: t.tx} }

func (t *txStore) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *txStore) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// requireRow maps a zero-row write to domain.ErrNotFound.
func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
