package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation owns its own migration files and strategy.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}

// Tx is one unit of work against the relational store. Every repository
// it hands out runs inside the same transaction.
type Tx interface {
	Designs() DesignRepository
	Floors() FloorRepository
	Rooms() RoomRepository
	Attachments() AttachmentRepository
	Commit() error
	Rollback() error
}

// TxBeginner opens transactions.
type TxBeginner interface {
	BeginTx(ctx context.Context) (Tx, error)
}
