package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/media"
	"github.com/msomdec/design-catalog/internal/reconcile"
)

// SaveResult is the outcome of a committed save.
type SaveResult struct {
	Design *domain.Design
	// Skipped lists draft ids that matched nothing and were ignored.
	Skipped []reconcile.StaleRef
	// Orphans lists blobs that should have been removed after commit but
	// could not be.
	Orphans []string
}

// Coordinator runs each save of a design tree as one transaction and keeps
// the blob store in step through a per-save media batch.
type Coordinator struct {
	store domain.TxBeginner
	media *media.Manager
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(store domain.TxBeginner, m *media.Manager) *Coordinator {
	return &Coordinator{store: store, media: m}
}

// run executes fn inside a transaction. When fn or the commit fails, the
// transaction is rolled back and the blobs written by the batch are
// removed. Deferred blob deletes run only after a successful commit.
func (c *Coordinator) run(ctx context.Context, op string, fn func(tx domain.Tx, batch *media.Batch) error) ([]string, error) {
	tx, err := c.store.BeginTx(ctx)
	if err != nil {
		return nil, &domain.ReconciliationError{Op: op, Err: err}
	}
	batch := c.media.Begin(tx.Attachments())

	if err := fn(tx, batch); err != nil {
		c.abort(ctx, op, tx, batch)
		return nil, classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		c.abort(ctx, op, tx, batch)
		return nil, &domain.ReconciliationError{Op: op, Err: err}
	}

	return batch.Commit(context.WithoutCancel(ctx)), nil
}

func (c *Coordinator) abort(ctx context.Context, op string, tx domain.Tx, batch *media.Batch) {
	if err := tx.Rollback(); err != nil {
		slog.Error("rollback failed", "op", op, "error", err)
	}
	// Compensation must run even when the request context is already done.
	if orphans := batch.Rollback(context.WithoutCancel(ctx)); len(orphans) > 0 {
		slog.Warn("save rolled back with orphaned blobs", "op", op, "count", len(orphans))
	}
}

// classify passes caller-facing errors through and wraps everything else.
func classify(op string, err error) error {
	var rerr *domain.ReconciliationError
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
		return err
	case errors.As(err, &rerr):
		return err
	}
	return &domain.ReconciliationError{Op: op, Err: err}
}

// Create persists a new design with its whole tree. Every descendant is
// created fresh and every attachment collection starts at sort order 0.
func (c *Coordinator) Create(ctx context.Context, kind domain.DesignKind, draft *domain.DesignDraft) (*SaveResult, error) {
	res := &SaveResult{}
	orphans, err := c.run(ctx, "create design", func(tx domain.Tx, batch *media.Batch) error {
		// The cover is written before any row so a failed upload aborts
		// the save with nothing to undo in the database.
		cover, err := batch.ReplaceCover(ctx, domain.OwnerRef{Kind: kind.OwnerKind()}, "", draft.Media.Cover)
		if err != nil {
			return err
		}

		d := &domain.Design{Kind: kind, DesignFields: draft.Fields, CoverImage: cover}
		if err := tx.Designs().Create(ctx, d); err != nil {
			return fmt.Errorf("create design: %w", err)
		}
		if err := appendMedia(ctx, batch, d.Owner(), draft.Media); err != nil {
			return err
		}

		if len(draft.Floors) > 0 {
			plan := reconcile.Floors(d.ID, nil, draft.Floors)
			res.Skipped = plan.Stale
			if err := applyFloors(ctx, tx, batch, d.ID, nil, plan); err != nil {
				return err
			}
		}

		res.Design, err = tx.Designs().GetByID(ctx, d.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Orphans = orphans
	logStale(res.Skipped)
	return res, nil
}

// Update reconciles the design with id against draft. Scalar fields are
// replaced, uploads are appended, and floors are reconciled only when the
// draft carries a floors list.
func (c *Coordinator) Update(ctx context.Context, kind domain.DesignKind, id int64, draft *domain.DesignDraft) (*SaveResult, error) {
	res := &SaveResult{}
	orphans, err := c.run(ctx, "update design", func(tx domain.Tx, batch *media.Batch) error {
		d, err := loadDesign(ctx, tx, kind, id)
		if err != nil {
			return err
		}

		cover, err := batch.ReplaceCover(ctx, d.Owner(), d.CoverImage, draft.Media.Cover)
		if err != nil {
			return err
		}

		d.DesignFields = draft.Fields
		if err := tx.Designs().Update(ctx, d); err != nil {
			return fmt.Errorf("update design: %w", err)
		}
		if cover != d.CoverImage {
			if err := tx.Designs().SetCoverImage(ctx, id, cover); err != nil {
				return fmt.Errorf("set design cover: %w", err)
			}
		}
		if err := appendMedia(ctx, batch, d.Owner(), draft.Media); err != nil {
			return err
		}

		if draft.ReconcileFloors {
			plan := reconcile.Floors(id, d.Floors, draft.Floors)
			slog.Debug("floor plan",
				"design_id", id,
				"create", plan.Count(reconcile.OpCreate),
				"update", plan.Count(reconcile.OpUpdate),
				"delete", plan.Count(reconcile.OpDelete),
				"rooms_create", plan.RoomCount(reconcile.OpCreate),
				"rooms_delete", plan.RoomCount(reconcile.OpDelete),
			)
			res.Skipped = plan.Stale
			if err := applyFloors(ctx, tx, batch, id, d.Floors, plan); err != nil {
				return err
			}
		}

		res.Design, err = tx.Designs().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Orphans = orphans
	logStale(res.Skipped)
	return res, nil
}

// Delete removes the design, its floors and rooms, every attachment row,
// and after commit every blob of the tree.
func (c *Coordinator) Delete(ctx context.Context, kind domain.DesignKind, id int64) ([]string, error) {
	return c.run(ctx, "delete design", func(tx domain.Tx, batch *media.Batch) error {
		d, err := loadDesign(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		if err := batch.CascadeDelete(ctx, d.MediaTree()); err != nil {
			return err
		}
		if err := tx.Designs().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete design: %w", err)
		}
		return nil
	})
}

// DeleteImage removes one gallery image of the design or of one of its
// floors. An image owned by anything else is reported as not found.
func (c *Coordinator) DeleteImage(ctx context.Context, kind domain.DesignKind, designID, imageID int64) error {
	_, err := c.run(ctx, "delete image", func(tx domain.Tx, batch *media.Batch) error {
		d, err := loadDesign(ctx, tx, kind, designID)
		if err != nil {
			return err
		}
		img, err := tx.Attachments().GetImage(ctx, imageID)
		if err != nil {
			return err
		}
		if !ownedBy(d, img.Owner) {
			return domain.ErrNotFound
		}
		return batch.DeleteImage(ctx, img)
	})
	return err
}

// DeleteFile removes one design file of the design or of one of its floors.
func (c *Coordinator) DeleteFile(ctx context.Context, kind domain.DesignKind, designID, fileID int64) error {
	_, err := c.run(ctx, "delete file", func(tx domain.Tx, batch *media.Batch) error {
		d, err := loadDesign(ctx, tx, kind, designID)
		if err != nil {
			return err
		}
		f, err := tx.Attachments().GetFile(ctx, fileID)
		if err != nil {
			return err
		}
		if !ownedBy(d, f.Owner) {
			return domain.ErrNotFound
		}
		return batch.DeleteFile(ctx, f)
	})
	return err
}

// loadDesign reads the design tree inside tx. A design of another kind is
// reported as not found.
func loadDesign(ctx context.Context, tx domain.Tx, kind domain.DesignKind, id int64) (*domain.Design, error) {
	d, err := tx.Designs().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Kind != kind {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func ownedBy(d *domain.Design, owner domain.OwnerRef) bool {
	if owner == d.Owner() {
		return true
	}
	if owner.Kind != domain.OwnerFloorDesign {
		return false
	}
	for _, f := range d.Floors {
		if f.ID == owner.ID {
			return true
		}
	}
	return false
}

func appendMedia(ctx context.Context, batch *media.Batch, owner domain.OwnerRef, m domain.Media) error {
	if _, err := batch.AppendImages(ctx, owner, m.Gallery); err != nil {
		return err
	}
	if _, err := batch.AppendFiles(ctx, owner, m.Files); err != nil {
		return err
	}
	return nil
}

func logStale(refs []reconcile.StaleRef) {
	for _, s := range refs {
		slog.Warn("stale draft reference skipped",
			"event", "stale_draft_reference",
			"scope", s.Scope,
			"parent_id", s.ParentID,
			"id", s.ID,
			"duplicate", s.Duplicate,
		)
	}
}
