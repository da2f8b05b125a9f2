package service

import (
	"context"
	"fmt"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/media"
	"github.com/msomdec/design-catalog/internal/reconcile"
)

// applyFloors executes a floor plan inside tx. persisted must be the
// design's floors as loaded in the same transaction.
func applyFloors(ctx context.Context, tx domain.Tx, batch *media.Batch, designID int64, persisted []domain.FloorDesign, plan reconcile.Plan) error {
	byID := make(map[int64]*domain.FloorDesign, len(persisted))
	for i := range persisted {
		byID[persisted[i].ID] = &persisted[i]
	}

	for _, op := range plan.Floors {
		var err error
		switch op.Kind {
		case reconcile.OpCreate:
			err = createFloor(ctx, tx, batch, designID, op)
		case reconcile.OpUpdate:
			err = updateFloor(ctx, tx, batch, byID[op.ID], op)
		case reconcile.OpDelete:
			err = deleteFloor(ctx, tx, batch, byID[op.ID])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func createFloor(ctx context.Context, tx domain.Tx, batch *media.Batch, designID int64, op reconcile.FloorOp) error {
	draft := op.Draft
	cover, err := batch.ReplaceCover(ctx, domain.OwnerRef{Kind: domain.OwnerFloorDesign}, "", draft.Media.Cover)
	if err != nil {
		return err
	}

	f := &domain.FloorDesign{DesignID: &designID, FloorFields: draft.Fields, CoverImage: cover}
	if err := tx.Floors().Create(ctx, f); err != nil {
		return fmt.Errorf("create floor: %w", err)
	}
	if err := appendMedia(ctx, batch, f.Owner(), draft.Media); err != nil {
		return err
	}
	return applyRooms(ctx, tx, f.ID, op.Rooms)
}

func updateFloor(ctx context.Context, tx domain.Tx, batch *media.Batch, f *domain.FloorDesign, op reconcile.FloorOp) error {
	draft := op.Draft
	cover, err := batch.ReplaceCover(ctx, f.Owner(), f.CoverImage, draft.Media.Cover)
	if err != nil {
		return err
	}

	f.FloorFields = draft.Fields
	if err := tx.Floors().Update(ctx, f); err != nil {
		return fmt.Errorf("update floor %d: %w", f.ID, err)
	}
	if cover != f.CoverImage {
		if err := tx.Floors().SetCoverImage(ctx, f.ID, cover); err != nil {
			return fmt.Errorf("set floor cover: %w", err)
		}
		f.CoverImage = cover
	}
	if err := appendMedia(ctx, batch, f.Owner(), draft.Media); err != nil {
		return err
	}
	return applyRooms(ctx, tx, f.ID, op.Rooms)
}

// deleteFloor removes the floor's attachments and schedules its blobs; the
// rooms go with the floor row through the foreign-key cascade.
func deleteFloor(ctx context.Context, tx domain.Tx, batch *media.Batch, f *domain.FloorDesign) error {
	if err := batch.CascadeDelete(ctx, f.MediaTree()); err != nil {
		return err
	}
	if err := tx.Floors().Delete(ctx, f.ID); err != nil {
		return fmt.Errorf("delete floor %d: %w", f.ID, err)
	}
	return nil
}

func applyRooms(ctx context.Context, tx domain.Tx, floorID int64, plan reconcile.RoomPlan) error {
	rooms := tx.Rooms()
	for _, op := range plan.Ops {
		switch op.Kind {
		case reconcile.OpCreate:
			r := &domain.Room{FloorID: floorID, RoomFields: op.Draft.Fields}
			if err := rooms.Create(ctx, r); err != nil {
				return fmt.Errorf("create room: %w", err)
			}
		case reconcile.OpUpdate:
			r := &domain.Room{ID: op.ID, FloorID: floorID, RoomFields: op.Draft.Fields}
			if err := rooms.Update(ctx, r); err != nil {
				return fmt.Errorf("update room %d: %w", op.ID, err)
			}
		case reconcile.OpDelete:
			if err := rooms.Delete(ctx, op.ID); err != nil {
				return fmt.Errorf("delete room %d: %w", op.ID, err)
			}
		}
	}
	return nil
}
