package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/reconcile"
)

func id(v int64) *int64 { return &v }

func persistedFloors(ids ...int64) []domain.FloorDesign {
	floors := make([]domain.FloorDesign, len(ids))
	for i, fid := range ids {
		floors[i] = domain.FloorDesign{ID: fid, FloorFields: domain.FloorFields{FloorNumber: i}}
	}
	return floors
}

func TestDiff(t *testing.T) {
	type draft struct{ id *int64 }
	idOf := func(d *draft) *int64 { return d.id }

	t.Run("EmptyDraftsDeleteEverything", func(t *testing.T) {
		ops, stale := reconcile.Diff([]int64{1, 2}, nil, idOf)
		require.Len(t, ops, 2)
		assert.Empty(t, stale)
		for _, op := range ops {
			assert.Equal(t, reconcile.OpDelete, op.Kind)
			assert.Nil(t, op.Draft)
		}
	})

	t.Run("SubmissionOrderKept", func(t *testing.T) {
		drafts := []draft{{id: nil}, {id: id(2)}, {id: nil}, {id: id(1)}}
		ops, _ := reconcile.Diff([]int64{1, 2}, drafts, idOf)
		require.Len(t, ops, 4)
		assert.Equal(t, reconcile.OpCreate, ops[0].Kind)
		assert.Same(t, &drafts[0], ops[0].Draft)
		assert.Equal(t, reconcile.OpUpdate, ops[1].Kind)
		assert.Equal(t, int64(2), ops[1].ID)
		assert.Equal(t, reconcile.OpCreate, ops[2].Kind)
		assert.Same(t, &drafts[2], ops[2].Draft)
		assert.Equal(t, reconcile.OpUpdate, ops[3].Kind)
		assert.Equal(t, int64(1), ops[3].ID)
	})

	t.Run("UnknownIDSkipped", func(t *testing.T) {
		ops, stale := reconcile.Diff([]int64{1}, []draft{{id: id(1)}, {id: id(99)}}, idOf)
		require.Len(t, ops, 1)
		assert.Equal(t, reconcile.OpUpdate, ops[0].Kind)
		require.Len(t, stale, 1)
		assert.Equal(t, reconcile.Stale{ID: 99}, stale[0])
	})

	t.Run("DuplicateIDUpdatesOnce", func(t *testing.T) {
		ops, stale := reconcile.Diff([]int64{1}, []draft{{id: id(1)}, {id: id(1)}}, idOf)
		require.Len(t, ops, 1)
		require.Len(t, stale, 1)
		assert.True(t, stale[0].Duplicate)
	})
}

func TestFloors_NoOpUpdate(t *testing.T) {
	persisted := persistedFloors(10, 11)
	persisted[0].Rooms = []domain.Room{{ID: 100, FloorID: 10}, {ID: 101, FloorID: 10}}

	drafts := []domain.FloorDraft{
		{ID: id(10), ReconcileRooms: true, Rooms: []domain.RoomDraft{{ID: id(100)}, {ID: id(101)}}},
		{ID: id(11), ReconcileRooms: true},
	}

	plan := reconcile.Floors(1, persisted, drafts)
	assert.Equal(t, 0, plan.Count(reconcile.OpCreate))
	assert.Equal(t, 0, plan.Count(reconcile.OpDelete))
	assert.Equal(t, 2, plan.Count(reconcile.OpUpdate))
	assert.Equal(t, 0, plan.RoomCount(reconcile.OpCreate))
	assert.Equal(t, 0, plan.RoomCount(reconcile.OpDelete))
	assert.Equal(t, 2, plan.RoomCount(reconcile.OpUpdate))
	assert.Empty(t, plan.Stale)
}

func TestFloors_CreateOnAbsentIdentity(t *testing.T) {
	drafts := []domain.FloorDraft{{Fields: domain.FloorFields{FloorNumber: 3}}}

	plan := reconcile.Floors(1, nil, drafts)
	require.Len(t, plan.Floors, 1)
	op := plan.Floors[0]
	assert.Equal(t, reconcile.OpCreate, op.Kind)
	assert.Equal(t, 3, op.Draft.Fields.FloorNumber)
	assert.Empty(t, op.Rooms.Ops)
}

func TestFloors_MixedUpdateCreateDelete(t *testing.T) {
	persisted := persistedFloors(1, 2, 3)
	drafts := []domain.FloorDraft{
		{ID: id(1), Fields: domain.FloorFields{FloorNumber: 0}},
		{Fields: domain.FloorFields{FloorNumber: 5}},
	}

	plan := reconcile.Floors(7, persisted, drafts)
	require.Len(t, plan.Floors, 4)
	assert.Equal(t, 1, plan.Count(reconcile.OpUpdate))
	assert.Equal(t, 1, plan.Count(reconcile.OpCreate))
	assert.Equal(t, 2, plan.Count(reconcile.OpDelete))

	var deleted []int64
	for _, op := range plan.Floors {
		if op.Kind == reconcile.OpDelete {
			deleted = append(deleted, op.ID)
		}
	}
	assert.Equal(t, []int64{2, 3}, deleted)
}

func TestFloors_RoomsLeftAloneWithoutReconcileRooms(t *testing.T) {
	persisted := persistedFloors(1)
	persisted[0].Rooms = []domain.Room{{ID: 5, FloorID: 1}}

	plan := reconcile.Floors(1, persisted, []domain.FloorDraft{{ID: id(1)}})
	require.Len(t, plan.Floors, 1)
	assert.Empty(t, plan.Floors[0].Rooms.Ops)
}

func TestFloors_RoomsAbsenceImpliesDelete(t *testing.T) {
	persisted := persistedFloors(1)
	persisted[0].Rooms = []domain.Room{{ID: 5, FloorID: 1}, {ID: 6, FloorID: 1}}

	drafts := []domain.FloorDraft{{
		ID:             id(1),
		ReconcileRooms: true,
		Rooms: []domain.RoomDraft{
			{ID: id(6)},
			{Fields: domain.RoomFields{RoomType: domain.RoomKitchen}},
		},
	}}

	plan := reconcile.Floors(1, persisted, drafts)
	assert.Equal(t, 1, plan.RoomCount(reconcile.OpUpdate))
	assert.Equal(t, 1, plan.RoomCount(reconcile.OpCreate))
	assert.Equal(t, 1, plan.RoomCount(reconcile.OpDelete))
}

func TestFloors_StaleReferencesReported(t *testing.T) {
	persisted := persistedFloors(1)
	persisted[0].Rooms = []domain.Room{{ID: 5, FloorID: 1}}

	drafts := []domain.FloorDraft{
		{ID: id(1), ReconcileRooms: true, Rooms: []domain.RoomDraft{{ID: id(5)}, {ID: id(77)}}},
		{ID: id(42)},
		{Rooms: []domain.RoomDraft{{ID: id(5)}}},
	}

	plan := reconcile.Floors(9, persisted, drafts)
	require.Len(t, plan.Stale, 3)
	assert.Equal(t, reconcile.StaleRef{Scope: reconcile.ScopeFloor, ParentID: 9, Stale: reconcile.Stale{ID: 42}}, plan.Stale[0])
	assert.Equal(t, reconcile.StaleRef{Scope: reconcile.ScopeRoom, ParentID: 1, Stale: reconcile.Stale{ID: 77}}, plan.Stale[1])
	assert.Equal(t, reconcile.StaleRef{Scope: reconcile.ScopeRoom, Stale: reconcile.Stale{ID: 5}}, plan.Stale[2])

	// The stale floor is neither created nor deleted; the persisted floor survives.
	assert.Equal(t, 0, plan.Count(reconcile.OpDelete))
	assert.Equal(t, 1, plan.Count(reconcile.OpCreate))
}
