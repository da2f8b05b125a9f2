// Package reconcile diffs a submitted draft tree against persisted children.
//
// Identity is the persisted id carried by a draft, never its position. A
// draft without an id is a create, a draft whose id matches a persisted
// child is an update, and a persisted child whose id was not submitted is a
// delete. Drafts naming an id that matches nothing are skipped and reported
// as stale; they are never turned into creates.
package reconcile

import "github.com/msomdec/design-catalog/internal/domain"

type OpKind int

const (
	OpCreate OpKind = iota
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Op is one planned change to a child collection. Draft is nil for deletes;
// ID is zero for creates.
type Op[D any] struct {
	Kind  OpKind
	ID    int64
	Draft *D
}

// Stale is a submitted id that was skipped.
type Stale struct {
	ID int64
	// Duplicate is set when the id matched a persisted child but had already
	// been claimed by an earlier draft in the same list.
	Duplicate bool
}

// Diff plans one child collection. Creates and updates keep submission
// order; deletes follow in persisted order.
func Diff[D any](persisted []int64, drafts []D, idOf func(*D) *int64) ([]Op[D], []Stale) {
	live := make(map[int64]bool, len(persisted))
	for _, id := range persisted {
		live[id] = true
	}

	var (
		ops   []Op[D]
		stale []Stale
	)
	claimed := make(map[int64]bool, len(drafts))
	for i := range drafts {
		d := &drafts[i]
		id := idOf(d)
		if id == nil {
			ops = append(ops, Op[D]{Kind: OpCreate, Draft: d})
			continue
		}
		switch {
		case !live[*id]:
			stale = append(stale, Stale{ID: *id})
		case claimed[*id]:
			stale = append(stale, Stale{ID: *id, Duplicate: true})
		default:
			claimed[*id] = true
			ops = append(ops, Op[D]{Kind: OpUpdate, ID: *id, Draft: d})
		}
	}

	for _, id := range persisted {
		if !claimed[id] {
			ops = append(ops, Op[D]{Kind: OpDelete, ID: id})
		}
	}
	return ops, stale
}

// Scope names the collection a stale reference was found in.
type Scope string

const (
	ScopeFloor Scope = "floor"
	ScopeRoom  Scope = "room"
)

// StaleRef locates a skipped draft id. ParentID is the design for floors
// and the floor for rooms; it is zero for rooms under a floor being created.
type StaleRef struct {
	Scope    Scope
	ParentID int64
	Stale
}

// RoomPlan is the planned change set for one floor's rooms.
type RoomPlan struct {
	Ops []Op[domain.RoomDraft]
}

// FloorOp is a floor change plus, for creates and updates, the plan for
// that floor's rooms.
type FloorOp struct {
	Op[domain.FloorDraft]
	Rooms RoomPlan
}

// Plan is the full change set for a design's floors.
type Plan struct {
	Floors []FloorOp
	Stale  []StaleRef
}

// Count returns the number of floor operations of kind.
func (p Plan) Count(kind OpKind) int {
	n := 0
	for _, op := range p.Floors {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// RoomCount returns the number of room operations of kind across all floors.
func (p Plan) RoomCount(kind OpKind) int {
	n := 0
	for _, op := range p.Floors {
		for _, r := range op.Rooms.Ops {
			if r.Kind == kind {
				n++
			}
		}
	}
	return n
}

// Floors plans the floors of designID. Persisted floors must carry their
// rooms so nested drafts can be diffed against them.
func Floors(designID int64, persisted []domain.FloorDesign, drafts []domain.FloorDraft) Plan {
	ids := make([]int64, len(persisted))
	rooms := make(map[int64][]domain.Room, len(persisted))
	for i, f := range persisted {
		ids[i] = f.ID
		rooms[f.ID] = f.Rooms
	}

	ops, stale := Diff(ids, drafts, func(d *domain.FloorDraft) *int64 { return d.ID })

	var plan Plan
	for _, s := range stale {
		plan.Stale = append(plan.Stale, StaleRef{Scope: ScopeFloor, ParentID: designID, Stale: s})
	}

	for _, op := range ops {
		fop := FloorOp{Op: op}
		switch op.Kind {
		case OpCreate:
			var skipped []Stale
			fop.Rooms, skipped = Rooms(nil, op.Draft.Rooms)
			for _, s := range skipped {
				plan.Stale = append(plan.Stale, StaleRef{Scope: ScopeRoom, Stale: s})
			}
		case OpUpdate:
			if op.Draft.ReconcileRooms {
				var skipped []Stale
				fop.Rooms, skipped = Rooms(rooms[op.ID], op.Draft.Rooms)
				for _, s := range skipped {
					plan.Stale = append(plan.Stale, StaleRef{Scope: ScopeRoom, ParentID: op.ID, Stale: s})
				}
			}
		}
		plan.Floors = append(plan.Floors, fop)
	}
	return plan
}

// Rooms plans one floor's rooms.
func Rooms(persisted []domain.Room, drafts []domain.RoomDraft) (RoomPlan, []Stale) {
	ids := make([]int64, len(persisted))
	for i, r := range persisted {
		ids[i] = r.ID
	}
	ops, stale := Diff(ids, drafts, func(d *domain.RoomDraft) *int64 { return d.ID })
	return RoomPlan{Ops: ops}, stale
}
