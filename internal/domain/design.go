package domain

import (
	"context"
	"time"
)

// DesignKind distinguishes the two catalog roots. Both share one table.
type DesignKind string

const (
	DesignKindHome     DesignKind = "home"
	DesignKindInterior DesignKind = "interior"
)

// ParseDesignKind accepts the path segment used by the HTTP API.
func ParseDesignKind(s string) (DesignKind, bool) {
	switch DesignKind(s) {
	case DesignKindHome, DesignKindInterior:
		return DesignKind(s), true
	}
	return "", false
}

// OwnerKind is the attachment owner kind for designs of this kind.
func (k DesignKind) OwnerKind() OwnerKind {
	if k == DesignKindInterior {
		return OwnerInteriorDesign
	}
	return OwnerHomeDesign
}

// HasFloors reports whether designs of this kind own floor designs.
func (k DesignKind) HasFloors() bool { return k == DesignKindHome }

// DesignFields are the scalar attributes written by a save.
type DesignFields struct {
	Name        string
	Description string
	Style       string
	TotalArea   float64
	RoomCount   int
	Bedrooms    int
	Bathrooms   int
	CostMin     float64
	CostMax     float64
	Features    []string
	Tags        []string
	IsActive    bool
	IsFeatured  bool
}

// Design is the root aggregate.
type Design struct {
	ID   int64
	Kind DesignKind
	DesignFields
	CoverImage string
	Views      int64
	Downloads  int64
	Floors     []FloorDesign
	Images     []DesignImage
	Files      []DesignFile
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Owner returns the attachment owner reference of the design.
func (d *Design) Owner() OwnerRef {
	return OwnerRef{Kind: d.Kind.OwnerKind(), ID: d.ID}
}

// MediaTree describes every blob-bearing node under the design.
func (d *Design) MediaTree() MediaNode {
	node := MediaNode{Owner: d.Owner(), Cover: d.CoverImage}
	for i := range d.Floors {
		node.Children = append(node.Children, d.Floors[i].MediaTree())
	}
	return node
}

// FloorFields are the scalar attributes of a floor design.
type FloorFields struct {
	FloorNumber int
	Name        string
	TotalArea   float64
	RoomCount   int
	Bedrooms    int
	Bathrooms   int
	Notes       string
}

// FloorDesign belongs to at most one design; DesignID is nil for a
// standalone floor.
type FloorDesign struct {
	ID       int64
	DesignID *int64
	FloorFields
	CoverImage string
	Rooms      []Room
	Images     []DesignImage
	Files      []DesignFile
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (f *FloorDesign) Owner() OwnerRef {
	return OwnerRef{Kind: OwnerFloorDesign, ID: f.ID}
}

func (f *FloorDesign) MediaTree() MediaNode {
	return MediaNode{Owner: f.Owner(), Cover: f.CoverImage}
}

type RoomType string

const (
	RoomBedroom       RoomType = "bedroom"
	RoomMasterBedroom RoomType = "master_bedroom"
	RoomLiving        RoomType = "living_room"
	RoomKitchen       RoomType = "kitchen"
	RoomDining        RoomType = "dining_room"
	RoomBathroom      RoomType = "bathroom"
	RoomStudy         RoomType = "study"
	RoomBalcony       RoomType = "balcony"
	RoomGarage        RoomType = "garage"
	RoomUtility       RoomType = "utility"
	RoomStorage       RoomType = "storage"
	RoomOther         RoomType = "other"
)

var roomTypes = map[RoomType]bool{
	RoomBedroom: true, RoomMasterBedroom: true, RoomLiving: true, RoomKitchen: true,
	RoomDining: true, RoomBathroom: true, RoomStudy: true, RoomBalcony: true,
	RoomGarage: true, RoomUtility: true, RoomStorage: true, RoomOther: true,
}

// Valid reports whether t is a known room type.
func (t RoomType) Valid() bool { return roomTypes[t] }

// RoomFields are the scalar attributes of a room. Dimensions are metres.
type RoomFields struct {
	RoomType        RoomType
	Name            string
	Length          float64
	Width           float64
	Height          float64
	HasWindow       bool
	HasBalcony      bool
	HasAttachedBath bool
	HasWardrobe     bool
	Notes           string
}

// Room belongs to exactly one floor design and is deleted with it.
type Room struct {
	ID      int64
	FloorID int64
	RoomFields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DesignRepository persists design roots. GetByID loads the whole tree.
type DesignRepository interface {
	Create(ctx context.Context, design *Design) error
	GetByID(ctx context.Context, id int64) (*Design, error)
	Update(ctx context.Context, design *Design) error
	SetCoverImage(ctx context.Context, id int64, path string) error
	Delete(ctx context.Context, id int64) error
}

// FloorRepository persists floor designs.
type FloorRepository interface {
	Create(ctx context.Context, floor *FloorDesign) error
	Update(ctx context.Context, floor *FloorDesign) error
	SetCoverImage(ctx context.Context, id int64, path string) error
	ListByDesign(ctx context.Context, designID int64) ([]FloorDesign, error)
	Delete(ctx context.Context, id int64) error
}

// RoomRepository persists rooms.
type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	Update(ctx context.Context, room *Room) error
	ListByFloor(ctx context.Context, floorID int64) ([]Room, error)
	Delete(ctx context.Context, id int64) error
}

// CounterRepository bumps the monotonic popularity counters. It never
// joins a reconciliation transaction.
type CounterRepository interface {
	IncrementViews(ctx context.Context, id int64, kind DesignKind) (int64, error)
	IncrementDownloads(ctx context.Context, id int64, kind DesignKind) (int64, error)
}
