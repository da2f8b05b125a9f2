package domain

// Upload is one file received with a save request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageUpload is a gallery image with its caption.
type ImageUpload struct {
	Upload
	Caption string
}

// FileUpload is a design file with its declared type and title.
type FileUpload struct {
	Upload
	FileType FileType
	Title    string
}

// Media groups the uploads attached to one owner in a save.
type Media struct {
	Cover   *Upload
	Gallery []ImageUpload
	Files   []FileUpload
}

// Empty reports whether the save carries no uploads for the owner.
func (m Media) Empty() bool {
	return m.Cover == nil && len(m.Gallery) == 0 && len(m.Files) == 0
}

// DesignDraft is a validated save request for a design root.
//
// ReconcileFloors is false when the caller did not submit a floors list at
// all; persisted floors are then left alone. When true, Floors is the
// complete desired set and persisted floors missing from it are deleted.
type DesignDraft struct {
	Fields          DesignFields
	Media           Media
	Floors          []FloorDraft
	ReconcileFloors bool
}

// FloorDraft either updates the floor with ID or, when ID is nil, creates one.
type FloorDraft struct {
	ID             *int64
	Fields         FloorFields
	Media          Media
	Rooms          []RoomDraft
	ReconcileRooms bool
}

// RoomDraft either updates the room with ID or, when ID is nil, creates one.
type RoomDraft struct {
	ID     *int64
	Fields RoomFields
}
