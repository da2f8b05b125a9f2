package domain

import (
	"context"
	"time"
)

// OwnerKind tags the entity an attachment belongs to.
type OwnerKind string

const (
	OwnerHomeDesign     OwnerKind = "home_design"
	OwnerInteriorDesign OwnerKind = "interior_design"
	OwnerFloorDesign    OwnerKind = "floor_design"
)

// ParseOwnerKind rejects owner kinds that have no backing entity.
func ParseOwnerKind(s string) (OwnerKind, error) {
	switch OwnerKind(s) {
	case OwnerHomeDesign, OwnerInteriorDesign, OwnerFloorDesign:
		return OwnerKind(s), nil
	}
	return "", Invalid("owner_kind", "unknown owner kind %q", s)
}

// Namespace is the blob directory for the owner kind.
func (k OwnerKind) Namespace() string {
	switch k {
	case OwnerHomeDesign:
		return "home-designs"
	case OwnerInteriorDesign:
		return "interior-designs"
	case OwnerFloorDesign:
		return "floor-designs"
	}
	return "misc"
}

// OwnerRef identifies the owner of an attachment.
type OwnerRef struct {
	Kind OwnerKind
	ID   int64
}

// MediaNode lists the blob-bearing owners of a subtree. Gallery images and
// files are looked up by owner; only the cover path lives on the owner row.
type MediaNode struct {
	Owner    OwnerRef
	Cover    string
	Children []MediaNode
}

// DesignImage is a gallery image. SortOrder is zero-based per owner.
type DesignImage struct {
	ID        int64
	Owner     OwnerRef
	ImagePath string
	Caption   string
	SortOrder int
	CreatedAt time.Time
}

type FileType string

const (
	FileType2DPlan   FileType = "2d_plan"
	FileType3DRender FileType = "3d_render"
	FileType3DModel  FileType = "3d_model"
	FileTypeVideo    FileType = "video"
	FileTypeCAD      FileType = "cad"
	FileTypePDF      FileType = "pdf"
	FileTypeOther    FileType = "other"
)

// ParseFileType maps an empty value to FileTypeOther.
func ParseFileType(s string) (FileType, bool) {
	switch FileType(s) {
	case "":
		return FileTypeOther, true
	case FileType2DPlan, FileType3DRender, FileType3DModel, FileTypeVideo, FileTypeCAD, FileTypePDF, FileTypeOther:
		return FileType(s), true
	}
	return "", false
}

// DesignFile is a typed downloadable attachment.
type DesignFile struct {
	ID            int64
	Owner         OwnerRef
	FileType      FileType
	Title         string
	FilePath      string
	FileExtension string
	FileSize      int64
	SortOrder     int
	CreatedAt     time.Time
}

// AttachmentRepository persists image and file metadata for any owner.
type AttachmentRepository interface {
	CreateImage(ctx context.Context, image *DesignImage) error
	GetImage(ctx context.Context, id int64) (*DesignImage, error)
	ListImages(ctx context.Context, owner OwnerRef) ([]DesignImage, error)
	// MaxImageSortOrder returns -1 when the owner has no images.
	MaxImageSortOrder(ctx context.Context, owner OwnerRef) (int, error)
	DeleteImage(ctx context.Context, id int64) error

	CreateFile(ctx context.Context, file *DesignFile) error
	GetFile(ctx context.Context, id int64) (*DesignFile, error)
	ListFiles(ctx context.Context, owner OwnerRef) ([]DesignFile, error)
	// MaxFileSortOrder returns -1 when the owner has no files.
	MaxFileSortOrder(ctx context.Context, owner OwnerRef) (int, error)
	DeleteFile(ctx context.Context, id int64) error

	// DeleteByOwner removes every image and file row of owner.
	DeleteByOwner(ctx context.Context, owner OwnerRef) error
}
