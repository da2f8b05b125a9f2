package handler

import (
	"strings"
	"time"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/reconcile"
)

// AdminDTO is the JSON representation of an admin.
type AdminDTO struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func toAdminDTO(a *domain.Admin) AdminDTO {
	return AdminDTO{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName}
}

// mediaURLs resolves blob paths against the public media base.
type mediaURLs string

func (base mediaURLs) url(path string) string {
	if path == "" {
		return ""
	}
	return string(base) + "/" + strings.TrimPrefix(path, "/")
}

// DesignDTO is the JSON representation of a design tree.
type DesignDTO struct {
	ID            int64      `json:"id"`
	Kind          string     `json:"kind"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Style         string     `json:"style"`
	TotalArea     float64    `json:"total_area"`
	RoomCount     int        `json:"room_count"`
	Bedrooms      int        `json:"bedrooms"`
	Bathrooms     int        `json:"bathrooms"`
	CostMin       float64    `json:"cost_min"`
	CostMax       float64    `json:"cost_max"`
	Features      []string   `json:"features"`
	Tags          []string   `json:"tags"`
	CoverImage    string     `json:"cover_image"`
	CoverImageURL string     `json:"cover_image_url"`
	IsActive      bool       `json:"is_active"`
	IsFeatured    bool       `json:"is_featured"`
	Views         int64      `json:"views"`
	Downloads     int64      `json:"downloads"`
	Floors        []FloorDTO `json:"floors"`
	Images        []ImageDTO `json:"images"`
	Files         []FileDTO  `json:"files"`
	CreatedAt     string     `json:"created_at"`
	UpdatedAt     string     `json:"updated_at"`
}

// FloorDTO is the JSON representation of a floor design.
type FloorDTO struct {
	ID            int64      `json:"id"`
	FloorNumber   int        `json:"floor_number"`
	Name          string     `json:"name"`
	TotalArea     float64    `json:"total_area"`
	RoomCount     int        `json:"room_count"`
	Bedrooms      int        `json:"bedrooms"`
	Bathrooms     int        `json:"bathrooms"`
	Notes         string     `json:"notes"`
	CoverImage    string     `json:"cover_image"`
	CoverImageURL string     `json:"cover_image_url"`
	Rooms         []RoomDTO  `json:"rooms"`
	Images        []ImageDTO `json:"images"`
	Files         []FileDTO  `json:"files"`
}

// RoomDTO is the JSON representation of a room.
type RoomDTO struct {
	ID              int64   `json:"id"`
	RoomType        string  `json:"room_type"`
	Name            string  `json:"name"`
	Length          float64 `json:"length"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	HasWindow       bool    `json:"has_window"`
	HasBalcony      bool    `json:"has_balcony"`
	HasAttachedBath bool    `json:"has_attached_bath"`
	HasWardrobe     bool    `json:"has_wardrobe"`
	Notes           string  `json:"notes"`
}

// ImageDTO is the JSON representation of a gallery image.
type ImageDTO struct {
	ID        int64  `json:"id"`
	ImagePath string `json:"image_path"`
	URL       string `json:"url"`
	Caption   string `json:"caption"`
	SortOrder int    `json:"sort_order"`
}

// FileDTO is the JSON representation of a design file.
type FileDTO struct {
	ID            int64  `json:"id"`
	FileType      string `json:"file_type"`
	Title         string `json:"title"`
	FilePath      string `json:"file_path"`
	URL           string `json:"url"`
	FileExtension string `json:"file_extension"`
	FileSize      int64  `json:"file_size"`
	SortOrder     int    `json:"sort_order"`
}

// SkippedDTO reports a draft id that was ignored during a save.
type SkippedDTO struct {
	Scope     string `json:"scope"`
	ParentID  int64  `json:"parent_id,omitempty"`
	ID        int64  `json:"id"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

func (base mediaURLs) design(d *domain.Design) DesignDTO {
	dto := DesignDTO{
		ID:            d.ID,
		Kind:          string(d.Kind),
		Name:          d.Name,
		Description:   d.Description,
		Style:         d.Style,
		TotalArea:     d.TotalArea,
		RoomCount:     d.RoomCount,
		Bedrooms:      d.Bedrooms,
		Bathrooms:     d.Bathrooms,
		CostMin:       d.CostMin,
		CostMax:       d.CostMax,
		Features:      nonNil(d.Features),
		Tags:          nonNil(d.Tags),
		CoverImage:    d.CoverImage,
		CoverImageURL: base.url(d.CoverImage),
		IsActive:      d.IsActive,
		IsFeatured:    d.IsFeatured,
		Views:         d.Views,
		Downloads:     d.Downloads,
		Floors:        make([]FloorDTO, len(d.Floors)),
		Images:        base.images(d.Images),
		Files:         base.files(d.Files),
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.Format(time.RFC3339),
	}
	for i := range d.Floors {
		dto.Floors[i] = base.floor(&d.Floors[i])
	}
	return dto
}

func (base mediaURLs) floor(f *domain.FloorDesign) FloorDTO {
	dto := FloorDTO{
		ID:            f.ID,
		FloorNumber:   f.FloorNumber,
		Name:          f.Name,
		TotalArea:     f.TotalArea,
		RoomCount:     f.RoomCount,
		Bedrooms:      f.Bedrooms,
		Bathrooms:     f.Bathrooms,
		Notes:         f.Notes,
		CoverImage:    f.CoverImage,
		CoverImageURL: base.url(f.CoverImage),
		Rooms:         make([]RoomDTO, len(f.Rooms)),
		Images:        base.images(f.Images),
		Files:         base.files(f.Files),
	}
	for i, r := range f.Rooms {
		dto.Rooms[i] = RoomDTO{
			ID:              r.ID,
			RoomType:        string(r.RoomType),
			Name:            r.Name,
			Length:          r.Length,
			Width:           r.Width,
			Height:          r.Height,
			HasWindow:       r.HasWindow,
			HasBalcony:      r.HasBalcony,
			HasAttachedBath: r.HasAttachedBath,
			HasWardrobe:     r.HasWardrobe,
			Notes:           r.Notes,
		}
	}
	return dto
}

func (base mediaURLs) images(images []domain.DesignImage) []ImageDTO {
	dtos := make([]ImageDTO, len(images))
	for i, img := range images {
		dtos[i] = ImageDTO{
			ID:        img.ID,
			ImagePath: img.ImagePath,
			URL:       base.url(img.ImagePath),
			Caption:   img.Caption,
			SortOrder: img.SortOrder,
		}
	}
	return dtos
}

func (base mediaURLs) files(files []domain.DesignFile) []FileDTO {
	dtos := make([]FileDTO, len(files))
	for i, f := range files {
		dtos[i] = FileDTO{
			ID:            f.ID,
			FileType:      string(f.FileType),
			Title:         f.Title,
			FilePath:      f.FilePath,
			URL:           base.url(f.FilePath),
			FileExtension: f.FileExtension,
			FileSize:      f.FileSize,
			SortOrder:     f.SortOrder,
		}
	}
	return dtos
}

func toSkippedDTOs(refs []reconcile.StaleRef) []SkippedDTO {
	dtos := make([]SkippedDTO, len(refs))
	for i, s := range refs {
		dtos[i] = SkippedDTO{Scope: string(s.Scope), ParentID: s.ParentID, ID: s.ID, Duplicate: s.Duplicate}
	}
	return dtos
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
