package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/media"
)

const (
	maxRequestSize = 256 << 20
	maxImageSize   = 10 << 20
	maxFileSize    = 50 << 20
	multipartMem   = 32 << 20
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// designPayload is the JSON body of a save, or the payload part of a
// multipart save. Floors and rooms are pointers so an absent key can be
// told apart from an empty list.
type designPayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Style       string          `json:"style"`
	TotalArea   float64         `json:"total_area"`
	RoomCount   int             `json:"room_count"`
	Bedrooms    int             `json:"bedrooms"`
	Bathrooms   int             `json:"bathrooms"`
	CostMin     float64         `json:"cost_min"`
	CostMax     float64         `json:"cost_max"`
	Features    []string        `json:"features"`
	Tags        []string        `json:"tags"`
	IsActive    *bool           `json:"is_active"`
	IsFeatured  bool            `json:"is_featured"`
	Floors      *[]floorPayload `json:"floors"`
}

type floorPayload struct {
	ID          *int64         `json:"id"`
	FloorNumber int            `json:"floor_number"`
	Name        string         `json:"name"`
	TotalArea   float64        `json:"total_area"`
	RoomCount   int            `json:"room_count"`
	Bedrooms    int            `json:"bedrooms"`
	Bathrooms   int            `json:"bathrooms"`
	Notes       string         `json:"notes"`
	Rooms       *[]roomPayload `json:"rooms"`
}

type roomPayload struct {
	ID              *int64  `json:"id"`
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

func (p *designPayload) draft() *domain.DesignDraft {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	d := &domain.DesignDraft{
		Fields: domain.DesignFields{
			Name:        p.Name,
			Description: p.Description,
			Style:       p.Style,
			TotalArea:   p.TotalArea,
			RoomCount:   p.RoomCount,
			Bedrooms:    p.Bedrooms,
			Bathrooms:   p.Bathrooms,
			CostMin:     p.CostMin,
			CostMax:     p.CostMax,
			Features:    p.Features,
			Tags:        p.Tags,
			IsActive:    active,
			IsFeatured:  p.IsFeatured,
		},
	}
	if p.Floors == nil {
		return d
	}

	d.ReconcileFloors = true
	d.Floors = make([]domain.FloorDraft, len(*p.Floors))
	for i, f := range *p.Floors {
		fd := domain.FloorDraft{
			ID: f.ID,
			Fields: domain.FloorFields{
				FloorNumber: f.FloorNumber,
				Name:        f.Name,
				TotalArea:   f.TotalArea,
				RoomCount:   f.RoomCount,
				Bedrooms:    f.Bedrooms,
				Bathrooms:   f.Bathrooms,
				Notes:       f.Notes,
			},
		}
		if f.Rooms != nil {
			fd.ReconcileRooms = true
			fd.Rooms = make([]domain.RoomDraft, len(*f.Rooms))
			for j, r := range *f.Rooms {
				fd.Rooms[j] = domain.RoomDraft{
					ID: r.ID,
					Fields: domain.RoomFields{
						RoomType:        domain.RoomType(r.RoomType),
						Name:            r.Name,
						Length:          r.Length,
						Width:           r.Width,
						Height:          r.Height,
						HasWindow:       r.HasWindow,
						HasBalcony:      r.HasBalcony,
						HasAttachedBath: r.HasAttachedBath,
						HasWardrobe:     r.HasWardrobe,
						Notes:           r.Notes,
					},
				}
			}
		}
		d.Floors[i] = fd
	}
	return d
}

// parseDraft reads a save request. JSON bodies carry no uploads; multipart
// bodies carry the JSON in a payload part next to the file parts.
func parseDraft(w http.ResponseWriter, r *http.Request) (*domain.DesignDraft, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var p designPayload
		if err := readJSON(r, &p); err != nil {
			return nil, bodyError(err)
		}
		return p.draft(), nil
	}

	if err := r.ParseMultipartForm(multipartMem); err != nil {
		return nil, bodyError(err)
	}
	defer r.MultipartForm.RemoveAll()

	raw := r.FormValue("payload")
	if raw == "" {
		if fh := firstFile(r.MultipartForm, "payload"); fh != nil {
			b, err := readPart(fh, "payload", maxFileSize)
			if err != nil {
				return nil, err
			}
			raw = string(b)
		}
	}
	if raw == "" {
		return nil, domain.Invalid("payload", "is required")
	}

	var p designPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, domain.Invalid("payload", "is not valid JSON: %v", err)
	}
	d := p.draft()

	form := r.MultipartForm
	m, err := readMedia(form, "")
	if err != nil {
		return nil, err
	}
	d.Media = m
	for i := range d.Floors {
		m, err := readMedia(form, "floors["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		d.Floors[i].Media = m
	}
	if err := checkStrayFloorParts(form, len(d.Floors)); err != nil {
		return nil, err
	}
	return d, nil
}

// partName returns the field name of name under prefix: cover_image at
// the root, floors[0][cover_image] under a floor.
func partName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "[" + name + "]"
}

// readMedia collects the uploads addressed to one owner.
func readMedia(form *multipart.Form, prefix string) (domain.Media, error) {
	var m domain.Media

	if fh := firstFile(form, partName(prefix, "cover_image")); fh != nil {
		up, err := readImage(fh, partName(prefix, "cover_image"))
		if err != nil {
			return m, err
		}
		m.Cover = &up
	}

	galleryField := partName(prefix, "gallery_images")
	captions := values(form, partName(prefix, "gallery_captions"))
	for i, fh := range files(form, galleryField) {
		up, err := readImage(fh, galleryField)
		if err != nil {
			return m, err
		}
		m.Gallery = append(m.Gallery, domain.ImageUpload{Upload: up, Caption: at(captions, i)})
	}

	filesField := partName(prefix, "design_files")
	types := values(form, partName(prefix, "design_files_types"))
	titles := values(form, partName(prefix, "design_files_titles"))
	for i, fh := range files(form, filesField) {
		data, err := readPart(fh, filesField, maxFileSize)
		if err != nil {
			return m, err
		}
		m.Files = append(m.Files, domain.FileUpload{
			Upload: domain.Upload{
				Filename:    fh.Filename,
				ContentType: http.DetectContentType(data),
				Data:        data,
			},
			FileType: domain.FileType(at(types, i)),
			Title:    at(titles, i),
		})
	}
	return m, nil
}

func readImage(fh *multipart.FileHeader, field string) (domain.Upload, error) {
	data, err := readPart(fh, field, maxImageSize)
	if err != nil {
		return domain.Upload{}, err
	}
	// The multipart header is client-supplied; sniff the bytes.
	contentType := http.DetectContentType(data)
	if !imageTypes[contentType] {
		return domain.Upload{}, domain.Invalid(field, "%s is not a JPEG, PNG, WebP or GIF image", fh.Filename)
	}
	if err := media.CheckPixels(data); err != nil {
		return domain.Upload{}, domain.Invalid(field, "%s: %v", fh.Filename, err)
	}
	return domain.Upload{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}

// readPart reads an upload of at most limit bytes. Oversized parts are
// reported against field.
func readPart(fh *multipart.FileHeader, field string, limit int64) ([]byte, error) {
	if fh.Size > limit {
		return nil, domain.Invalid(field, "%s exceeds the %d MB limit", fh.Filename, limit>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, domain.Invalid(field, "%s exceeds the %d MB limit", fh.Filename, limit>>20)
	}
	return data, nil
}

// files returns the parts sent as name[] or name.
func files(form *multipart.Form, name string) []*multipart.FileHeader {
	if fhs := form.File[name+"[]"]; len(fhs) > 0 {
		return fhs
	}
	return form.File[name]
}

func firstFile(form *multipart.Form, name string) *multipart.FileHeader {
	if fhs := files(form, name); len(fhs) > 0 {
		return fhs[0]
	}
	return nil
}

func values(form *multipart.Form, name string) []string {
	if vs := form.Value[name+"[]"]; len(vs) > 0 {
		return vs
	}
	return form.Value[name]
}

func at(vs []string, i int) string {
	if i < len(vs) {
		return vs[i]
	}
	return ""
}

var floorPart = regexp.MustCompile(`^floors\[(\d+)\]`)

// checkStrayFloorParts rejects uploads addressed to a floor index that the
// payload does not contain.
func checkStrayFloorParts(form *multipart.Form, floors int) error {
	for name := range form.File {
		m := floorPart.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if i, err := strconv.Atoi(m[1]); err != nil || i >= floors {
			return domain.Invalid(name, "no floor at index %s in payload", m[1])
		}
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.Invalid("", "request exceeds the %d MB limit", maxRequestSize>>20)
	}
	return domain.Invalid("", "invalid request body: %v", err)
}
