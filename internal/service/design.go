package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/msomdec/design-catalog/internal/domain"
)

// DesignService validates save requests before handing them to the
// Coordinator and serves reads.
type DesignService struct {
	designs     domain.DesignRepository
	coordinator *Coordinator
}

// NewDesignService creates a new DesignService.
func NewDesignService(designs domain.DesignRepository, coordinator *Coordinator) *DesignService {
	return &DesignService{designs: designs, coordinator: coordinator}
}

// Get returns the full tree of the design. Inactive designs are only
// visible when includeInactive is set.
func (s *DesignService) Get(ctx context.Context, kind domain.DesignKind, id int64, includeInactive bool) (*domain.Design, error) {
	d, err := s.designs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Kind != kind || (!d.IsActive && !includeInactive) {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (s *DesignService) Create(ctx context.Context, kind domain.DesignKind, draft *domain.DesignDraft) (*SaveResult, error) {
	if err := ValidateDraft(kind, draft); err != nil {
		return nil, err
	}
	return s.coordinator.Create(ctx, kind, draft)
}

func (s *DesignService) Update(ctx context.Context, kind domain.DesignKind, id int64, draft *domain.DesignDraft) (*SaveResult, error) {
	if err := ValidateDraft(kind, draft); err != nil {
		return nil, err
	}
	return s.coordinator.Update(ctx, kind, id, draft)
}

func (s *DesignService) Delete(ctx context.Context, kind domain.DesignKind, id int64) error {
	_, err := s.coordinator.Delete(ctx, kind, id)
	return err
}

func (s *DesignService) DeleteImage(ctx context.Context, kind domain.DesignKind, designID, imageID int64) error {
	return s.coordinator.DeleteImage(ctx, kind, designID, imageID)
}

func (s *DesignService) DeleteFile(ctx context.Context, kind domain.DesignKind, designID, fileID int64) error {
	return s.coordinator.DeleteFile(ctx, kind, designID, fileID)
}

// ValidateDraft checks the scalar fields of every node of draft and
// normalises the feature and tag sets in place.
func ValidateDraft(kind domain.DesignKind, draft *domain.DesignDraft) error {
	if draft == nil {
		return domain.Invalid("", "request body is required")
	}

	f := &draft.Fields
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return domain.Invalid("name", "is required")
	}
	if len(f.Name) > 255 {
		return domain.Invalid("name", "must be at most 255 characters")
	}
	if err := nonNegative("total_area", f.TotalArea); err != nil {
		return err
	}
	if f.RoomCount < 0 || f.Bedrooms < 0 || f.Bathrooms < 0 {
		return domain.Invalid("room_count", "counts must not be negative")
	}
	if err := nonNegative("cost_min", f.CostMin); err != nil {
		return err
	}
	if err := nonNegative("cost_max", f.CostMax); err != nil {
		return err
	}
	if f.CostMax > 0 && f.CostMin > f.CostMax {
		return domain.Invalid("cost_max", "must not be below cost_min")
	}
	f.Features = normaliseSet(f.Features)
	f.Tags = normaliseSet(f.Tags)

	if !kind.HasFloors() && (draft.ReconcileFloors || len(draft.Floors) > 0) {
		return domain.Invalid("floors", "%s designs have no floors", kind)
	}
	if err := validateFiles("design_files_types", draft.Media.Files); err != nil {
		return err
	}

	for i := range draft.Floors {
		if err := validateFloor(i, &draft.Floors[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateFloor(i int, fd *domain.FloorDraft) error {
	field := func(name string) string { return "floors[" + strconv.Itoa(i) + "]." + name }

	f := &fd.Fields
	f.Name = strings.TrimSpace(f.Name)
	if err := nonNegative(field("total_area"), f.TotalArea); err != nil {
		return err
	}
	if f.RoomCount < 0 || f.Bedrooms < 0 || f.Bathrooms < 0 {
		return domain.Invalid(field("room_count"), "counts must not be negative")
	}
	if err := validateFiles(field("design_files_types"), fd.Media.Files); err != nil {
		return err
	}

	for j := range fd.Rooms {
		r := &fd.Rooms[j].Fields
		rf := func(name string) string { return field("rooms[" + strconv.Itoa(j) + "]." + name) }
		if !r.RoomType.Valid() {
			return domain.Invalid(rf("room_type"), "unknown room type %q", r.RoomType)
		}
		if err := nonNegative(rf("length"), r.Length); err != nil {
			return err
		}
		if err := nonNegative(rf("width"), r.Width); err != nil {
			return err
		}
		if err := nonNegative(rf("height"), r.Height); err != nil {
			return err
		}
	}
	return nil
}

func validateFiles(field string, files []domain.FileUpload) error {
	for i := range files {
		ft, ok := domain.ParseFileType(string(files[i].FileType))
		if !ok {
			return domain.Invalid(field, "unknown file type %q", files[i].FileType)
		}
		files[i].FileType = ft
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return domain.Invalid(field, "must be a non-negative number")
	}
	return nil
}

// normaliseSet trims, drops empties and removes duplicates, keeping the
// first occurrence.
func normaliseSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
