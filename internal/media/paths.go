package media

import (
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/msomdec/design-catalog/internal/domain"
)

// Purpose is the second path segment of a blob, after the owner namespace.
type Purpose string

const (
	PurposeCover   Purpose = "covers"
	PurposeGallery Purpose = "gallery"
	PurposeFiles   Purpose = "files"
)

// field is the upload field name images of this purpose arrive under.
func (p Purpose) field() string {
	switch p {
	case PurposeCover:
		return "cover_image"
	case PurposeGallery:
		return "gallery_images"
	}
	return "design_files"
}

// BlobPath returns a fresh path such as home-designs/covers/<uuid>.jpg.
// The read side resolves URLs from this layout.
func BlobPath(owner domain.OwnerKind, purpose Purpose, filename string) string {
	name := uuid.NewString()
	if ext := Extension(filename); ext != "" {
		name += "." + ext
	}
	return path.Join(owner.Namespace(), string(purpose), name)
}

// Extension returns the lower-cased extension of filename without the dot,
// or "" when it is missing or not plain alphanumeric.
func Extension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
