// Package media applies the cover, gallery and file rules for attachment
// owners and keeps the blob store in step with the relational store.
//
// Blob writes happen immediately and are journaled so a rolled-back save
// can remove them again. Blob deletions are only journaled and run once the
// surrounding transaction has committed, so a rollback never loses a blob
// that a surviving row still points at. What cannot be cleaned up is
// reported as an orphaned blob.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/msomdec/design-catalog/internal/domain"
)

// Manager creates per-save batches over a blob store.
type Manager struct {
	blobs     domain.BlobStore
	optimizer *Optimizer
}

// NewManager creates a Manager. optimizer may be nil.
func NewManager(blobs domain.BlobStore, optimizer *Optimizer) *Manager {
	return &Manager{blobs: blobs, optimizer: optimizer}
}

// Begin starts a batch whose row changes go through attachments, which is
// expected to be bound to the caller's transaction.
func (m *Manager) Begin(attachments domain.AttachmentRepository) *Batch {
	return &Batch{m: m, attachments: attachments}
}

// Batch is the compensation journal of one save.
type Batch struct {
	m           *Manager
	attachments domain.AttachmentRepository
	written     []string
	deferred    []string
}

// Written lists blobs written so far in this batch.
func (b *Batch) Written() []string { return append([]string(nil), b.written...) }

// Deferred lists blobs scheduled for deletion after commit.
func (b *Batch) Deferred() []string { return append([]string(nil), b.deferred...) }

func (b *Batch) put(ctx context.Context, owner domain.OwnerRef, purpose Purpose, up domain.Upload, optimize bool) (string, error) {
	data := up.Data
	if optimize {
		out, changed, err := b.m.optimizer.Optimize(data)
		switch {
		case errors.Is(err, ErrTooManyPixels):
			return "", domain.Invalid(purpose.field(), "%s: %v", up.Filename, err)
		case err != nil:
			slog.Warn("image optimization failed, storing original", "filename", up.Filename, "error", err)
		case changed:
			data = out
		}
	}

	p := BlobPath(owner.Kind, purpose, up.Filename)
	if err := b.m.blobs.Put(ctx, p, data, up.ContentType); err != nil {
		return "", fmt.Errorf("write blob %s: %w", p, err)
	}
	b.written = append(b.written, p)
	return p, nil
}

func (b *Batch) deferDelete(p string) {
	if p != "" {
		b.deferred = append(b.deferred, p)
	}
}

// ReplaceCover stores up as owner's new cover and returns its path. The
// current cover is removed after commit. With no upload, current is
// returned untouched.
func (b *Batch) ReplaceCover(ctx context.Context, owner domain.OwnerRef, current string, up *domain.Upload) (string, error) {
	if up == nil {
		return current, nil
	}
	p, err := b.put(ctx, owner, PurposeCover, *up, true)
	if err != nil {
		return "", err
	}
	b.deferDelete(current)
	return p, nil
}

// AppendImages adds gallery images after owner's existing ones. Existing
// rows are never renumbered.
func (b *Batch) AppendImages(ctx context.Context, owner domain.OwnerRef, uploads []domain.ImageUpload) ([]domain.DesignImage, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	last, err := b.attachments.MaxImageSortOrder(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("max image sort order: %w", err)
	}
	next := last + 1

	images := make([]domain.DesignImage, 0, len(uploads))
	for i, up := range uploads {
		p, err := b.put(ctx, owner, PurposeGallery, up.Upload, true)
		if err != nil {
			return nil, err
		}
		img := domain.DesignImage{
			Owner:     owner,
			ImagePath: p,
			Caption:   up.Caption,
			SortOrder: next + i,
		}
		if err := b.attachments.CreateImage(ctx, &img); err != nil {
			return nil, fmt.Errorf("create image record: %w", err)
		}
		images = append(images, img)
	}
	return images, nil
}

// AppendFiles adds design files after owner's existing ones. Extension and
// size are taken from the upload as received.
func (b *Batch) AppendFiles(ctx context.Context, owner domain.OwnerRef, uploads []domain.FileUpload) ([]domain.DesignFile, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	last, err := b.attachments.MaxFileSortOrder(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("max file sort order: %w", err)
	}
	next := last + 1

	files := make([]domain.DesignFile, 0, len(uploads))
	for i, up := range uploads {
		p, err := b.put(ctx, owner, PurposeFiles, up.Upload, false)
		if err != nil {
			return nil, err
		}

		fileType := up.FileType
		if fileType == "" {
			fileType = domain.FileTypeOther
		}
		ext := Extension(up.Filename)
		title := up.Title
		if title == "" {
			title = strings.TrimSuffix(up.Filename, path.Ext(up.Filename))
		}

		f := domain.DesignFile{
			Owner:         owner,
			FileType:      fileType,
			Title:         title,
			FilePath:      p,
			FileExtension: ext,
			FileSize:      int64(len(up.Data)),
			SortOrder:     next + i,
		}
		if err := b.attachments.CreateFile(ctx, &f); err != nil {
			return nil, fmt.Errorf("create file record: %w", err)
		}
		files = append(files, f)
	}
	return files, nil
}

// DeleteImage removes the row now and the blob after commit.
func (b *Batch) DeleteImage(ctx context.Context, img *domain.DesignImage) error {
	if err := b.attachments.DeleteImage(ctx, img.ID); err != nil {
		return fmt.Errorf("delete image record: %w", err)
	}
	b.deferDelete(img.ImagePath)
	return nil
}

// DeleteFile removes the row now and the blob after commit.
func (b *Batch) DeleteFile(ctx context.Context, f *domain.DesignFile) error {
	if err := b.attachments.DeleteFile(ctx, f.ID); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	b.deferDelete(f.FilePath)
	return nil
}

// CascadeDelete removes every attachment row of node and its descendants
// and schedules their blobs, covers included, for deletion after commit.
// The owner rows themselves are left to the caller.
func (b *Batch) CascadeDelete(ctx context.Context, node domain.MediaNode) error {
	for _, child := range node.Children {
		if err := b.CascadeDelete(ctx, child); err != nil {
			return err
		}
	}

	images, err := b.attachments.ListImages(ctx, node.Owner)
	if err != nil {
		return fmt.Errorf("list images of %s %d: %w", node.Owner.Kind, node.Owner.ID, err)
	}
	files, err := b.attachments.ListFiles(ctx, node.Owner)
	if err != nil {
		return fmt.Errorf("list files of %s %d: %w", node.Owner.Kind, node.Owner.ID, err)
	}
	if err := b.attachments.DeleteByOwner(ctx, node.Owner); err != nil {
		return fmt.Errorf("delete attachments of %s %d: %w", node.Owner.Kind, node.Owner.ID, err)
	}

	for _, img := range images {
		b.deferDelete(img.ImagePath)
	}
	for _, f := range files {
		b.deferDelete(f.FilePath)
	}
	b.deferDelete(node.Cover)
	return nil
}

// Commit runs the deferred deletions. Blobs that are already gone are
// ignored; blobs that could not be removed are returned as orphans.
func (b *Batch) Commit(ctx context.Context) []string {
	var orphans []string
	for _, p := range b.deferred {
		err := b.m.blobs.Delete(ctx, p)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNotFound):
			slog.Debug("blob already removed", "path", p)
		default:
			slog.Warn("orphaned blob", "event", "orphaned_blob", "path", p, "reason", "delete after commit failed", "error", err)
			orphans = append(orphans, p)
		}
	}
	b.written, b.deferred = nil, nil
	return orphans
}

// Rollback removes every blob written by the batch and forgets the
// deferred deletions. Blobs that could not be removed are returned as
// orphans.
func (b *Batch) Rollback(ctx context.Context) []string {
	var orphans []string
	for _, p := range b.written {
		if err := b.m.blobs.Delete(ctx, p); err != nil && !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("orphaned blob", "event", "orphaned_blob", "path", p, "reason", "compensation after rollback failed", "error", err)
			orphans = append(orphans, p)
		}
	}
	b.written, b.deferred = nil, nil
	return orphans
}
