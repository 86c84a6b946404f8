// Package service contains the business logic between HTTP handlers and
// the data access layer.
package service

import (
	"context"
	"log/slog"
	"time"

	"glimpse/internal/models"
	"glimpse/internal/repository"
	"glimpse/internal/storage"
)

// BlobStore is the subset of the disk store used by services. Kept as
// an interface so failure paths can be stubbed in tests.
type BlobStore interface {
	Save(ctx context.Context, filename, contentType string, content []byte) (*storage.StoredFile, error)
	Delete(ctx context.Context, hash string) error
	PreviewURL(hash string) string
	OriginalURL(hash string) string
}

type FileService struct {
	fileRepo repository.FileRepository
	store    BlobStore
	logger   *slog.Logger
}

type UploadFileInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

func NewFileService(fileRepo repository.FileRepository, store BlobStore, logger *slog.Logger) *FileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileService{fileRepo: fileRepo, store: store, logger: logger}
}

// Upload writes the blobs to the store, then records the file. If the
// record cannot be written the stored blobs are removed best-effort so
// a failed upload leaves nothing behind.
func (s *FileService) Upload(ctx context.Context, in UploadFileInput) (*models.File, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	stored, err := s.store.Save(ctx, in.Filename, in.ContentType, in.Content)
	if err != nil {
		return nil, err
	}

	record := &models.File{
		Hash:             stored.Hash,
		UserID:           in.UserID,
		OriginalFilename: in.Filename,
		MimeType:         stored.MimeType,
		SizeBytes:        stored.SizeBytes,
		Width:            stored.Width,
		Height:           stored.Height,
		OriginalPath:     stored.MasterPath,
		PreviewPath:      stored.PreviewPath,
		PreviewURL:       s.store.PreviewURL(stored.Hash),
		UploadedAt:       time.Now().UTC(),
	}

	if err := s.fileRepo.Create(ctx, record); err != nil {
		s.cleanupBlobs(ctx, stored.Hash)
		return nil, err
	}

	return record, nil
}

// Delete removes a file record and its blobs. Only the owner (or an
// admin) may delete a file, and a file still attached to a post or an
// avatar cannot be deleted out from under it.
func (s *FileService) Delete(ctx context.Context, userID, fileID uint, isAdmin bool) error {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.UserID != userID && !isAdmin {
		return models.NewUnauthorizedError("You can only delete your own files")
	}

	refs, err := s.fileRepo.ReferenceCount(ctx, file.ID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return models.NewConflictError("File is still attached to existing content")
	}
	return s.erase(ctx, file)
}

// Remove deletes the record and blobs unless other documents still
// reference the file. Dedupe by content hash means one record can back
// several posts and avatars, so cleanup paths leave shared files alone.
func (s *FileService) Remove(ctx context.Context, file *models.File) error {
	if file == nil {
		return nil
	}
	refs, err := s.fileRepo.ReferenceCount(ctx, file.ID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return nil
	}
	return s.erase(ctx, file)
}

// erase deletes the record, then the blobs. Blob removal failures are
// logged but do not fail the call; the record is already gone.
func (s *FileService) erase(ctx context.Context, file *models.File) error {
	if err := s.fileRepo.Delete(ctx, file.ID); err != nil {
		return err
	}
	s.cleanupBlobs(ctx, file.Hash)
	return nil
}

func (s *FileService) cleanupBlobs(ctx context.Context, hash string) {
	if err := s.store.Delete(ctx, hash); err != nil {
		s.logger.WarnContext(ctx, "failed to clean up stored blobs", "hash", hash, "error", err)
	}
}

// GetByID returns the file record for id.
func (s *FileService) GetByID(ctx context.Context, id uint) (*models.File, error) {
	return s.fileRepo.GetByID(ctx, id)
}
