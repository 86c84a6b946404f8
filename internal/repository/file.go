package repository

import (
	"context"
	"errors"

	"glimpse/internal/models"

	"gorm.io/gorm"
)

// FileRepository defines persistence operations for stored-file records.
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id uint) (*models.File, error)
	GetByHash(ctx context.Context, hash string) (*models.File, error)
	Delete(ctx context.Context, id uint) error
	ReferenceCount(ctx context.Context, id uint) (int64, error)
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository returns a new FileRepository implementation.
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(ctx context.Context, file *models.File) error {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Same content uploaded twice; reuse the existing record.
			var existing models.File
			if lookupErr := r.db.WithContext(ctx).
				Where("hash = ?", file.Hash).
				First(&existing).Error; lookupErr == nil {
				*file = existing
				return nil
			}
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, id uint) (*models.File, error) {
	var file models.File
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("File", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &file, nil
}

func (r *fileRepository) GetByHash(ctx context.Context, hash string) (*models.File, error) {
	var file models.File
	if err := r.db.WithContext(ctx).Where("hash = ?", hash).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("File", hash)
		}
		return nil, models.NewInternalError(err)
	}
	return &file, nil
}

// ReferenceCount reports how many documents still point at the file.
// Content dedupe can attach one record to several posts and avatars, so
// callers must not drop the record or its blobs while this is non-zero.
// Soft-deleted posts count until their file_id is detached.
func (r *fileRepository) ReferenceCount(ctx context.Context, id uint) (int64, error) {
	var posts int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&models.Post{}).
		Where("file_id = ?", id).
		Count(&posts).Error; err != nil {
		return 0, models.NewInternalError(err)
	}

	var avatars int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where("avatar_file_id = ?", id).
		Count(&avatars).Error; err != nil {
		return 0, models.NewInternalError(err)
	}

	return posts + avatars, nil
}

func (r *fileRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.File{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
