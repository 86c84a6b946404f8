package service

import (
	"context"
	"log/slog"

	"glimpse/internal/models"
	"glimpse/internal/repository"
	"glimpse/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
	files    *FileService
	logger   *slog.Logger
}

type UpdateProfileInput struct {
	UserID   uint
	Username string
	Name     string
	Bio      string

	// Optional avatar replacement.
	AvatarFilename    string
	AvatarContentType string
	AvatarContent     []byte
}

func NewUserService(userRepo repository.UserRepository, files *FileService, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{userRepo: userRepo, files: files, logger: logger}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// UpdateProfile edits the profile fields and optionally replaces the
// avatar. A new avatar is uploaded first; if the profile write then
// fails the fresh upload is removed, and on success the old avatar is.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500
	const maxNameLen = 120

	if in.Username != "" && in.Username != user.Username {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = in.Username
	}
	if in.Name != "" {
		if len(in.Name) > maxNameLen {
			return nil, models.NewValidationError("Name too long (max 120 characters)")
		}
		user.Name = in.Name
	}
	if in.Bio != "" {
		if len(in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = in.Bio
	}

	var oldAvatarID *uint
	var newAvatar *models.File
	if len(in.AvatarContent) > 0 {
		newAvatar, err = s.files.Upload(ctx, UploadFileInput{
			UserID:      in.UserID,
			Filename:    in.AvatarFilename,
			ContentType: in.AvatarContentType,
			Content:     in.AvatarContent,
		})
		if err != nil {
			return nil, err
		}
		oldAvatarID = user.AvatarFileID
		user.AvatarURL = newAvatar.PreviewURL
		user.AvatarFileID = &newAvatar.ID
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if newAvatar != nil {
			if cleanupErr := s.files.Remove(ctx, newAvatar); cleanupErr != nil {
				s.logger.WarnContext(ctx, "failed to clean up avatar after profile update failure",
					"file_id", newAvatar.ID, "error", cleanupErr)
			}
		}
		return nil, err
	}

	if oldAvatarID != nil && (newAvatar == nil || *oldAvatarID != newAvatar.ID) {
		old, lookupErr := s.files.GetByID(ctx, *oldAvatarID)
		if lookupErr == nil {
			if removeErr := s.files.Remove(ctx, old); removeErr != nil {
				s.logger.WarnContext(ctx, "failed to remove replaced avatar",
					"file_id", *oldAvatarID, "error", removeErr)
			}
		}
	}

	return user, nil
}

// SetAdmin toggles the admin flag on a user.
func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.IsAdmin = isAdmin
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
