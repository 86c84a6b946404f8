package service

import (
	"context"
	"log/slog"
	"strings"

	"glimpse/internal/cache"
	"glimpse/internal/models"
	"glimpse/internal/observability"
	"glimpse/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxCaptionLen  = 2200
	maxTagsLen     = 500
	maxLocationLen = 200

	// DefaultPageSize is used when the client does not ask for a limit.
	DefaultPageSize = 20
	// MaxPageSize caps the per-page document count.
	MaxPageSize = 50
)

type PostService struct {
	postRepo repository.PostRepository
	saveRepo repository.SaveRepository
	files    *FileService
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
	logger   *slog.Logger
}

type CreatePostInput struct {
	UserID      uint
	Caption     string
	Tags        string
	Location    string
	Filename    string
	ContentType string
	Content     []byte
}

type UpdatePostInput struct {
	UserID      uint
	PostID      uint
	Caption     string
	Tags        string
	Location    string
	Filename    string
	ContentType string
	Content     []byte
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// Page is one cursor page of posts. NextCursor is zero when the page is
// the last one.
type Page struct {
	Posts      []*models.Post
	NextCursor uint
}

func NewPostService(
	postRepo repository.PostRepository,
	saveRepo repository.SaveRepository,
	files *FileService,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	logger *slog.Logger,
) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{
		postRepo: postRepo,
		saveRepo: saveRepo,
		files:    files,
		isAdmin:  isAdmin,
		logger:   logger,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// page trims an over-fetched slice down to limit and derives the cursor
// for the next page.
func page(posts []*models.Post, limit int) Page {
	if len(posts) <= limit {
		return Page{Posts: posts}
	}
	trimmed := posts[:limit]
	return Page{Posts: trimmed, NextCursor: trimmed[len(trimmed)-1].ID}
}

func validateCaptionFields(caption, tags, location string) error {
	if strings.TrimSpace(caption) == "" {
		return models.NewValidationError("Caption is required")
	}
	if len(caption) > maxCaptionLen {
		return models.NewValidationError("Caption too long (max 2200 characters)")
	}
	if len(tags) > maxTagsLen {
		return models.NewValidationError("Tags too long (max 500 characters)")
	}
	if len(location) > maxLocationLen {
		return models.NewValidationError("Location too long (max 200 characters)")
	}
	return nil
}

// CreatePost stores the uploaded image, then writes the post record.
// If the record cannot be written the already-stored file is removed
// best-effort so a failed create leaves no orphan upload behind.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "service.CreatePost")
	defer span.End()
	span.AddAttributes(attribute.Int("user.id", int(in.UserID)))

	if err := validateCaptionFields(in.Caption, in.Tags, in.Location); err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("An image is required")
	}

	file, err := s.files.Upload(ctx, UploadFileInput{
		UserID:      in.UserID,
		Filename:    in.Filename,
		ContentType: in.ContentType,
		Content:     in.Content,
	})
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Caption:  in.Caption,
		Tags:     in.Tags,
		Location: in.Location,
		ImageURL: file.PreviewURL,
		FileID:   &file.ID,
		UserID:   in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		span.SetError(err)
		if cleanupErr := s.files.Remove(ctx, file); cleanupErr != nil {
			s.logger.WarnContext(ctx, "failed to clean up file after post create failure",
				"file_id", file.ID, "error", cleanupErr)
		}
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// Feed returns one cursor page of the global feed, newest first. The
// anonymous first page is served from cache.
func (s *PostService) Feed(ctx context.Context, cursor uint, limit int, currentUserID uint) (Page, error) {
	limit = clampLimit(limit)

	var posts []*models.Post
	var err error
	if currentUserID == 0 && cursor == 0 && limit == DefaultPageSize {
		err = cache.Aside(ctx, cache.FeedFirstPageKey, &posts, cache.FeedTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postRepo.List(ctx, 0, limit+1, 0)
			return fetchErr
		})
	} else {
		posts, err = s.postRepo.List(ctx, cursor, limit+1, currentUserID)
	}
	if err != nil {
		return Page{}, err
	}
	return page(posts, limit), nil
}

// RecentPosts returns the newest posts without cursor bookkeeping, for
// lightweight sidebar-style consumers.
func (s *PostService) RecentPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	limit = clampLimit(limit)

	// The cache entry always holds a full MaxPageSize batch; the key
	// carries no limit, so a short cached slice could otherwise be
	// served to callers asking for more.
	var posts []*models.Post
	err := cache.Aside(ctx, cache.RecentPostsKey, &posts, cache.RecentTTL, func() error {
		var fetchErr error
		posts, fetchErr = s.postRepo.ListRecent(ctx, MaxPageSize)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// SearchPosts matches the query against captions, tags and locations.
func (s *PostService) SearchPosts(ctx context.Context, query string, cursor uint, limit int, currentUserID uint) (Page, error) {
	if strings.TrimSpace(query) == "" {
		return Page{}, models.NewValidationError("Search query is required")
	}
	limit = clampLimit(limit)

	posts, err := s.postRepo.Search(ctx, query, cursor, limit+1, currentUserID)
	if err != nil {
		return Page{}, err
	}
	return page(posts, limit), nil
}

func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id, currentUserID)
}

// GetUserPosts returns one cursor page of a single user's posts.
func (s *PostService) GetUserPosts(ctx context.Context, userID uint, cursor uint, limit int, currentUserID uint) (Page, error) {
	limit = clampLimit(limit)
	posts, err := s.postRepo.ListByUserID(ctx, userID, cursor, limit+1, currentUserID)
	if err != nil {
		return Page{}, err
	}
	return page(posts, limit), nil
}

// UpdatePost edits caption fields and optionally replaces the image.
// A replacement image is uploaded first; if the post update then fails
// the new file is removed, and on success the old file is.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own posts")
	}

	if in.Caption != "" {
		if err := validateCaptionFields(in.Caption, in.Tags, in.Location); err != nil {
			return nil, err
		}
		post.Caption = in.Caption
	}
	if in.Tags != "" {
		if len(in.Tags) > maxTagsLen {
			return nil, models.NewValidationError("Tags too long (max 500 characters)")
		}
		post.Tags = in.Tags
	}
	if in.Location != "" {
		if len(in.Location) > maxLocationLen {
			return nil, models.NewValidationError("Location too long (max 200 characters)")
		}
		post.Location = in.Location
	}

	var oldFileID *uint
	var newFile *models.File
	if len(in.Content) > 0 {
		newFile, err = s.files.Upload(ctx, UploadFileInput{
			UserID:      in.UserID,
			Filename:    in.Filename,
			ContentType: in.ContentType,
			Content:     in.Content,
		})
		if err != nil {
			return nil, err
		}
		oldFileID = post.FileID
		post.ImageURL = newFile.PreviewURL
		post.FileID = &newFile.ID
	}

	// Computed columns must not be written back.
	post.LikesCount = 0
	post.Liked = false
	post.Saved = false

	if err := s.postRepo.Update(ctx, post); err != nil {
		if newFile != nil {
			if cleanupErr := s.files.Remove(ctx, newFile); cleanupErr != nil {
				s.logger.WarnContext(ctx, "failed to clean up file after post update failure",
					"file_id", newFile.ID, "error", cleanupErr)
			}
		}
		return nil, err
	}

	if oldFileID != nil && (newFile == nil || *oldFileID != newFile.ID) {
		s.removeFileByID(ctx, *oldFileID)
	}

	return s.postRepo.GetByID(ctx, in.PostID, in.UserID)
}

// DeletePost removes the post and then its backing file. The file
// cleanup is best-effort; the post is gone either way.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}

	if post.UserID != in.UserID {
		if s.isAdmin == nil {
			return models.NewUnauthorizedError("You can only delete your own posts")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewUnauthorizedError("You can only delete your own posts")
		}
	}

	if err := s.postRepo.Delete(ctx, in.PostID, post.UserID); err != nil {
		return err
	}
	if post.FileID != nil {
		s.removeFileByID(ctx, *post.FileID)
	}
	return nil
}

func (s *PostService) removeFileByID(ctx context.Context, fileID uint) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		s.logger.WarnContext(ctx, "orphaned file record lookup failed", "file_id", fileID, "error", err)
		return
	}
	if err := s.files.Remove(ctx, file); err != nil {
		s.logger.WarnContext(ctx, "failed to remove replaced file", "file_id", fileID, "error", err)
	}
}

// ToggleLike flips the requesting user's like on a post and returns the
// refreshed post.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, error) {
	// Confirm the post exists before touching likes.
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}

	isLiked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if isLiked {
		if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
			return nil, err
		}
	} else {
		if err := s.postRepo.Like(ctx, userID, postID); err != nil {
			return nil, err
		}
	}

	return s.postRepo.GetByID(ctx, postID, userID)
}

// UnlikePost removes the user's like. Unliking a post that was never
// liked is a no-op.
func (s *PostService) UnlikePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}

// SavePost bookmarks a post for the user and returns the refreshed post.
func (s *PostService) SavePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if err := s.saveRepo.Save(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}

// UnsavePost drops the bookmark. Unsaving a post that was never saved
// is a no-op.
func (s *PostService) UnsavePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if err := s.saveRepo.Unsave(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}

// SavedPosts returns one cursor page of the user's saved posts.
func (s *PostService) SavedPosts(ctx context.Context, userID uint, cursor uint, limit int) (Page, error) {
	limit = clampLimit(limit)
	posts, err := s.postRepo.ListSaved(ctx, userID, cursor, limit+1)
	if err != nil {
		return Page{}, err
	}
	return page(posts, limit), nil
}
