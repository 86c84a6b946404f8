package service

import (
	"context"

	"glimpse/internal/models"
	"glimpse/internal/storage"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn       func(context.Context, *models.Post) error
	getByIDFn      func(context.Context, uint, uint) (*models.Post, error)
	listFn         func(context.Context, uint, int, uint) ([]*models.Post, error)
	listByUserFn   func(context.Context, uint, uint, int, uint) ([]*models.Post, error)
	listRecentFn   func(context.Context, int) ([]*models.Post, error)
	listSavedFn    func(context.Context, uint, uint, int) ([]*models.Post, error)
	searchFn       func(context.Context, string, uint, int, uint) ([]*models.Post, error)
	updateFn       func(context.Context, *models.Post) error
	deleteFn       func(context.Context, uint, uint) error
	likeFn         func(context.Context, uint, uint) error
	unlikeFn       func(context.Context, uint, uint) error
	isLikedFn      func(context.Context, uint, uint) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, cursor uint, limit int, currentUserID uint) ([]*models.Post, error) {
	return s.listFn(ctx, cursor, limit, currentUserID)
}
func (s *postRepoStub) ListByUserID(ctx context.Context, userID, cursor uint, limit int, currentUserID uint) ([]*models.Post, error) {
	return s.listByUserFn(ctx, userID, cursor, limit, currentUserID)
}
func (s *postRepoStub) ListRecent(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.listRecentFn(ctx, limit)
}
func (s *postRepoStub) ListSaved(ctx context.Context, userID, cursor uint, limit int) ([]*models.Post, error) {
	return s.listSavedFn(ctx, userID, cursor, limit)
}
func (s *postRepoStub) Search(ctx context.Context, query string, cursor uint, limit int, currentUserID uint) ([]*models.Post, error) {
	return s.searchFn(ctx, query, cursor, limit, currentUserID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id, userID uint) error {
	return s.deleteFn(ctx, id, userID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn: func(_ context.Context, _ uint, _ int, _ uint) ([]*models.Post, error) {
			return nil, nil
		},
		listByUserFn: func(_ context.Context, _, _ uint, _ int, _ uint) ([]*models.Post, error) {
			return nil, nil
		},
		listRecentFn: func(_ context.Context, _ int) ([]*models.Post, error) { return nil, nil },
		listSavedFn: func(_ context.Context, _, _ uint, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		searchFn: func(_ context.Context, _ string, _ uint, _ int, _ uint) ([]*models.Post, error) {
			return nil, nil
		},
		updateFn:  func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:  func(_ context.Context, _, _ uint) error { return nil },
		likeFn:    func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:  func(_ context.Context, _, _ uint) error { return nil },
		isLikedFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
	}
}

// saveRepoStub is a stub for repository.SaveRepository.
type saveRepoStub struct {
	saveFn    func(context.Context, uint, uint) error
	unsaveFn  func(context.Context, uint, uint) error
	isSavedFn func(context.Context, uint, uint) (bool, error)
}

func (s *saveRepoStub) Save(ctx context.Context, userID, postID uint) error {
	return s.saveFn(ctx, userID, postID)
}
func (s *saveRepoStub) Unsave(ctx context.Context, userID, postID uint) error {
	return s.unsaveFn(ctx, userID, postID)
}
func (s *saveRepoStub) IsSaved(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isSavedFn(ctx, userID, postID)
}

func noopSaveRepo() *saveRepoStub {
	return &saveRepoStub{
		saveFn:    func(_ context.Context, _, _ uint) error { return nil },
		unsaveFn:  func(_ context.Context, _, _ uint) error { return nil },
		isSavedFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
	}
}

// fileRepoStub is an in-memory repository.FileRepository.
type fileRepoStub struct {
	nextID     uint
	files      map[uint]*models.File
	createFn   func(context.Context, *models.File) error
	deleteFn   func(context.Context, uint) error
	refCountFn func(context.Context, uint) (int64, error)
}

func newFileRepoStub() *fileRepoStub {
	return &fileRepoStub{nextID: 1, files: map[uint]*models.File{}}
}

func (s *fileRepoStub) Create(ctx context.Context, file *models.File) error {
	if s.createFn != nil {
		if err := s.createFn(ctx, file); err != nil {
			return err
		}
	}
	file.ID = s.nextID
	s.nextID++
	copied := *file
	s.files[file.ID] = &copied
	return nil
}

func (s *fileRepoStub) GetByID(_ context.Context, id uint) (*models.File, error) {
	if f, ok := s.files[id]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, models.NewNotFoundError("File", id)
}

func (s *fileRepoStub) GetByHash(_ context.Context, hash string) (*models.File, error) {
	for _, f := range s.files {
		if f.Hash == hash {
			copied := *f
			return &copied, nil
		}
	}
	return nil, models.NewNotFoundError("File", hash)
}

func (s *fileRepoStub) ReferenceCount(ctx context.Context, id uint) (int64, error) {
	if s.refCountFn != nil {
		return s.refCountFn(ctx, id)
	}
	return 0, nil
}

func (s *fileRepoStub) Delete(ctx context.Context, id uint) error {
	if s.deleteFn != nil {
		if err := s.deleteFn(ctx, id); err != nil {
			return err
		}
	}
	delete(s.files, id)
	return nil
}

// blobStoreStub is a stub BlobStore recording saves and deletes.
type blobStoreStub struct {
	saveErr   error
	deleteErr error
	saved     []string
	deleted   []string
}

func (s *blobStoreStub) Save(_ context.Context, _, _ string, content []byte) (*storage.StoredFile, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	hash := "hash-of-upload"
	if len(content) > 0 {
		hash = string(rune('a'+len(s.saved)%26)) + "-stub-hash"
	}
	s.saved = append(s.saved, hash)
	return &storage.StoredFile{
		Hash:        hash,
		MimeType:    "image/jpeg",
		SizeBytes:   int64(len(content)),
		Width:       640,
		Height:      480,
		MasterPath:  hash + "/master.jpg",
		PreviewPath: hash + "/preview.webp",
	}, nil
}

func (s *blobStoreStub) Delete(_ context.Context, hash string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, hash)
	return nil
}

func (s *blobStoreStub) PreviewURL(hash string) string {
	return "/media/f/" + hash + "/preview.webp"
}

func (s *blobStoreStub) OriginalURL(hash string) string {
	return "/media/f/" + hash + "/master.jpg"
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	deleteFn        func(context.Context, uint) error
	listFn          func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		listFn:          func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}
