package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"glimpse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPostRepository_CreateAndGetByID(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	post := &models.Post{Caption: "golden hour", Tags: "sunset", UserID: author.ID}
	require.NoError(t, repo.Create(ctx, post))
	require.NotZero(t, post.ID)

	got, err := repo.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "golden hour", got.Caption)
	assert.Equal(t, author.ID, got.UserID)
	assert.Equal(t, "author", got.User.Username)
	assert.Zero(t, got.LikesCount)
	assert.False(t, got.Liked)
	assert.False(t, got.Saved)
}

func TestPostRepository_GetByIDNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), 999, 0)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestPostRepository_ListKeysetPagination(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "paginator")
	for i := 1; i <= 5; i++ {
		createTestPost(t, db, author.ID, fmt.Sprintf("post %d", i))
	}

	// First page: newest first.
	page1, err := repo.List(ctx, 0, 2, 0)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "post 5", page1[0].Caption)
	assert.Equal(t, "post 4", page1[1].Caption)

	// Second page starts strictly below the last seen ID.
	page2, err := repo.List(ctx, page1[1].ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "post 3", page2[0].Caption)
	assert.Equal(t, "post 2", page2[1].Caption)

	// Final page is short.
	page3, err := repo.List(ctx, page2[1].ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "post 1", page3[0].Caption)

	// Past the end.
	page4, err := repo.List(ctx, page3[0].ID, 2, 0)
	require.NoError(t, err)
	assert.Empty(t, page4)
}

func TestPostRepository_LikeIdempotentAndCounted(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "liker_author")
	fan := createTestUser(t, db, "fan")
	post := createTestPost(t, db, author.ID, "likeable")

	require.NoError(t, repo.Like(ctx, fan.ID, post.ID))
	// A second like is a no-op, not an error.
	require.NoError(t, repo.Like(ctx, fan.ID, post.ID))

	liked, err := repo.IsLiked(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := repo.GetByID(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.True(t, got.Liked)

	require.NoError(t, repo.Unlike(ctx, fan.ID, post.ID))
	got, err = repo.GetByID(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikesCount)
	assert.False(t, got.Liked)
}

func TestPostRepository_Search(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "searcher")
	sunset := &models.Post{Caption: "Sunset over the bay", Tags: "sky", UserID: author.ID}
	require.NoError(t, db.Create(sunset).Error)
	tagged := &models.Post{Caption: "morning walk", Tags: "sunrise, SUNSET", UserID: author.ID}
	require.NoError(t, db.Create(tagged).Error)
	located := &models.Post{Caption: "harbor", Location: "Sunset Beach", UserID: author.ID}
	require.NoError(t, db.Create(located).Error)
	miss := &models.Post{Caption: "city at night", UserID: author.ID}
	require.NoError(t, db.Create(miss).Error)

	results, err := repo.Search(ctx, "sunset", 0, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Newest first.
	assert.Equal(t, located.ID, results[0].ID)
	assert.Equal(t, tagged.ID, results[1].ID)
	assert.Equal(t, sunset.ID, results[2].ID)
}

func TestPostRepository_ListByUserID(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	createTestPost(t, db, alice.ID, "alice 1")
	createTestPost(t, db, bob.ID, "bob 1")
	createTestPost(t, db, alice.ID, "alice 2")

	posts, err := repo.ListByUserID(ctx, alice.ID, 0, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "alice 2", posts[0].Caption)
	assert.Equal(t, "alice 1", posts[1].Caption)
}

func TestPostRepository_ListSaved(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	posts := NewPostRepository(db)
	saves := NewSaveRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "saved_author")
	reader := createTestUser(t, db, "reader")
	first := createTestPost(t, db, author.ID, "keep this")
	createTestPost(t, db, author.ID, "skip this")
	third := createTestPost(t, db, author.ID, "keep this too")

	require.NoError(t, saves.Save(ctx, reader.ID, first.ID))
	require.NoError(t, saves.Save(ctx, reader.ID, third.ID))

	got, err := posts.ListSaved(ctx, reader.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, third.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
	assert.True(t, got[0].Saved)
	assert.True(t, got[1].Saved)
}

func TestPostRepository_UpdateKeepsReassignedFile(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "reframer")
	oldFile := &models.File{Hash: strings.Repeat("a", 64), UserID: author.ID}
	require.NoError(t, db.Create(oldFile).Error)
	newFile := &models.File{Hash: strings.Repeat("b", 64), UserID: author.ID}
	require.NoError(t, db.Create(newFile).Error)

	post := &models.Post{Caption: "reframe me", UserID: author.ID, FileID: &oldFile.ID}
	require.NoError(t, db.Create(post).Error)

	// Load with preloads the way the update path sees it; the stale
	// preloaded File must not win over the reassigned FileID.
	loaded, err := repo.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, loaded.File)
	require.Equal(t, oldFile.ID, loaded.File.ID)

	loaded.FileID = &newFile.ID
	require.NoError(t, repo.Update(ctx, loaded))

	got, err := repo.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, got.FileID)
	assert.Equal(t, newFile.ID, *got.FileID)
}

func TestPostRepository_DeleteDetachesFile(t *testing.T) {
	t.Parallel()

	// Foreign keys enforced: a soft-deleted post that kept its file_id
	// would make the later file delete fail.
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Like{},
		&models.Save{},
		&models.File{},
	))

	posts := NewPostRepository(db)
	files := NewFileRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "detacher")
	file := &models.File{Hash: strings.Repeat("c", 64), UserID: author.ID}
	require.NoError(t, db.Create(file).Error)
	post := &models.Post{Caption: "pinned", UserID: author.ID, FileID: &file.ID}
	require.NoError(t, db.Create(post).Error)

	require.NoError(t, posts.Delete(ctx, post.ID, author.ID))

	var kept models.Post
	require.NoError(t, db.Unscoped().First(&kept, post.ID).Error)
	assert.Nil(t, kept.FileID)

	// With the row detached the backing file can go.
	require.NoError(t, files.Delete(ctx, file.ID))
}

func TestPostRepository_DeleteRemovesFromLists(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "deleter")
	post := createTestPost(t, db, author.ID, "ephemeral")

	require.NoError(t, repo.Delete(ctx, post.ID, author.ID))

	_, err := repo.GetByID(ctx, post.ID, 0)
	require.Error(t, err)

	list, err := repo.List(ctx, 0, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
