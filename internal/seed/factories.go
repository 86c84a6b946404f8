package seed

import (
	"fmt"
	"math/rand"
	"time"

	"glimpse/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and by tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, opts: opts, rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:  fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Email:     gofakeit.Email(),
		Name:      gofakeit.Name(),
		Bio:       gofakeit.Sentence(10),
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUsers persists n generated users.
func (f *Factory) CreateUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// BuildPost constructs a post for the given user without persisting it.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	place := gofakeit.City()
	post := &models.Post{
		UserID:   user.ID,
		Caption:  buildCaption(f.rand, place, gofakeit.Sentence(8)),
		Tags:     buildTags(f.rand),
		Location: fmt.Sprintf("%s, %s", place, gofakeit.Country()),
		ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/640/640", gofakeit.UUID()),
	}

	// realistic created_at spread over the last 90 days
	daysBack := f.rand.Intn(90)
	hoursBack := f.rand.Intn(24)
	minsBack := f.rand.Intn(60)
	post.CreatedAt = time.Now().
		Add(-time.Duration(daysBack) * 24 * time.Hour).
		Add(-time.Duration(hoursBack) * time.Hour).
		Add(-time.Duration(minsBack) * time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePosts persists n generated posts spread across the given users.
func (f *Factory) CreatePosts(users []*models.User, n int) ([]*models.Post, error) {
	if len(users) == 0 || n == 0 {
		return nil, nil
	}

	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		user := users[f.rand.Intn(len(users))]
		posts = append(posts, f.BuildPost(user))
	}
	if err := f.db.Create(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// CreateEngagement wires random likes and saves between users and
// posts. Each user likes roughly a third of the posts and saves a
// tenth; duplicates are skipped via the unique index.
func (f *Factory) CreateEngagement(users []*models.User, posts []*models.Post) (likes, saves int, err error) {
	for _, user := range users {
		for _, post := range posts {
			if f.rand.Intn(3) == 0 {
				like := models.Like{UserID: user.ID, PostID: post.ID}
				if err := f.db.Create(&like).Error; err == nil {
					likes++
				}
			}
			if f.rand.Intn(10) == 0 {
				save := models.Save{UserID: user.ID, PostID: post.ID}
				if err := f.db.Create(&save).Error; err == nil {
					saves++
				}
			}
		}
	}
	return likes, saves, nil
}
