// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// SkipBcrypt stores a plaintext password instead of hashing. Dev
	// databases only; hashing dominates seed time for large NumUsers.
	SkipBcrypt bool
}

var (
	captionOpeners = []string{
		"golden hour at", "early morning in", "late night walk through",
		"weekend trip to", "finally made it to", "a quiet moment in",
		"chasing light around", "first time visiting", "back again at",
		"rainy day in", "sunset over", "blue hour above",
	}

	tagPool = []string{
		"travel", "street", "landscape", "portrait", "food", "architecture",
		"nightlife", "nature", "coffee", "hiking", "analog", "minimal",
		"urban", "wildlife", "macro", "blackandwhite", "goldenhour", "filmlook",
	}
)

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db, opts)

	users, err := f.CreateUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	posts, err := f.CreatePosts(users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("created %d posts", len(posts))

	likes, saves, err := f.CreateEngagement(users, posts)
	if err != nil {
		return fmt.Errorf("failed to create likes and saves: %w", err)
	}
	log.Printf("created %d likes and %d saves", likes, saves)

	log.Println("Database seeding completed")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE saves, likes, posts, files, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

// buildCaption assembles a plausible photo caption from an opener, a
// place and a short sentence.
func buildCaption(r *rand.Rand, place, sentence string) string {
	opener := captionOpeners[r.Intn(len(captionOpeners))]
	return fmt.Sprintf("%s %s. %s", opener, place, sentence)
}

// buildTags picks 1-4 distinct tags from the pool.
func buildTags(r *rand.Rand) string {
	n := 1 + r.Intn(4)
	picked := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for len(picked) < n {
		tag := tagPool[r.Intn(len(tagPool))]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		picked = append(picked, tag)
	}
	return strings.Join(picked, ",")
}
