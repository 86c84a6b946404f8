package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a post document in the Glimpse application.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Caption  string `gorm:"type:text;not null" json:"caption"`
	Tags     string `gorm:"size:500" json:"tags"`
	Location string `gorm:"size:200" json:"location"`
	ImageURL string `json:"image_url"`
	FileID   *uint  `gorm:"index" json:"file_id,omitempty"`
	File     *File  `gorm:"foreignKey:FileID" json:"file,omitempty"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID" json:"user"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked bool `gorm:"->" json:"liked"`
	// Saved indicates whether the current requesting user saved this post (computed)
	Saved     bool           `gorm:"->" json:"saved"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Like is a unique (user, post) row backing the like toggle.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
