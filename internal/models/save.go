package models

import "time"

// Save marks a post as saved by a user. One row per (user, post).
type Save struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saves_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_saves_user_post" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Save) TableName() string {
	return "saves"
}
