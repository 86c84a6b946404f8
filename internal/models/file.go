package models

import "time"

// File is the stored-file document backing post images and avatars.
// Hash is the sha256 content address under which the blobs live on disk.
type File struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Hash             string    `gorm:"size:64;uniqueIndex;not null" json:"hash"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	OriginalFilename string    `gorm:"size:255" json:"original_filename"`
	MimeType         string    `gorm:"size:100" json:"mime_type"`
	SizeBytes        int64     `json:"size_bytes"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	OriginalPath     string    `gorm:"size:500" json:"-"`
	PreviewPath      string    `gorm:"size:500" json:"-"`
	PreviewURL       string    `gorm:"size:500" json:"preview_url"`
	UploadedAt       time.Time `json:"uploaded_at"`
}
