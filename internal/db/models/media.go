package models

import "time"

// Media is a stored file attached to a user, grouped by collection.
type Media struct {
	ID         uint64 `gorm:"primaryKey"`
	UserID     uint64 `gorm:"index:idx_media_owner;not null"`
	Collection string `gorm:"size:100;index:idx_media_owner;not null"`
	Name       string `gorm:"size:255;not null"`
	FileName   string `gorm:"size:255;not null"`
	MimeType   string `gorm:"size:100"`
	Disk       string `gorm:"size:50;not null"`
	Size       int64
	HasThumb   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the database table name for the Media model.
func (Media) TableName() string {
	return "media"
}
