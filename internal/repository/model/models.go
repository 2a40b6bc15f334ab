package model

import "time"

type Document struct {
	ID          string `gorm:"size:64;primaryKey"`
	Title       string `gorm:"size:255"`
	Owner       string `gorm:"size:64;index"`
	Content     []byte `gorm:"type:jsonb"`
	CreatedAt   time.Time
	LastUpdated time.Time    `gorm:"not null"`
	SharedLinks []SharedLink `gorm:"constraint:OnDelete:CASCADE"`
	SharedWith  []SharedWith `gorm:"constraint:OnDelete:CASCADE"`
}

type SharedLink struct {
	LinkID     string    `gorm:"size:64;primaryKey"`
	DocumentID string    `gorm:"size:64;index;not null"`
	Permission string    `gorm:"size:16;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

type SharedWith struct {
	DocumentID string    `gorm:"size:64;primaryKey"`
	UserID     string    `gorm:"size:64;primaryKey;index"`
	Permission string    `gorm:"size:16;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

type User struct {
	ID           string `gorm:"size:64;primaryKey"`
	Name         string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
