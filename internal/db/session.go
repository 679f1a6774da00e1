package db

import "time"

type Session struct {
	ID            string    `gorm:"primaryKey;size:64"`
	UserID        string    `gorm:"size:64;index"`
	GroupID       string    `gorm:"size:64"`
	RoundID       string    `gorm:"size:64"`
	IsJudge       bool      `gorm:"not null;default:false"`
	CategoryIndex int       `gorm:"not null;default:0"`
	ExpiresAt     time.Time `gorm:"index;not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}
