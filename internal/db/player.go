package db

import "time"

// Player name uniqueness inside a group is checked before insert, not by an index.
type Player struct {
	ID        uint      `gorm:"primaryKey"`
	GroupID   uint      `gorm:"index;not null"`
	Name      string    `gorm:"size:64;not null"`
	TotalWins int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
