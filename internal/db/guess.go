package db

import "time"

type Guess struct {
	ID         uint      `gorm:"primaryKey"`
	RoundID    uint      `gorm:"index;not null;uniqueIndex:idx_guesses_round_item"`
	PlayerID   uint      `gorm:"index;not null"`
	ListItemID uint      `gorm:"index;not null;uniqueIndex:idx_guesses_round_item"`
	IsCorrect  bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time `gorm:"not null"`
}
