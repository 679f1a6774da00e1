package db

import "time"

type GameGroup struct {
	ID        uint        `gorm:"primaryKey"`
	Name      string      `gorm:"size:120;not null"`
	CreatedBy string      `gorm:"size:64;index;not null"`
	CreatedAt time.Time   `gorm:"not null"`
	UpdatedAt time.Time   `gorm:"not null"`
	Players   []Player    `gorm:"foreignKey:GroupID"`
	Rounds    []GameRound `gorm:"foreignKey:GroupID"`
}

type GameRound struct {
	ID          uint          `gorm:"primaryKey"`
	GroupID     uint          `gorm:"index;not null;uniqueIndex:idx_rounds_group_number"`
	JudgeID     uint          `gorm:"index;not null"`
	RoundNumber int           `gorm:"not null;uniqueIndex:idx_rounds_group_number"`
	Status      string        `gorm:"size:32;not null"`
	ListID      *uint         `gorm:"index"`
	DraftType   string        `gorm:"size:32;not null;default:'serpentine'"`
	WinnerID    *uint         `gorm:"index"`
	CreatedAt   time.Time     `gorm:"not null"`
	UpdatedAt   time.Time     `gorm:"not null"`
	Players     []RoundPlayer `gorm:"foreignKey:RoundID"`
	Guesses     []Guess       `gorm:"foreignKey:RoundID"`
}

type RoundPlayer struct {
	ID            uint      `gorm:"primaryKey"`
	RoundID       uint      `gorm:"index;not null;uniqueIndex:idx_round_players_round_player"`
	PlayerID      uint      `gorm:"index;not null;uniqueIndex:idx_round_players_round_player"`
	DraftPosition int       `gorm:"not null"`
	Score         int       `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
	Player        Player    `gorm:"foreignKey:PlayerID"`
}
