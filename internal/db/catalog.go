package db

import "time"

type Category struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:120;not null"`
	Slug        string    `gorm:"size:140;uniqueIndex;not null"`
	Icon        string    `gorm:"size:32;not null"`
	Description *string   `gorm:"size:500"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	Lists       []List    `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

type List struct {
	ID            uint    `gorm:"primaryKey"`
	CategoryID    uint    `gorm:"index;not null"`
	Title         string  `gorm:"size:200;not null"`
	Description   *string `gorm:"size:1000"`
	SourceURL     *string `gorm:"size:500"`
	ReferenceInfo *string `gorm:"size:500"`
	Year          *int
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
	Category      Category   `gorm:"foreignKey:CategoryID"`
	Items         []ListItem `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE"`
}

type ListItem struct {
	ID        uint      `gorm:"primaryKey"`
	ListID    uint      `gorm:"index;not null;uniqueIndex:idx_list_items_list_rank"`
	Rank      int       `gorm:"not null;uniqueIndex:idx_list_items_list_rank"`
	Name      string    `gorm:"size:200;not null;default:''"`
	Details   *string   `gorm:"size:1000"`
	Statistic *string   `gorm:"size:200"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
