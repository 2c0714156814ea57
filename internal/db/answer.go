package db

import "time"

type Answer struct {
	ID         uint   `gorm:"primaryKey"`
	RoundID    uint   `gorm:"index;not null;uniqueIndex:idx_answers_round_player"`
	PlayerID   uint   `gorm:"index;not null;uniqueIndex:idx_answers_round_player"`
	Text       string `gorm:"size:280;not null"`
	Normalized string `gorm:"size:280;not null"`
	Edited     bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
