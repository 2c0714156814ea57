package db

import "time"

type Session struct {
	ID            uint   `gorm:"primaryKey"`
	JoinCode      string `gorm:"size:12;index;not null"`
	PrivateCode   string `gorm:"size:12"`
	HostUserID    string `gorm:"size:64;not null"`
	State         string `gorm:"size:16;not null"`
	PromptKind    string `gorm:"size:16;not null"`
	MaxPlayers    int    `gorm:"not null;default:8"`
	ImpostorCount int    `gorm:"not null;default:0"`
	MaxRounds     int    `gorm:"not null;default:5"`
	RoundSeconds  int    `gorm:"not null;default:0"`
	RoundNumber   int    `gorm:"not null;default:0"`
	StartedAt     *time.Time
	EndedAt       *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
	Players       []Player  `gorm:"constraint:OnDelete:CASCADE"`
	Rounds        []Round   `gorm:"constraint:OnDelete:CASCADE"`
	Events        []Event   `gorm:"constraint:OnDelete:CASCADE"`
}
