package db

import "time"

// Player is one roster entry. A user may re-join a session after leaving,
// so (session_id, user_id) is a plain index; the in-memory store enforces
// at most one live entry per user.
type Player struct {
	ID         uint   `gorm:"primaryKey"`
	SessionID  uint   `gorm:"index;not null"`
	UserID     string `gorm:"size:64;index;not null"`
	Name       string `gorm:"size:64;not null"`
	IsHost     bool   `gorm:"not null;default:false"`
	IsImpostor bool   `gorm:"not null;default:false"`
	Ready      bool   `gorm:"not null;default:false"`
	Eliminated bool   `gorm:"not null;default:false"`
	Score      int    `gorm:"not null;default:0"`
	JoinedAt   time.Time `gorm:"not null"`
	LeftAt     *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	Answers    []Answer  `gorm:"constraint:OnDelete:RESTRICT"`
	Votes      []Vote    `gorm:"foreignKey:VoterID;constraint:OnDelete:RESTRICT"`
}
