package db

import "time"

type Vote struct {
	ID        uint   `gorm:"primaryKey"`
	RoundID   uint   `gorm:"index;not null;uniqueIndex:idx_votes_round_voter"`
	VoterID   uint   `gorm:"index;not null;uniqueIndex:idx_votes_round_voter"`
	TargetID  uint   `gorm:"index;not null"`
	Reason    string `gorm:"size:280"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
