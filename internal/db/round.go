package db

import "time"

type Round struct {
	ID               uint   `gorm:"primaryKey"`
	SessionID        uint   `gorm:"index;not null;uniqueIndex:idx_rounds_session_number"`
	Number           int    `gorm:"not null;uniqueIndex:idx_rounds_session_number"`
	State            string `gorm:"size:16;not null"`
	QuestionPairID   *uint  `gorm:"index"`
	WordPairID       *uint  `gorm:"index"`
	ImpostorPlayerID *uint  `gorm:"index"`
	TimeLimitSeconds int    `gorm:"not null;default:0"`
	TimerStartedAt   *time.Time
	GuessText        string `gorm:"size:280"`
	GuessCorrect     bool   `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
	Answers          []Answer  `gorm:"constraint:OnDelete:CASCADE"`
	Votes            []Vote    `gorm:"constraint:OnDelete:CASCADE"`
}
