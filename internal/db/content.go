package db

import "time"

// QuestionPair is one question-mode prompt: the crew sees TrueText, the
// impostor sees DecoyText. Rating fields are curation metadata mutated only
// by the content endpoints, never by gameplay.
type QuestionPair struct {
	ID          uint    `gorm:"primaryKey"`
	TrueText    string  `gorm:"size:280;not null;uniqueIndex:idx_question_pairs_texts"`
	DecoyText   string  `gorm:"size:280;not null;uniqueIndex:idx_question_pairs_texts"`
	Category    string  `gorm:"size:64;index"`
	Difficulty  int     `gorm:"not null;default:1"`
	Active      bool    `gorm:"not null;default:true;index"`
	RatingAvg   float64 `gorm:"not null;default:0"`
	RatingCount int     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// WordPair is the word-mode equivalent of QuestionPair.
type WordPair struct {
	ID          uint    `gorm:"primaryKey"`
	TrueText    string  `gorm:"size:120;not null;uniqueIndex:idx_word_pairs_texts"`
	DecoyText   string  `gorm:"size:120;not null;uniqueIndex:idx_word_pairs_texts"`
	Category    string  `gorm:"size:64;index"`
	Difficulty  int     `gorm:"not null;default:1"`
	Active      bool    `gorm:"not null;default:true;index"`
	RatingAvg   float64 `gorm:"not null;default:0"`
	RatingCount int     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}
