package server

import (
	"log"

	"undercover/internal/db"
)

// randomActivePrompt picks one active pair of the requested kind, uniformly
// at random. An empty pool is not an error: the round simply runs without a
// prompt, so a thin content library never blocks a session.
func (s *Server) randomActivePrompt(kind string) *PromptPair {
	if s.db == nil {
		return s.fallbackPrompt(kind)
	}
	switch kind {
	case promptKindWord:
		var record db.WordPair
		err := s.db.Where("active = ?", true).Order("random()").Limit(1).First(&record).Error
		if err != nil {
			return nil
		}
		return &PromptPair{
			DBID:       record.ID,
			Kind:       promptKindWord,
			TrueText:   record.TrueText,
			DecoyText:  record.DecoyText,
			Category:   record.Category,
			Difficulty: record.Difficulty,
		}
	case promptKindQuestion:
		var record db.QuestionPair
		err := s.db.Where("active = ?", true).Order("random()").Limit(1).First(&record).Error
		if err != nil {
			return nil
		}
		return &PromptPair{
			DBID:       record.ID,
			Kind:       promptKindQuestion,
			TrueText:   record.TrueText,
			DecoyText:  record.DecoyText,
			Category:   record.Category,
			Difficulty: record.Difficulty,
		}
	default:
		log.Printf("unknown prompt kind %q", kind)
		return nil
	}
}

func (s *Server) fallbackPrompt(kind string) *PromptPair {
	pool := fallbackPromptList(kind)
	if len(pool) == 0 {
		return nil
	}
	s.store.mu.Lock()
	pick := s.store.rng.Intn(len(pool))
	s.store.mu.Unlock()
	prompt := pool[pick]
	return &prompt
}

// fallbackPromptList backs sessions running without a database attached.
func fallbackPromptList(kind string) []PromptPair {
	if kind == promptKindWord {
		return []PromptPair{
			{Kind: promptKindWord, TrueText: "beach", DecoyText: "desert", Category: "places"},
			{Kind: promptKindWord, TrueText: "pizza", DecoyText: "flatbread", Category: "food"},
			{Kind: promptKindWord, TrueText: "library", DecoyText: "bookshop", Category: "places"},
			{Kind: promptKindWord, TrueText: "guitar", DecoyText: "ukulele", Category: "music"},
			{Kind: promptKindWord, TrueText: "penguin", DecoyText: "puffin", Category: "animals"},
			{Kind: promptKindWord, TrueText: "airport", DecoyText: "train station", Category: "places"},
		}
	}
	return []PromptPair{
		{Kind: promptKindQuestion, TrueText: "What is your favorite breakfast?", DecoyText: "What is your favorite dessert?", Category: "food"},
		{Kind: promptKindQuestion, TrueText: "Name something you bring to the beach.", DecoyText: "Name something you bring on a hike.", Category: "travel"},
		{Kind: promptKindQuestion, TrueText: "What job did you dream of as a kid?", DecoyText: "What job would you never take?", Category: "life"},
		{Kind: promptKindQuestion, TrueText: "What animal would you keep as a pet?", DecoyText: "What animal are you afraid of?", Category: "animals"},
		{Kind: promptKindQuestion, TrueText: "Which country would you visit first?", DecoyText: "Which country has the best food?", Category: "travel"},
		{Kind: promptKindQuestion, TrueText: "What do you do on a rainy Sunday?", DecoyText: "What do you do on a sunny Saturday?", Category: "life"},
	}
}

// RatePrompt folds one review into a pair's running average. This is the
// external curation path; gameplay never writes these fields.
func (s *Server) RatePrompt(kind string, id uint, rating int) error {
	if s.db == nil {
		return errPromptNotFound
	}
	switch kind {
	case promptKindWord:
		var record db.WordPair
		if err := s.db.First(&record, id).Error; err != nil {
			return err
		}
		record.RatingAvg = (record.RatingAvg*float64(record.RatingCount) + float64(rating)) / float64(record.RatingCount+1)
		record.RatingCount++
		return s.db.Model(&record).Updates(map[string]any{
			"rating_avg":   record.RatingAvg,
			"rating_count": record.RatingCount,
		}).Error
	case promptKindQuestion:
		var record db.QuestionPair
		if err := s.db.First(&record, id).Error; err != nil {
			return err
		}
		record.RatingAvg = (record.RatingAvg*float64(record.RatingCount) + float64(rating)) / float64(record.RatingCount+1)
		record.RatingCount++
		return s.db.Model(&record).Updates(map[string]any{
			"rating_avg":   record.RatingAvg,
			"rating_count": record.RatingCount,
		}).Error
	}
	return errUnknownPromptKind
}
