package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"undercover/internal/config"
	"undercover/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// load-prompts seeds the prompt library from tab-separated files. Each line
// is: true-text <TAB> decoy-text <TAB> category [<TAB> difficulty].
func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	questionsPath := flag.String("questions", "", "path to a question-pair TSV file")
	wordsPath := flag.String("words", "", "path to a word-pair TSV file")
	flag.Parse()

	if *questionsPath == "" && *wordsPath == "" {
		log.Fatal("provide -questions and/or -words")
	}

	conn, err := db.Open()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	if *questionsPath != "" {
		count, err := loadPairs(conn, *questionsPath, insertQuestionPair)
		if err != nil {
			log.Fatalf("loading questions failed: %v", err)
		}
		log.Printf("loaded %d question pairs from %s", count, *questionsPath)
	}
	if *wordsPath != "" {
		count, err := loadPairs(conn, *wordsPath, insertWordPair)
		if err != nil {
			log.Fatalf("loading words failed: %v", err)
		}
		log.Printf("loaded %d word pairs from %s", count, *wordsPath)
	}
}

type pairRow struct {
	trueText   string
	decoyText  string
	category   string
	difficulty int
}

func loadPairs(conn *gorm.DB, path string, insert func(*gorm.DB, pairRow) error) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			log.Printf("skipping malformed line: %q", line)
			continue
		}
		row := pairRow{
			trueText:   strings.TrimSpace(fields[0]),
			decoyText:  strings.TrimSpace(fields[1]),
			difficulty: 1,
		}
		if len(fields) > 2 {
			row.category = strings.TrimSpace(fields[2])
		}
		if len(fields) > 3 {
			if value, err := strconv.Atoi(strings.TrimSpace(fields[3])); err == nil && value > 0 {
				row.difficulty = value
			}
		}
		if row.trueText == "" || row.decoyText == "" {
			log.Printf("skipping malformed line: %q", line)
			continue
		}
		if err := insert(conn, row); err != nil {
			return count, err
		}
		count++
	}
	return count, scanner.Err()
}

func insertQuestionPair(conn *gorm.DB, row pairRow) error {
	record := db.QuestionPair{
		TrueText:   row.trueText,
		DecoyText:  row.decoyText,
		Category:   row.category,
		Difficulty: row.difficulty,
		Active:     true,
	}
	return conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

func insertWordPair(conn *gorm.DB, row pairRow) error {
	record := db.WordPair{
		TrueText:   row.trueText,
		DecoyText:  row.decoyText,
		Category:   row.category,
		Difficulty: row.difficulty,
		Active:     true,
	}
	return conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}
