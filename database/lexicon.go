package database

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BinLe1988/media-moderation/models"
	"github.com/BinLe1988/media-moderation/pkg/filter"
)

// SeedLexicon 词表为空时写入默认词表
func SeedLexicon(db *gorm.DB, lexicon filter.Lexicon) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.BannedTerm{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := addBannedTerms(tx, lexicon.BannedTerms); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.NegativeIndicator{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := addNegativeIndicators(tx, lexicon.NegativeIndicators); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.SuspiciousPattern{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			for _, pattern := range lexicon.Patterns {
				if err := addPattern(tx, pattern); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// LoadLexicon 从数据库读取词表
func LoadLexicon(db *gorm.DB) (filter.Lexicon, error) {
	var lexicon filter.Lexicon

	var terms []models.BannedTerm
	if err := db.Order("id").Find(&terms).Error; err != nil {
		return lexicon, errors.Wrap(err, "failed to load banned terms")
	}
	for _, t := range terms {
		lexicon.BannedTerms = append(lexicon.BannedTerms, t.Term)
	}

	var indicators []models.NegativeIndicator
	if err := db.Order("id").Find(&indicators).Error; err != nil {
		return lexicon, errors.Wrap(err, "failed to load negative indicators")
	}
	for _, n := range indicators {
		lexicon.NegativeIndicators = append(lexicon.NegativeIndicators, n.Word)
	}

	var patterns []models.SuspiciousPattern
	if err := db.Order("position").Order("id").Find(&patterns).Error; err != nil {
		return lexicon, errors.Wrap(err, "failed to load patterns")
	}
	for _, p := range patterns {
		lexicon.Patterns = append(lexicon.Patterns, p.Pattern)
	}

	return lexicon, nil
}

// AddBannedTerms 追加违禁词，已存在的忽略
func AddBannedTerms(db *gorm.DB, terms []string) error {
	return addBannedTerms(db, terms)
}

// AddPattern 追加正则，排在现有模式之后
func AddPattern(db *gorm.DB, pattern string) error {
	return addPattern(db, pattern)
}

func addBannedTerms(db *gorm.DB, terms []string) error {
	rows := make([]models.BannedTerm, 0, len(terms))
	for _, term := range normalize(terms) {
		rows = append(rows, models.BannedTerm{Term: term})
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func addNegativeIndicators(db *gorm.DB, words []string) error {
	rows := make([]models.NegativeIndicator, 0, len(words))
	for _, word := range normalize(words) {
		rows = append(rows, models.NegativeIndicator{Word: word})
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func addPattern(db *gorm.DB, pattern string) error {
	var last models.SuspiciousPattern
	position := 0
	err := db.Order("position desc").Limit(1).Find(&last).Error
	if err != nil {
		return err
	}
	if last.ID != 0 {
		position = last.Position + 1
	}
	return db.Create(&models.SuspiciousPattern{Pattern: pattern, Position: position}).Error
}

// normalize 小写、去空白、去重
func normalize(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
