package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Lexicon 文本审核使用的词表与正则，作为数据而非代码维护
type Lexicon struct {
	BannedTerms        []string `json:"bannedTerms"`
	NegativeIndicators []string `json:"negativeIndicators"`
	Patterns           []string `json:"patterns"`
}

// DefaultLexicon 返回内置词表
func DefaultLexicon() Lexicon {
	return Lexicon{
		BannedTerms: []string{
			// Violence
			"kill", "murder", "attack", "harm", "violence", "fight", "war", "weapon",
			"gun", "knife", "bomb", "explode", "shoot", "stab", "assault",

			// Hate speech
			"hate", "racist", "sexist", "nazi", "supremacist", "bigot", "discriminate",
			"slur", "offensive", "derogatory",

			// Explicit content
			"porn", "xxx", "nude", "naked", "explicit", "adult", "sex", "sexual",
			"erotic", "orgy", "fetish", "bdsm",

			// Drugs and illegal activities
			"drug", "cocaine", "heroin", "marijuana", "weed", "opioid", "overdose",
			"illegal", "crime", "theft", "rob", "steal", "fraud", "scam",

			// Self harm
			"suicide", "selfharm", "cutting", "depression", "anxiety", "mental",

			// Harassment
			"bully", "harass", "stalk", "threat", "intimidate", "blackmail",
		},
		NegativeIndicators: []string{
			"hate", "stupid", "idiot", "moron", "retard", "kill", "die", "worthless",
			"useless", "disgusting", "filthy", "trash", "ugly", "fat",
			"dumb", "loser", "failure", "pathetic",
		},
		Patterns: []string{
			`https?://[^\s]+`,                            // URL
			`[0-9]{3}-[0-9]{2}-[0-9]{4}`,                 // SSN
			`[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`,      // email
			`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`, // grouped card number
			`\b\d{16}\b`, // bare card number
		},
	}
}

// compiledLexicon 编译后的词表，构建后只读
type compiledLexicon struct {
	source             Lexicon
	bannedWords        map[string]struct{}
	negativeIndicators map[string]struct{}
	regexPatterns      []*regexp.Regexp
}

// compilePattern 编译正则，统一为大小写不敏感
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	return regex, nil
}

func compileLexicon(lexicon Lexicon) (*compiledLexicon, error) {
	c := &compiledLexicon{
		bannedWords:        toSet(lexicon.BannedTerms),
		negativeIndicators: toSet(lexicon.NegativeIndicators),
		regexPatterns:      make([]*regexp.Regexp, 0, len(lexicon.Patterns)),
	}

	for _, pattern := range lexicon.Patterns {
		regex, err := compilePattern(pattern)
		if err != nil {
			return nil, err
		}
		c.regexPatterns = append(c.regexPatterns, regex)
	}

	c.source = Lexicon{
		BannedTerms:        append([]string(nil), lexicon.BannedTerms...),
		NegativeIndicators: append([]string(nil), lexicon.NegativeIndicators...),
		Patterns:           append([]string(nil), lexicon.Patterns...),
	}
	return c, nil
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		set[word] = struct{}{}
	}
	return set
}
