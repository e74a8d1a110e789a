package filter

import (
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/BinLe1988/media-moderation/pkg/filter/model"
)

const (
	// 毒性分数放大倍数与上限
	toxicityMultiplier = 3.0
	toxicityCap        = 1.0

	// hasIssues 使用的毒性阈值，与严重级别阈值不一致，保持现状
	toxicityIssueThreshold = 0.6
)

// TextModerator 文本审核服务
type TextModerator struct {
	tokenizer Tokenizer
	stemmer   Stemmer

	mu      sync.RWMutex
	lexicon *compiledLexicon

	// writeMu 串行化词表的读改写
	writeMu sync.Mutex
}

// NewTextModerator 创建文本审核服务，tokenizer 与 stemmer 为空时使用默认实现
func NewTextModerator(lexicon Lexicon, tokenizer Tokenizer, stemmer Stemmer) (*TextModerator, error) {
	compiled, err := compileLexicon(lexicon)
	if err != nil {
		return nil, err
	}

	if tokenizer == nil {
		tokenizer = WordTokenizer{}
	}
	if stemmer == nil {
		stemmer = PorterStemmer{}
	}

	return &TextModerator{
		tokenizer: tokenizer,
		stemmer:   stemmer,
		lexicon:   compiled,
	}, nil
}

// SetLexicon 整体替换词表
func (m *TextModerator) SetLexicon(lexicon Lexicon) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.setLexicon(lexicon)
}

func (m *TextModerator) setLexicon(lexicon Lexicon) error {
	compiled, err := compileLexicon(lexicon)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.lexicon = compiled
	m.mu.Unlock()
	return nil
}

// Lexicon 返回当前词表副本
func (m *TextModerator) Lexicon() Lexicon {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.lexicon.source
	return Lexicon{
		BannedTerms:        append([]string(nil), src.BannedTerms...),
		NegativeIndicators: append([]string(nil), src.NegativeIndicators...),
		Patterns:           append([]string(nil), src.Patterns...),
	}
}

// LoadSensitiveWords 追加违禁词，已存在的词忽略
func (m *TextModerator) LoadSensitiveWords(words []string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	lexicon := m.Lexicon()
	known := toSet(lexicon.BannedTerms)
	for _, word := range words {
		key := strings.ToLower(strings.TrimSpace(word))
		if key == "" {
			continue
		}
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		lexicon.BannedTerms = append(lexicon.BannedTerms, word)
	}
	return m.setLexicon(lexicon)
}

// AddRegexPattern 追加正则表达式模式
func (m *TextModerator) AddRegexPattern(pattern string) error {
	if _, err := compilePattern(pattern); err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	lexicon := m.Lexicon()
	lexicon.Patterns = append(lexicon.Patterns, pattern)
	return m.setLexicon(lexicon)
}

func (m *TextModerator) snapshot() *compiledLexicon {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lexicon
}

// ModerateText 审核一段文本
func (m *TextModerator) ModerateText(text string) model.TextModerationResult {
	if strings.TrimSpace(text) == "" {
		return model.CleanTextResult()
	}

	lexicon := m.snapshot()
	lowered, offsets := lowerWithOffsets(text)
	tokens := m.tokenizer.Tokenize(lowered)

	bannedWords := m.findBannedWords(lexicon, text, lowered, offsets, tokens)
	hasSuspiciousPattern := matchesAnyPattern(lexicon, text)
	toxicityScore := toxicityScore(lexicon, tokens)

	return model.TextModerationResult{
		HasIssues:             len(bannedWords) > 0 || hasSuspiciousPattern || toxicityScore > toxicityIssueThreshold,
		BannedWords:           bannedWords,
		HasSuspiciousPatterns: hasSuspiciousPattern,
		ToxicityScore:         toxicityScore,
		Severity:              calculateTextSeverity(len(bannedWords), toxicityScore),
	}
}

// ToxicityScore 计算毒性分数
func (m *TextModerator) ToxicityScore(text string) float64 {
	lowered, _ := lowerWithOffsets(text)
	return toxicityScore(m.snapshot(), m.tokenizer.Tokenize(lowered))
}

// findBannedWords 逐词提取词干并匹配违禁词表，按词序输出。
// Word 取原文中对应的片段。
func (m *TextModerator) findBannedWords(lexicon *compiledLexicon, text, lowered string, offsets []int, tokens []string) []model.TextFinding {
	findings := []model.TextFinding{}

	cursor := 0
	for index, token := range tokens {
		surface := token
		if i := strings.Index(lowered[cursor:], token); i >= 0 {
			start := cursor + i
			end := start + len(token)
			surface = text[offsets[start]:offsets[end]]
			cursor = end
		}

		stemmed := m.stemmer.Stem(token)
		if _, banned := lexicon.bannedWords[stemmed]; !banned {
			continue
		}
		findings = append(findings, model.TextFinding{
			Word:       surface,
			Normalized: token,
			Stemmed:    stemmed,
			Position:   index,
		})
	}

	return findings
}

// lowerWithOffsets 逐字符转小写，与 strings.ToLower 结果一致。
// offsets[i] 为小写文本第 i 个字节所属字符在原文中的起始偏移，末尾追加 len(text)。
func lowerWithOffsets(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)

	for i, r := range text {
		before := b.Len()
		b.WriteRune(unicode.ToLower(r))
		for j := before; j < b.Len(); j++ {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

// matchesAnyPattern 命中任一模式即返回，RE2 保证线性时间
func matchesAnyPattern(lexicon *compiledLexicon, text string) bool {
	for _, pattern := range lexicon.regexPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func toxicityScore(lexicon *compiledLexicon, tokens []string) float64 {
	negativeCount := 0
	for _, token := range tokens {
		if _, ok := lexicon.negativeIndicators[token]; ok {
			negativeCount++
		}
	}

	tokenCount := len(tokens)
	if tokenCount < 1 {
		tokenCount = 1
	}
	return math.Min(float64(negativeCount)/float64(tokenCount)*toxicityMultiplier, toxicityCap)
}

// calculateTextSeverity 按优先级依次判断，先命中者生效
func calculateTextSeverity(bannedWordCount int, toxicityScore float64) model.Severity {
	switch {
	case bannedWordCount > 3 || toxicityScore > 0.8:
		return model.SeverityHigh
	case bannedWordCount > 1 || toxicityScore > 0.5:
		return model.SeverityMedium
	case bannedWordCount > 0 || toxicityScore > 0.3:
		return model.SeverityLow
	default:
		return model.SeverityNone
	}
}
