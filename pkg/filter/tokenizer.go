package filter

import (
	"regexp"
	"strings"

	porterstemmer "github.com/reiver/go-porterstemmer"
)

// Tokenizer 分词器
type Tokenizer interface {
	Tokenize(text string) []string
}

// Stemmer 词干提取器，相同输入必须得到相同输出
type Stemmer interface {
	Stem(word string) string
}

var wordSeparator = regexp.MustCompile(`[^A-Za-zА-Яа-я0-9_]+`)

// WordTokenizer 按非单词字符切分，丢弃空串
type WordTokenizer struct{}

// Tokenize 实现 Tokenizer
func (WordTokenizer) Tokenize(text string) []string {
	parts := wordSeparator.Split(text, -1)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// PorterStemmer 英文 Porter 词干算法
type PorterStemmer struct{}

// Stem 实现 Stemmer。底层实现对个别输入（如 "eed"）会越界 panic，此时原样返回小写词。
func (PorterStemmer) Stem(word string) (stem string) {
	defer func() {
		if r := recover(); r != nil {
			stem = strings.ToLower(word)
		}
	}()
	return porterstemmer.StemString(word)
}
