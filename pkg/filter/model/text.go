package model

// TextFinding 一次违禁词命中
type TextFinding struct {
	Word       string `json:"word"`       // 原文中的形式
	Normalized string `json:"normalized"` // 小写形式
	Stemmed    string `json:"stemmed"`    // 词干，必然属于违禁词表
	Position   int    `json:"position"`   // 分词后的下标
}

// TextModerationResult 文本审核结果
type TextModerationResult struct {
	HasIssues             bool          `json:"hasIssues"`
	BannedWords           []TextFinding `json:"bannedWords"`
	HasSuspiciousPatterns bool          `json:"hasSuspiciousPatterns"`
	ToxicityScore         float64       `json:"toxicityScore"`
	Severity              Severity      `json:"severity"`
}

// CleanTextResult 返回空文本对应的无问题结果
func CleanTextResult() TextModerationResult {
	return TextModerationResult{
		BannedWords: []TextFinding{},
		Severity:    SeverityNone,
	}
}
