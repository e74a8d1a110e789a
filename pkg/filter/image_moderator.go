package filter

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/BinLe1988/media-moderation/pkg/filter/model"
)

const (
	highRiskMinScore      = 0.5
	inappropriateMinScore = 0.7
	spamObjectCount       = 10
)

// ObjectRules 图片审核使用的标签表
type ObjectRules struct {
	HighRiskObjects      []string `json:"highRiskObjects"`
	InappropriateObjects []string `json:"inappropriateObjects"`
	// HighRiskKeywords 问题描述中出现任一关键词即判定为 HIGH
	HighRiskKeywords []string `json:"highRiskKeywords"`
}

// DefaultObjectRules 返回内置标签表
func DefaultObjectRules() ObjectRules {
	return ObjectRules{
		HighRiskObjects:      []string{"knife", "gun", "pistol", "rifle", "weapon"},
		InappropriateObjects: []string{"person", "cell phone", "book", "laptop", "tv"},
		HighRiskKeywords:     []string{"High-risk", "weapon", "gun", "knife"},
	}
}

// ImageModerator 将检测结果解释为审核结论
type ImageModerator struct {
	highRiskObjects      map[string]struct{}
	inappropriateObjects map[string]struct{}
	highRiskKeywords     []string
}

// NewImageModerator 创建图片审核器
func NewImageModerator(rules ObjectRules) *ImageModerator {
	return &ImageModerator{
		highRiskObjects:      toSet(rules.HighRiskObjects),
		inappropriateObjects: toSet(rules.InappropriateObjects),
		highRiskKeywords:     append([]string(nil), rules.HighRiskKeywords...),
	}
}

// Interpret 根据单张图片的目标与人脸检测结果生成审核结论
func (m *ImageModerator) Interpret(objects []model.DetectedObject, faces []model.DetectedFace) model.ImageModerationResult {
	if objects == nil {
		objects = []model.DetectedObject{}
	}

	issues := m.analyzeDetections(objects, faces)

	return model.ImageModerationResult{
		HasIssues:       len(issues) > 0,
		DetectedObjects: objects,
		DetectedFaces:   len(faces),
		Issues:          issues,
		Severity:        m.calculateImageSeverity(issues),
	}
}

// analyzeDetections 生成问题描述
func (m *ImageModerator) analyzeDetections(objects []model.DetectedObject, faces []model.DetectedFace) []string {
	issues := []string{}

	for _, obj := range objects {
		class := strings.ToLower(obj.Class)

		if _, ok := m.highRiskObjects[class]; ok && obj.Score > highRiskMinScore {
			issues = append(issues, fmt.Sprintf("High-risk object detected: %s (confidence: %s)", obj.Class, formatConfidence(obj.Score)))
		}

		if _, ok := m.inappropriateObjects[class]; ok && obj.Score > inappropriateMinScore {
			issues = append(issues, fmt.Sprintf("Potentially inappropriate object: %s", obj.Class))
		}
	}

	// 人脸可能涉及隐私，只报告一次
	if len(faces) > 0 {
		issues = append(issues, fmt.Sprintf("Detected %d face(s) - potential privacy concern", len(faces)))
	}

	// 目标过多疑似垃圾内容
	if len(objects) > spamObjectCount {
		issues = append(issues, fmt.Sprintf("High object count (%d) - potential spam", len(objects)))
	}

	return issues
}

// calculateImageSeverity 关键词按子串匹配
func (m *ImageModerator) calculateImageSeverity(issues []string) model.Severity {
	for _, issue := range issues {
		for _, keyword := range m.highRiskKeywords {
			if strings.Contains(issue, keyword) {
				return model.SeverityHigh
			}
		}
	}

	switch {
	case len(issues) > 2:
		return model.SeverityMedium
	case len(issues) > 0:
		return model.SeverityLow
	default:
		return model.SeverityNone
	}
}

// formatConfidence 保留两位小数，恰好为一半时远离零进位（fmt 的 %.2f 为就近取偶）。
func formatConfidence(score float64) string {
	abs := score
	sign := ""
	if score < 0 {
		abs, sign = -score, "-"
	}

	r := new(big.Rat).SetFloat64(abs)
	if r == nil {
		return fmt.Sprintf("%.2f", score)
	}
	r.Mul(r, big.NewRat(100, 1))
	r.Add(r, big.NewRat(1, 2))
	cents := new(big.Int).Quo(r.Num(), r.Denom())

	hundred := big.NewInt(100)
	whole, frac := new(big.Int).QuoRem(cents, hundred, new(big.Int))
	return fmt.Sprintf("%s%s.%02d", sign, whole.String(), frac.Int64())
}
