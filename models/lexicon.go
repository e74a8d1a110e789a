package models

import (
	"gorm.io/gorm"
)

// BannedTerm 违禁词（按词干匹配）
type BannedTerm struct {
	gorm.Model
	Term string `gorm:"size:100;not null;uniqueIndex" json:"term"`
}

// NegativeIndicator 毒性指示词（按原词匹配）
type NegativeIndicator struct {
	gorm.Model
	Word string `gorm:"size:100;not null;uniqueIndex" json:"word"`
}

// SuspiciousPattern 可疑内容正则，按 Position 顺序求值
type SuspiciousPattern struct {
	gorm.Model
	Pattern  string `gorm:"size:500;not null" json:"pattern"`
	Position int    `gorm:"not null;default:0" json:"position"`
}
