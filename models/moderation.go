package models

import (
	"time"

	"github.com/BinLe1988/media-moderation/pkg/filter/model"
	"github.com/BinLe1988/media-moderation/pkg/media"
	"github.com/BinLe1988/media-moderation/pkg/moderation"
)

// TextModerationRequest 文本审核请求
type TextModerationRequest struct {
	Text string `json:"text"`
}

// TextModerationResponse 文本审核响应
type TextModerationResponse struct {
	Success    bool                       `json:"success"`
	Text       string                     `json:"text"`
	Moderation model.TextModerationResult `json:"moderation"`
}

// ImageModerationResponse 图片审核响应
type ImageModerationResponse struct {
	Success    bool                        `json:"success"`
	Filename   string                      `json:"filename"`
	Moderation model.ImageModerationResult `json:"moderation"`
	Image      *media.ImageInfo            `json:"image,omitempty"`
}

// VideoModerationResponse 视频审核响应
type VideoModerationResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	VideoID  string `json:"videoId"`
	*moderation.VideoReport
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	ModelsLoaded bool      `json:"modelsLoaded"`
}

// BannedTermsRequest 违禁词请求
type BannedTermsRequest struct {
	Terms []string `json:"terms" binding:"required,min=1"`
}

// PatternRequest 正则表达式模式请求
type PatternRequest struct {
	Pattern string `json:"pattern" binding:"required"`
}
