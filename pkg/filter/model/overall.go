package model

// ModerationStatus 总体审核状态
type ModerationStatus string

const (
	StatusPass   ModerationStatus = "PASS"
	StatusReview ModerationStatus = "REVIEW"
)

// FrameResult 单帧分析结果，Result 与 Error 至多一个存在
type FrameResult struct {
	Frame  string                 `json:"frame"`
	Result *ImageModerationResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// Failed 帧分析是否未产生结果
func (f FrameResult) Failed() bool {
	return f.Result == nil
}

// OverallModerationResult 融合后的总体结论，仅由 Fuse 生成
type OverallModerationResult struct {
	Status              ModerationStatus `json:"status"`
	Severity            Severity         `json:"severity"`
	TotalIssues         int              `json:"totalIssues"`
	RequiresHumanReview bool             `json:"requiresHumanReview"`
}
