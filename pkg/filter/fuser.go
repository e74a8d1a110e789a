package filter

import (
	"github.com/BinLe1988/media-moderation/pkg/filter/model"
)

// Fuse 将逐帧结果与文本结果融合为总体结论。
// 结果与帧的顺序无关；分析失败的帧不参与计数。
func Fuse(frameResults []model.FrameResult, textResult model.TextModerationResult) model.OverallModerationResult {
	maxSeverity := model.SeverityNone
	issueCount := 0

	for _, frame := range frameResults {
		if frame.Result == nil {
			continue
		}
		maxSeverity = model.MaxSeverity(maxSeverity, frame.Result.Severity)
		if frame.Result.HasIssues {
			issueCount++
		}
	}

	maxSeverity = model.MaxSeverity(maxSeverity, textResult.Severity)
	if textResult.HasIssues {
		issueCount++
	}

	requiresReview := maxSeverity != model.SeverityNone
	status := model.StatusPass
	if requiresReview {
		status = model.StatusReview
	}

	return model.OverallModerationResult{
		Status:              status,
		Severity:            maxSeverity,
		TotalIssues:         issueCount,
		RequiresHumanReview: requiresReview,
	}
}
