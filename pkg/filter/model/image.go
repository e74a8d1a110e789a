package model

// BoundingBox [x, y, width, height]
type BoundingBox [4]float64

// DetectedObject 目标检测结果
type DetectedObject struct {
	Class string      `json:"class"`
	Score float64     `json:"score"`
	BBox  BoundingBox `json:"bbox"`
}

// Landmark 人脸关键点
type Landmark [2]float64

// DetectedFace 人脸检测结果，Probability 可能缺失
type DetectedFace struct {
	Probability *float64   `json:"probability"`
	Landmarks   []Landmark `json:"landmarks"`
}

// ImageModerationResult 图片审核结果
type ImageModerationResult struct {
	HasIssues       bool             `json:"hasIssues"`
	DetectedObjects []DetectedObject `json:"detectedObjects"`
	DetectedFaces   int              `json:"detectedFaces"`
	Issues          []string         `json:"issues"`
	Severity        Severity         `json:"severity"`
}

// AnalysisFailedIssue 分析失败时的占位说明
const AnalysisFailedIssue = "Analysis failed"

// DegradedImageResult 检测器调用失败时替代的降级结果。
// 不阻断发布，UNKNOWN 用于观测。
func DegradedImageResult() ImageModerationResult {
	return ImageModerationResult{
		HasIssues:       false,
		DetectedObjects: []DetectedObject{},
		DetectedFaces:   0,
		Issues:          []string{AnalysisFailedIssue},
		Severity:        SeverityUnknown,
	}
}
