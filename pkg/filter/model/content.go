package model

// ContentType 定义内容类型
type ContentType byte

const (
	ContentTypeText  ContentType = 0
	ContentTypeImage ContentType = 1
	ContentTypeAudio ContentType = 2
	ContentTypeVideo ContentType = 3
)

// String 返回内容类型名称，用于日志和指标标签
func (t ContentType) String() string {
	switch t {
	case ContentTypeText:
		return "text"
	case ContentTypeImage:
		return "image"
	case ContentTypeAudio:
		return "audio"
	case ContentTypeVideo:
		return "video"
	default:
		return "unknown"
	}
}
