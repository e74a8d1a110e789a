package moderation

import (
	"context"

	"github.com/pkg/errors"
)

// ErrTranscriptUnavailable 无法获得视频音轨的文字稿
var ErrTranscriptUnavailable = errors.New("transcript unavailable")

// TranscriptProvider 将抽取出的音轨转换为文字。
// 语音识别不在本服务范围内，由外部实现提供。
type TranscriptProvider interface {
	Transcript(ctx context.Context, audioPath string) (string, error)
}

// TranscriptFunc 函数适配器
type TranscriptFunc func(ctx context.Context, audioPath string) (string, error)

func (f TranscriptFunc) Transcript(ctx context.Context, audioPath string) (string, error) {
	return f(ctx, audioPath)
}
