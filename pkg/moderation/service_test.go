package moderation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinLe1988/media-moderation/pkg/detector"
	"github.com/BinLe1988/media-moderation/pkg/filter"
	"github.com/BinLe1988/media-moderation/pkg/filter/model"
	"github.com/BinLe1988/media-moderation/pkg/media"
)

// fakeTranscoder 按帧内容写入文件，skip 中的帧不落盘
type fakeTranscoder struct {
	duration    float64
	durationErr error
	extractErr  error
	audioErr    error
	frames      []string
	skip        map[int]bool

	mu        sync.Mutex
	extracted []int
}

func (f *fakeTranscoder) Duration(ctx context.Context, videoPath string) (float64, error) {
	return f.duration, f.durationErr
}

func (f *fakeTranscoder) ExtractFrames(ctx context.Context, videoPath string, timestamps []int, outputDir string) ([]string, error) {
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	f.mu.Lock()
	f.extracted = timestamps
	f.mu.Unlock()
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(timestamps))
	for i := range timestamps {
		path := filepath.Join(outputDir, media.FrameFileName(i+1))
		content := "plain"
		if i < len(f.frames) {
			content = f.frames[i]
		}
		if !f.skip[i] {
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return nil, err
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (f *fakeTranscoder) ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	if f.audioErr != nil {
		return f.audioErr
	}
	return os.WriteFile(outputPath, []byte("pcm"), 0o644)
}

// contentDetectors 根据图片内容返回检测结果
func contentDetectors(calls *atomic.Int32) (detector.ObjectDetector, detector.FaceDetector) {
	objects := detector.ObjectDetectorFunc(func(ctx context.Context, image []byte) ([]model.DetectedObject, error) {
		if calls != nil {
			calls.Add(1)
		}
		switch string(image) {
		case "knife":
			return []model.DetectedObject{{Class: "knife", Score: 0.9}}, nil
		case "broken":
			return nil, errors.New("inference failed")
		default:
			return []model.DetectedObject{}, nil
		}
	})
	faces := detector.FaceDetectorFunc(func(ctx context.Context, image []byte) ([]model.DetectedFace, error) {
		if string(image) == "face" {
			return []model.DetectedFace{{}}, nil
		}
		return []model.DetectedFace{}, nil
	})
	return objects, faces
}

func newTestService(t *testing.T, transcoder Transcoder, transcripts TranscriptProvider) (*Service, string) {
	t.Helper()

	text, err := filter.NewTextModerator(filter.DefaultLexicon(), nil, nil)
	require.NoError(t, err)

	framesDir := t.TempDir()
	objects, faces := contentDetectors(nil)
	return NewService(Config{
		Registry:       detector.NewStaticRegistry(objects, faces),
		Text:           text,
		Transcoder:     transcoder,
		Transcripts:    transcripts,
		FramesDir:      framesDir,
		MaxConcurrency: 2,
	}), framesDir
}

func TestModerateVideo(t *testing.T) {
	transcoder := &fakeTranscoder{duration: 8, frames: []string{"plain", "knife", "face", "plain"}}
	service, framesDir := newTestService(t, transcoder, nil)

	report, err := service.ModerateVideo(context.Background(), "video.mp4", "abc")
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4, 6, 8}, transcoder.extracted)
	assert.Equal(t, 4, report.FramesAnalyzed)
	require.Len(t, report.FrameResults, 4)
	for i, frame := range report.FrameResults {
		assert.Equal(t, media.FrameFileName(i+1), frame.Frame)
		require.NotNil(t, frame.Result)
	}
	assert.Equal(t, model.SeverityHigh, report.FrameResults[1].Result.Severity)
	assert.Equal(t, 1, report.FrameResults[2].Result.DetectedFaces)

	assert.False(t, report.TranscriptAvailable)
	assert.Equal(t, model.SeverityNone, report.TextAnalysis.Severity)

	assert.Equal(t, model.StatusReview, report.OverallResult.Status)
	assert.Equal(t, model.SeverityHigh, report.OverallResult.Severity)
	assert.Equal(t, 2, report.OverallResult.TotalIssues)
	assert.True(t, report.OverallResult.RequiresHumanReview)

	// 临时帧目录已清理
	assert.NoDirExists(t, filepath.Join(framesDir, "abc"))
}

func TestModerateVideoTooShort(t *testing.T) {
	transcoder := &fakeTranscoder{duration: 1.2}
	service, _ := newTestService(t, transcoder, nil)

	report, err := service.ModerateVideo(context.Background(), "video.mp4", "short")
	require.NoError(t, err)

	assert.Nil(t, transcoder.extracted)
	assert.Equal(t, 0, report.FramesAnalyzed)
	assert.NotNil(t, report.FrameResults)
	assert.Equal(t, model.StatusPass, report.OverallResult.Status)
	assert.Equal(t, model.SeverityNone, report.OverallResult.Severity)
}

func TestModerateVideoFrameFailures(t *testing.T) {
	transcoder := &fakeTranscoder{
		duration: 6,
		frames:   []string{"broken", "plain", "plain"},
		skip:     map[int]bool{2: true},
	}
	service, _ := newTestService(t, transcoder, nil)

	report, err := service.ModerateVideo(context.Background(), "video.mp4", "partial")
	require.NoError(t, err)
	require.Len(t, report.FrameResults, 3)

	// 检测器失败得到降级结果
	degraded := report.FrameResults[0]
	require.NotNil(t, degraded.Result)
	assert.Equal(t, model.SeverityUnknown, degraded.Result.Severity)
	assert.Equal(t, []string{model.AnalysisFailedIssue}, degraded.Result.Issues)

	// 帧文件缺失只记录错误
	missing := report.FrameResults[2]
	assert.True(t, missing.Failed())
	assert.NotEmpty(t, missing.Error)

	assert.Equal(t, model.StatusPass, report.OverallResult.Status)
	assert.Equal(t, model.SeverityNone, report.OverallResult.Severity)
	assert.Equal(t, 0, report.OverallResult.TotalIssues)
}

func TestModerateVideoTranscoderErrors(t *testing.T) {
	tests := []struct {
		name       string
		transcoder *fakeTranscoder
		message    string
	}{
		{"duration", &fakeTranscoder{durationErr: errors.New("moov atom not found")}, "failed to read video duration"},
		{"extract", &fakeTranscoder{duration: 10, extractErr: errors.New("ffmpeg exited")}, "failed to extract frames"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestService(t, tt.transcoder, nil)

			report, err := service.ModerateVideo(context.Background(), "video.mp4", "bad")
			require.Error(t, err)
			assert.Nil(t, report)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestModerateVideoTranscript(t *testing.T) {
	var audioPath string
	transcripts := TranscriptFunc(func(ctx context.Context, path string) (string, error) {
		audioPath = path
		return "I will kill you", nil
	})
	service, _ := newTestService(t, &fakeTranscoder{duration: 2}, transcripts)

	report, err := service.ModerateVideo(context.Background(), "video.mp4", "speech")
	require.NoError(t, err)

	assert.True(t, report.TranscriptAvailable)
	assert.Equal(t, "audio.wav", filepath.Base(audioPath))
	assert.Equal(t, model.SeverityMedium, report.TextAnalysis.Severity)
	assert.Equal(t, model.SeverityMedium, report.OverallResult.Severity)
	assert.Equal(t, 1, report.OverallResult.TotalIssues)
}

func TestModerateVideoTranscriptUnavailable(t *testing.T) {
	tests := []struct {
		name        string
		transcoder  *fakeTranscoder
		transcripts TranscriptProvider
	}{
		{"provider error", &fakeTranscoder{duration: 2}, TranscriptFunc(func(ctx context.Context, path string) (string, error) {
			return "", ErrTranscriptUnavailable
		})},
		{"no audio track", &fakeTranscoder{duration: 2, audioErr: errors.New("no audio stream")}, TranscriptFunc(func(ctx context.Context, path string) (string, error) {
			return "unused", nil
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestService(t, tt.transcoder, tt.transcripts)

			report, err := service.ModerateVideo(context.Background(), "video.mp4", "silent")
			require.NoError(t, err)
			assert.False(t, report.TranscriptAvailable)
			assert.Equal(t, model.SeverityNone, report.TextAnalysis.Severity)
			assert.Equal(t, model.StatusPass, report.OverallResult.Status)
		})
	}
}

func TestModerateNotReady(t *testing.T) {
	text, err := filter.NewTextModerator(filter.DefaultLexicon(), nil, nil)
	require.NoError(t, err)

	service := NewService(Config{
		Registry:   detector.NewRegistry(nil, nil),
		Text:       text,
		Transcoder: &fakeTranscoder{duration: 10},
		FramesDir:  t.TempDir(),
	})

	assert.False(t, service.Ready())

	_, err = service.ModerateImage(context.Background(), []byte("plain"))
	assert.ErrorIs(t, err, detector.ErrNotReady)

	_, err = service.ModerateVideo(context.Background(), "video.mp4", "x")
	assert.ErrorIs(t, err, detector.ErrNotReady)

	// 文本审核不依赖模型
	assert.True(t, service.ModerateText(context.Background(), "I will kill you").HasIssues)
}

func TestModerateImage(t *testing.T) {
	service, _ := newTestService(t, nil, nil)

	result, err := service.ModerateImage(context.Background(), []byte("knife"))
	require.NoError(t, err)
	assert.Equal(t, model.SeverityHigh, result.Severity)

	result, err = service.ModerateImage(context.Background(), []byte("broken"))
	require.NoError(t, err)
	assert.Equal(t, model.SeverityUnknown, result.Severity)
	assert.False(t, result.HasIssues)
}

func TestModerateImageCache(t *testing.T) {
	text, err := filter.NewTextModerator(filter.DefaultLexicon(), nil, nil)
	require.NoError(t, err)

	var calls atomic.Int32
	objects, faces := contentDetectors(&calls)
	cache := filter.NewCacheManager(10, time.Minute)
	service := NewService(Config{
		Registry: detector.NewStaticRegistry(objects, faces),
		Text:     text,
		Cache:    cache,
	})

	for i := 0; i < 3; i++ {
		result, err := service.ModerateImage(context.Background(), []byte("knife"))
		require.NoError(t, err)
		assert.Equal(t, model.SeverityHigh, result.Severity)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 2, cache.GetStats().Hits)

	// 降级结果不缓存
	for i := 0; i < 2; i++ {
		_, err := service.ModerateImage(context.Background(), []byte("broken"))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestModerateVideoNoTranscoder(t *testing.T) {
	service, _ := newTestService(t, nil, nil)

	_, err := service.ModerateVideo(context.Background(), "video.mp4", "x")
	assert.Error(t, err)
}

func TestDetectorConcurrencyLimit(t *testing.T) {
	text, err := filter.NewTextModerator(filter.DefaultLexicon(), nil, nil)
	require.NoError(t, err)

	var inFlight, peak atomic.Int32
	objects := detector.ObjectDetectorFunc(func(ctx context.Context, image []byte) ([]model.DetectedObject, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return []model.DetectedObject{}, nil
	})
	faces := detector.FaceDetectorFunc(func(ctx context.Context, image []byte) ([]model.DetectedFace, error) {
		return []model.DetectedFace{}, nil
	})

	service := NewService(Config{
		Registry:       detector.NewStaticRegistry(objects, faces),
		Text:           text,
		Transcoder:     &fakeTranscoder{duration: 8},
		FramesDir:      t.TempDir(),
		MaxConcurrency: 1,
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := service.ModerateImage(context.Background(), []byte("plain"))
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			_, err := service.ModerateVideo(context.Background(), "video.mp4", fmt.Sprintf("v%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
}

func TestModerateImageCanceledWhileWaiting(t *testing.T) {
	text, err := filter.NewTextModerator(filter.DefaultLexicon(), nil, nil)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	objects := detector.ObjectDetectorFunc(func(ctx context.Context, image []byte) ([]model.DetectedObject, error) {
		close(started)
		<-release
		return []model.DetectedObject{}, nil
	})
	_, faces := contentDetectors(nil)
	service := NewService(Config{
		Registry:       detector.NewStaticRegistry(objects, faces),
		Text:           text,
		MaxConcurrency: 1,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = service.ModerateImage(context.Background(), []byte("first"))
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = service.ModerateImage(ctx, []byte("second"))
	assert.Error(t, err)

	close(release)
	<-done
}
