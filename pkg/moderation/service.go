package moderation

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/BinLe1988/media-moderation/pkg/detector"
	"github.com/BinLe1988/media-moderation/pkg/filter"
	"github.com/BinLe1988/media-moderation/pkg/filter/model"
	"github.com/BinLe1988/media-moderation/pkg/metrics"
)

// 缓存条目的估算大小
const imageResultSize = 1024

// Transcoder 视频抽帧与音轨提取
type Transcoder interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
	ExtractFrames(ctx context.Context, videoPath string, timestamps []int, outputDir string) ([]string, error)
	ExtractAudio(ctx context.Context, videoPath, outputPath string) error
}

// Config 审核服务依赖
type Config struct {
	Registry       *detector.Registry
	Text           *filter.TextModerator
	Image          *filter.ImageModerator
	Transcoder     Transcoder
	Transcripts    TranscriptProvider // 为空时视频只做画面审核
	Cache          *filter.CacheManager
	FramesDir      string
	MaxConcurrency int
	Logger         *zap.Logger
}

// Service 审核流水线
type Service struct {
	registry    *detector.Registry
	text        *filter.TextModerator
	image       *filter.ImageModerator
	transcoder  Transcoder
	transcripts TranscriptProvider
	cache       *filter.CacheManager
	framesDir   string
	sem         *semaphore.Weighted
	logger      *zap.Logger
}

// VideoReport 视频审核报告
type VideoReport struct {
	FramesAnalyzed      int                           `json:"framesAnalyzed"`
	FrameResults        []model.FrameResult           `json:"frameResults"`
	TextAnalysis        model.TextModerationResult    `json:"textAnalysis"`
	OverallResult       model.OverallModerationResult `json:"overallResult"`
	TranscriptAvailable bool                          `json:"transcriptAvailable"`
}

// NewService 创建审核服务
func NewService(cfg Config) *Service {
	if cfg.Image == nil {
		cfg.Image = filter.NewImageModerator(filter.DefaultObjectRules())
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.FramesDir == "" {
		cfg.FramesDir = "frames"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Service{
		registry:    cfg.Registry,
		text:        cfg.Text,
		image:       cfg.Image,
		transcoder:  cfg.Transcoder,
		transcripts: cfg.Transcripts,
		cache:       cfg.Cache,
		framesDir:   cfg.FramesDir,
		sem:         semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		logger:      cfg.Logger.Named("moderation"),
	}
}

// Ready 检测模型是否可用
func (s *Service) Ready() bool {
	return s.registry != nil && s.registry.Ready()
}

// ModerateText 审核文本
func (s *Service) ModerateText(ctx context.Context, text string) model.TextModerationResult {
	start := time.Now()
	result := s.text.ModerateText(text)

	metrics.PipelineDuration.WithLabelValues("text").Observe(time.Since(start).Seconds())
	metrics.VerdictsTotal.WithLabelValues("text", string(result.Severity)).Inc()
	return result
}

// ModerateImage 审核图片。检测器调用失败时返回降级结果而不是错误；
// 模型未就绪时返回 detector.ErrNotReady。
func (s *Service) ModerateImage(ctx context.Context, image []byte) (model.ImageModerationResult, error) {
	start := time.Now()
	result, err := s.analyzeImage(ctx, image)
	if err != nil {
		return model.ImageModerationResult{}, err
	}

	metrics.PipelineDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	metrics.VerdictsTotal.WithLabelValues("image", string(result.Severity)).Inc()
	return result, nil
}

func (s *Service) analyzeImage(ctx context.Context, image []byte) (model.ImageModerationResult, error) {
	if s.registry == nil {
		return model.ImageModerationResult{}, detector.ErrNotReady
	}
	objects, faces, err := s.registry.Detectors()
	if err != nil {
		return model.ImageModerationResult{}, err
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(model.ContentTypeImage, image); ok {
			if result, ok := cached.(model.ImageModerationResult); ok {
				return result, nil
			}
		}
	}

	// 图片与视频帧共用同一并发上限
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return model.ImageModerationResult{}, errors.Wrap(err, "waiting for detector")
	}
	detected, detectedFaces, err := s.detect(ctx, objects, faces, image)
	s.sem.Release(1)
	if err != nil {
		return s.degraded(err), nil
	}

	result := s.image.Interpret(detected, detectedFaces)
	if s.cache != nil {
		s.cache.Set(model.ContentTypeImage, image, result, imageResultSize)
	}
	return result, nil
}

func (s *Service) detect(ctx context.Context, objects detector.ObjectDetector, faces detector.FaceDetector, image []byte) ([]model.DetectedObject, []model.DetectedFace, error) {
	detected, err := objects.Detect(ctx, image)
	if err != nil {
		return nil, nil, err
	}
	detectedFaces, err := faces.EstimateFaces(ctx, image)
	if err != nil {
		return nil, nil, err
	}
	return detected, detectedFaces, nil
}

func (s *Service) degraded(err error) model.ImageModerationResult {
	s.logger.Warn("image analysis failed", zap.Error(err))
	metrics.DegradedFramesTotal.Inc()
	return model.DegradedImageResult()
}

// ModerateVideo 抽帧审核视频，并审核音轨文字稿（如有）。
// 抽帧本身失败时返回错误，不构造部分结论。
func (s *Service) ModerateVideo(ctx context.Context, videoPath, videoID string) (*VideoReport, error) {
	if !s.Ready() {
		return nil, detector.ErrNotReady
	}
	if s.transcoder == nil {
		return nil, errors.New("no transcoder configured")
	}

	start := time.Now()
	workDir := filepath.Join(s.framesDir, videoID)
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			s.logger.Warn("could not clean up frames", zap.String("dir", workDir), zap.Error(err))
		}
	}()

	duration, err := s.transcoder.Duration(ctx, videoPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read video duration")
	}

	timestamps := filter.ChooseTimestamps(duration)
	s.logger.Info("extracting frames",
		zap.String("video_id", videoID),
		zap.Float64("duration", duration),
		zap.Ints("timestamps", timestamps),
	)

	framePaths := []string{}
	if len(timestamps) > 0 {
		framePaths, err = s.transcoder.ExtractFrames(ctx, videoPath, timestamps, workDir)
		if err != nil {
			return nil, errors.Wrap(err, "failed to extract frames")
		}
	}

	frameResults, err := s.analyzeFrames(ctx, framePaths)
	if err != nil {
		return nil, err
	}

	textAnalysis, transcriptAvailable := s.moderateTranscript(ctx, videoPath, workDir)

	report := &VideoReport{
		FramesAnalyzed:      len(frameResults),
		FrameResults:        frameResults,
		TextAnalysis:        textAnalysis,
		OverallResult:       filter.Fuse(frameResults, textAnalysis),
		TranscriptAvailable: transcriptAvailable,
	}

	metrics.PipelineDuration.WithLabelValues("video").Observe(time.Since(start).Seconds())
	metrics.VerdictsTotal.WithLabelValues("video", string(report.OverallResult.Severity)).Inc()
	return report, nil
}

// analyzeFrames 并发分析各帧，单帧失败不影响其他帧，结果保持抽帧顺序
func (s *Service) analyzeFrames(ctx context.Context, framePaths []string) ([]model.FrameResult, error) {
	results := make([]model.FrameResult, len(framePaths))

	// 检测器调用由 analyzeImage 中的信号量限流
	g, gctx := errgroup.WithContext(ctx)
	for i, framePath := range framePaths {
		i, framePath := i, framePath
		g.Go(func() error {
			results[i] = s.analyzeFrame(gctx, framePath)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "frame analysis interrupted")
	}
	return results, nil
}

func (s *Service) analyzeFrame(ctx context.Context, framePath string) model.FrameResult {
	frame := model.FrameResult{Frame: filepath.Base(framePath)}

	data, err := os.ReadFile(framePath)
	if err != nil {
		s.logger.Error("error analyzing frame", zap.String("frame", framePath), zap.Error(err))
		frame.Error = err.Error()
		return frame
	}

	result, err := s.analyzeImage(ctx, data)
	if err != nil {
		s.logger.Error("error analyzing frame", zap.String("frame", framePath), zap.Error(err))
		frame.Error = err.Error()
		return frame
	}

	frame.Result = &result
	return frame
}

// moderateTranscript 未配置文字稿来源或获取失败时按空文本处理
func (s *Service) moderateTranscript(ctx context.Context, videoPath, workDir string) (model.TextModerationResult, bool) {
	if s.transcripts == nil {
		return s.text.ModerateText(""), false
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		s.logger.Warn("transcript skipped", zap.Error(err))
		return s.text.ModerateText(""), false
	}

	audioPath := filepath.Join(workDir, "audio.wav")
	if err := s.transcoder.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		s.logger.Warn("transcript skipped", zap.Error(err))
		return s.text.ModerateText(""), false
	}

	transcript, err := s.transcripts.Transcript(ctx, audioPath)
	if err != nil {
		s.logger.Warn("transcript unavailable", zap.Error(err))
		return s.text.ModerateText(""), false
	}

	return s.ModerateText(ctx, transcript), true
}
