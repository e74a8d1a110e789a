package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FrameFileName 抽帧文件命名，下标从 1 开始
func FrameFileName(index int) string {
	return fmt.Sprintf("frame-%d.png", index)
}

// FFmpeg 基于 ffmpeg/ffprobe 可执行文件的转码器
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	FrameSize   string
	logger      *zap.Logger
}

// NewFFmpeg 创建转码器
func NewFFmpeg(ffmpegPath, ffprobePath, frameSize string, logger *zap.Logger) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if frameSize == "" {
		frameSize = "320x240"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpeg{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		FrameSize:   frameSize,
		logger:      logger.Named("ffmpeg"),
	}
}

// Duration 获取视频时长（秒）
func (f *FFmpeg) Duration(ctx context.Context, videoPath string) (float64, error) {
	out, err := f.run(ctx, f.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	)
	if err != nil {
		return 0, errors.Wrap(err, "ffprobe failed")
	}
	return ParseDuration(out)
}

// ParseDuration 解析 ffprobe 的 JSON 输出
func ParseDuration(out []byte) (float64, error) {
	var info struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return 0, errors.Wrap(err, "failed to parse ffprobe output")
	}
	if info.Format.Duration == "" {
		return 0, errors.New("ffprobe output has no duration")
	}

	duration, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", info.Format.Duration)
	}
	return duration, nil
}

// ExtractFrames 在给定时间点各截取一帧到 outputDir，按时间点顺序返回文件路径
func (f *FFmpeg) ExtractFrames(ctx context.Context, videoPath string, timestamps []int, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create frames directory")
	}

	paths := make([]string, 0, len(timestamps))
	for i, ts := range timestamps {
		framePath := filepath.Join(outputDir, FrameFileName(i+1))
		_, err := f.run(ctx, f.FFmpegPath,
			"-y",
			"-loglevel", "error",
			"-ss", strconv.Itoa(ts),
			"-i", videoPath,
			"-frames:v", "1",
			"-s", f.FrameSize,
			framePath,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to extract frame at %ds", ts)
		}
		paths = append(paths, framePath)
	}

	f.logger.Debug("frames extracted", zap.String("video", videoPath), zap.Int("count", len(paths)))
	return paths, nil
}

// ExtractAudio 提取 16 位 PCM 音轨
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	_, err := f.run(ctx, f.FFmpegPath,
		"-y",
		"-loglevel", "error",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		outputPath,
	)
	if err != nil {
		return errors.Wrap(err, "failed to extract audio")
	}
	return nil
}

func (f *FFmpeg) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, errors.Wrap(err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
