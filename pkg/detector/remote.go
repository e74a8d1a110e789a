package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BinLe1988/media-moderation/pkg/filter/model"
)

const (
	healthPath        = "/health"
	detectPath        = "/detect"
	estimateFacesPath = "/estimate-faces"
)

// RemoteLoader 通过 HTTP 推理服务提供 COCO-SSD 与 BlazeFace 模型。
// 加载即确认推理服务已就绪。
type RemoteLoader struct {
	config BackendConfig
	client *retryablehttp.Client
}

// NewRemoteLoader 创建远程模型加载器
func NewRemoteLoader(config BackendConfig, logger *zap.Logger) (*RemoteLoader, error) {
	if config.ObjectURL == "" {
		return nil, fmt.Errorf("object detector URL is required")
	}
	if config.FaceURL == "" {
		return nil, fmt.Errorf("face detector URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = config.Retries
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = config.Timeout
	client.Logger = leveledLogger{logger.Named("detector.http").Sugar()}

	return &RemoteLoader{config: config, client: client}, nil
}

// LoadObjectDetector 实现 Loader
func (l *RemoteLoader) LoadObjectDetector(ctx context.Context) (ObjectDetector, error) {
	baseURL := strings.TrimRight(l.config.ObjectURL, "/")
	if err := l.checkHealth(ctx, baseURL); err != nil {
		return nil, err
	}
	return &RemoteObjectDetector{baseURL: baseURL, client: l.client}, nil
}

// LoadFaceDetector 实现 Loader
func (l *RemoteLoader) LoadFaceDetector(ctx context.Context) (FaceDetector, error) {
	baseURL := strings.TrimRight(l.config.FaceURL, "/")
	if err := l.checkHealth(ctx, baseURL); err != nil {
		return nil, err
	}
	return &RemoteFaceDetector{baseURL: baseURL, client: l.client}, nil
}

// checkHealth 检查推理服务健康状态
func (l *RemoteLoader) checkHealth(ctx context.Context, baseURL string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, baseURL+healthPath, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "model server %s unreachable", baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server %s not ready: status %d", baseURL, resp.StatusCode)
	}
	return nil
}

// RemoteObjectDetector 远程目标检测
type RemoteObjectDetector struct {
	baseURL string
	client  *retryablehttp.Client
}

// Detect 实现 ObjectDetector
func (d *RemoteObjectDetector) Detect(ctx context.Context, image []byte) ([]model.DetectedObject, error) {
	var result struct {
		Objects []model.DetectedObject `json:"objects"`
	}
	if err := postImage(ctx, d.client, d.baseURL+detectPath, image, &result); err != nil {
		return nil, err
	}
	if result.Objects == nil {
		result.Objects = []model.DetectedObject{}
	}
	return result.Objects, nil
}

// RemoteFaceDetector 远程人脸检测
type RemoteFaceDetector struct {
	baseURL string
	client  *retryablehttp.Client
}

// EstimateFaces 实现 FaceDetector，不请求返回张量
func (d *RemoteFaceDetector) EstimateFaces(ctx context.Context, image []byte) ([]model.DetectedFace, error) {
	var result struct {
		Faces []model.DetectedFace `json:"faces"`
	}
	if err := postImage(ctx, d.client, d.baseURL+estimateFacesPath+"?returnTensors=false", image, &result); err != nil {
		return nil, err
	}
	if result.Faces == nil {
		result.Faces = []model.DetectedFace{}
	}
	return result.Faces, nil
}

func postImage(ctx context.Context, client *retryablehttp.Client, url string, image []byte, out interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("detection request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// leveledLogger 将 zap 适配为 retryablehttp.LeveledLogger
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}
