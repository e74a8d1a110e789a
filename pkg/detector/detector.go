package detector

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BinLe1988/media-moderation/pkg/filter/model"
)

var (
	// ErrNotReady 模型尚未加载完成
	ErrNotReady = errors.New("models not loaded")
	// ErrNoBackend 未配置检测后端
	ErrNoBackend = errors.New("no detector backend configured")
)

// ObjectDetector 目标检测器，实现需自行保证并发安全或由调用方限制并发
type ObjectDetector interface {
	Detect(ctx context.Context, image []byte) ([]model.DetectedObject, error)
}

// FaceDetector 人脸检测器
type FaceDetector interface {
	EstimateFaces(ctx context.Context, image []byte) ([]model.DetectedFace, error)
}

// ObjectDetectorFunc 函数适配器
type ObjectDetectorFunc func(ctx context.Context, image []byte) ([]model.DetectedObject, error)

func (f ObjectDetectorFunc) Detect(ctx context.Context, image []byte) ([]model.DetectedObject, error) {
	return f(ctx, image)
}

// FaceDetectorFunc 函数适配器
type FaceDetectorFunc func(ctx context.Context, image []byte) ([]model.DetectedFace, error)

func (f FaceDetectorFunc) EstimateFaces(ctx context.Context, image []byte) ([]model.DetectedFace, error) {
	return f(ctx, image)
}

// Loader 加载检测器，仅在 Registry.Load 中调用一次
type Loader interface {
	LoadObjectDetector(ctx context.Context) (ObjectDetector, error)
	LoadFaceDetector(ctx context.Context) (FaceDetector, error)
}

// Registry 进程级检测器容器。
// 加载一次，之后只读；加载完成前的请求返回 ErrNotReady。
type Registry struct {
	loader Loader
	logger *zap.Logger

	once    sync.Once
	loadErr error
	ready   atomic.Bool
	done    chan struct{}

	objects ObjectDetector
	faces   FaceDetector
}

// NewRegistry 创建检测器容器，需调用 Load 后才能使用
func NewRegistry(loader Loader, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		loader: loader,
		logger: logger.Named("detector"),
		done:   make(chan struct{}),
	}
}

// NewStaticRegistry 使用已构造好的检测器创建容器，直接处于就绪状态
func NewStaticRegistry(objects ObjectDetector, faces FaceDetector) *Registry {
	r := NewRegistry(nil, nil)
	r.once.Do(func() {
		r.objects = objects
		r.faces = faces
		r.ready.Store(true)
		close(r.done)
	})
	return r
}

// Load 加载两个模型，多次调用只执行一次并返回同一结果
func (r *Registry) Load(ctx context.Context) error {
	r.once.Do(func() {
		defer close(r.done)

		if r.loader == nil {
			r.loadErr = ErrNoBackend
			return
		}

		r.logger.Info("loading object detection model")
		objects, err := r.loader.LoadObjectDetector(ctx)
		if err != nil {
			r.loadErr = errors.Wrap(err, "failed to load object detector")
			r.logger.Error("failed to load models", zap.Error(r.loadErr))
			return
		}
		r.logger.Info("object detection model loaded")

		r.logger.Info("loading face detection model")
		faces, err := r.loader.LoadFaceDetector(ctx)
		if err != nil {
			r.loadErr = errors.Wrap(err, "failed to load face detector")
			r.logger.Error("failed to load models", zap.Error(r.loadErr))
			return
		}
		r.logger.Info("face detection model loaded")

		r.objects = objects
		r.faces = faces
		r.ready.Store(true)
	})
	return r.loadErr
}

// Wait 阻塞直到加载结束或 ctx 取消
func (r *Registry) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready 两个模型是否都已加载
func (r *Registry) Ready() bool {
	return r.ready.Load()
}

// Detectors 返回已加载的检测器
func (r *Registry) Detectors() (ObjectDetector, FaceDetector, error) {
	if !r.ready.Load() {
		return nil, nil, ErrNotReady
	}
	return r.objects, r.faces, nil
}
