package detector

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BackendType 检测后端类型
type BackendType string

const (
	BackendRemote BackendType = "remote"
	BackendNone   BackendType = "none"
)

// BackendConfig 检测后端配置
type BackendConfig struct {
	Type      BackendType   `json:"type"`
	ObjectURL string        `json:"object_url,omitempty"`
	FaceURL   string        `json:"face_url,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	Retries   int           `json:"retries,omitempty"`
}

// NewLoader 根据配置创建模型加载器
func NewLoader(config BackendConfig, logger *zap.Logger) (Loader, error) {
	switch config.Type {
	case BackendRemote:
		return NewRemoteLoader(config, logger)
	case BackendNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported detector backend: %s", config.Type)
	}
}
