package media

import (
	"os"

	"go.uber.org/zap"
)

// Cleanup 删除临时文件或目录，失败只记录日志
func Cleanup(path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil && logger != nil {
		logger.Warn("could not clean up file", zap.String("path", path), zap.Error(err))
	}
}
