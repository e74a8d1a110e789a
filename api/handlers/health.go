package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BinLe1988/media-moderation/models"
)

// Health 健康检查，报告检测模型是否已加载
func Health(ready func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       "OK",
			Timestamp:    time.Now().UTC(),
			ModelsLoaded: ready(),
		})
	}
}

// NotFound 未匹配路由
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
}
