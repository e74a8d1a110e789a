package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Readiness 模型加载完成前拒绝分析请求
func Readiness(ready func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Models not loaded yet"})
			c.Abort()
			return
		}

		c.Next()
	}
}
