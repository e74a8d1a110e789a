package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BinLe1988/media-moderation/database"
	"github.com/BinLe1988/media-moderation/models"
	"github.com/BinLe1988/media-moderation/pkg/filter"
)

// LexiconHandler 词表管理处理器
type LexiconHandler struct {
	db   *gorm.DB
	text *filter.TextModerator
}

// NewLexiconHandler 创建词表管理处理器，db 为空时只修改内存词表
func NewLexiconHandler(db *gorm.DB, text *filter.TextModerator) *LexiconHandler {
	return &LexiconHandler{db: db, text: text}
}

// RegisterRoutes 注册路由
func (h *LexiconHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/lexicon")
	{
		group.GET("", h.GetLexicon)
		group.POST("/banned-terms", h.AddBannedTerms)
		group.POST("/patterns", h.AddPattern)
	}
}

// GetLexicon 返回当前生效的词表
func (h *LexiconHandler) GetLexicon(c *gin.Context) {
	c.JSON(http.StatusOK, h.text.Lexicon())
}

// AddBannedTerms 更新违禁词列表
func (h *LexiconHandler) AddBannedTerms(c *gin.Context) {
	var req models.BannedTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.db != nil {
		if err := database.AddBannedTerms(h.db, req.Terms); err != nil {
			c.Error(err)
			return
		}
	}

	if err := h.text.LoadSensitiveWords(req.Terms); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Banned terms updated successfully",
		"count":   len(req.Terms),
	})
}

// AddPattern 添加正则表达式模式
func (h *LexiconHandler) AddPattern(c *gin.Context) {
	var req models.PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 先校验再落库
	if err := h.text.AddRegexPattern(req.Pattern); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.db != nil {
		if err := database.AddPattern(h.db, req.Pattern); err != nil {
			c.Error(err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pattern added successfully",
		"pattern": req.Pattern,
	})
}
