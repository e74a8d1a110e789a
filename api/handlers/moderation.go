package handlers

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BinLe1988/media-moderation/models"
	"github.com/BinLe1988/media-moderation/pkg/media"
	"github.com/BinLe1988/media-moderation/pkg/moderation"
)

var allowedVideoExt = regexp.MustCompile(`^\.(mp4|avi|mov|mkv|webm)$`)

// ModerationHandler 审核接口处理器
type ModerationHandler struct {
	service          *moderation.Service
	uploadDir        string
	maxUploadBytes   int64
	maxTextBytes     int64
	textPreviewChars int
	logger           *zap.Logger
}

// ModerationHandlerConfig 处理器配置
type ModerationHandlerConfig struct {
	UploadDir        string
	MaxUploadBytes   int64
	MaxTextBytes     int64
	TextPreviewChars int
}

// NewModerationHandler 创建审核接口处理器
func NewModerationHandler(service *moderation.Service, cfg ModerationHandlerConfig, logger *zap.Logger) *ModerationHandler {
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 100 << 20
	}
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = 1 << 20
	}
	if cfg.TextPreviewChars <= 0 {
		cfg.TextPreviewChars = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationHandler{
		service:          service,
		uploadDir:        cfg.UploadDir,
		maxUploadBytes:   cfg.MaxUploadBytes,
		maxTextBytes:     cfg.MaxTextBytes,
		textPreviewChars: cfg.TextPreviewChars,
		logger:           logger.Named("api"),
	}
}

// RegisterRoutes 注册路由
func (h *ModerationHandler) RegisterRoutes(router *gin.Engine, ready gin.HandlerFunc) {
	group := router.Group("/api/moderate")
	{
		group.POST("/text", h.ModerateText)
		group.POST("/image", ready, h.ModerateImage)
		group.POST("/video", ready, h.ModerateVideo)
	}
}

// ModerateText 审核文本
func (h *ModerationHandler) ModerateText(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxTextBytes)

	var req models.TextModerationRequest
	err := c.ShouldBindJSON(&req)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Text too large"})
		return
	}
	if err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No text provided"})
		return
	}

	result := h.service.ModerateText(c.Request.Context(), req.Text)

	c.JSON(http.StatusOK, models.TextModerationResponse{
		Success:    true,
		Text:       preview(req.Text, h.textPreviewChars),
		Moderation: result,
	})
}

// ModerateImage 审核图片，分析后删除上传文件
func (h *ModerationHandler) ModerateImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	if file.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	path, err := h.saveUpload(c, file, uuid.NewString()+filepath.Ext(file.Filename))
	if err != nil {
		c.Error(err)
		return
	}
	defer media.Cleanup(path, h.logger)

	data, err := os.ReadFile(path)
	if err != nil {
		c.Error(errors.Wrap(err, "failed to read upload"))
		return
	}

	info, err := media.ProcessImage(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image files are allowed"})
		return
	}

	result, err := h.service.ModerateImage(c.Request.Context(), data)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.ImageModerationResponse{
		Success:    true,
		Filename:   file.Filename,
		Moderation: result,
		Image:      info,
	})
}

// ModerateVideo 审核视频
func (h *ModerationHandler) ModerateVideo(c *gin.Context) {
	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No video file provided"})
		return
	}
	if file.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	mimeType := file.Header.Get("Content-Type")
	if !allowedVideoExt.MatchString(ext) || !strings.HasPrefix(mimeType, "video/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only video files are allowed"})
		return
	}

	videoID := uuid.NewString()
	path, err := h.saveUpload(c, file, videoID+ext)
	if err != nil {
		c.Error(err)
		return
	}
	defer media.Cleanup(path, h.logger)

	h.logger.Info("processing video", zap.String("video_id", videoID), zap.String("filename", file.Filename))

	report, err := h.service.ModerateVideo(c.Request.Context(), path, videoID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.VideoModerationResponse{
		Success:     true,
		Filename:    file.Filename,
		VideoID:     videoID,
		VideoReport: report,
		Timestamp:   time.Now().UTC(),
	})
}

// saveUpload 保存上传文件到上传目录
func (h *ModerationHandler) saveUpload(c *gin.Context, file *multipart.FileHeader, name string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create upload directory")
	}

	path := filepath.Join(h.uploadDir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", errors.Wrap(err, "failed to save upload")
	}
	return path, nil
}

// preview 截取前 n 个字符
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
