package filter

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BinLe1988/media-moderation/pkg/metrics"
)

// MonitorConfig 监控配置
type MonitorConfig struct {
	// 监控间隔
	Interval time.Duration

	// 阈值告警配置
	Thresholds map[string]float64

	// 告警回调
	AlertCallback func(alert string)
}

// DefaultThresholds 默认阈值配置
var DefaultThresholds = map[string]float64{
	"hit_rate_min":        0.1,   // 最低命中率
	"memory_usage_max":    100e6, // 最大内存使用(字节)
	"avg_access_time_max": 100,   // 最大平均访问时间(毫秒)
}

// CacheMonitor 缓存监控服务
type CacheMonitor struct {
	cache    *CacheManager
	config   MonitorConfig
	stopChan chan struct{}
	logger   *zap.Logger
}

// NewCacheMonitor 创建缓存监控服务
func NewCacheMonitor(cache *CacheManager, config MonitorConfig, logger *zap.Logger) *CacheMonitor {
	if config.Interval == 0 {
		config.Interval = time.Minute
	}

	// 设置默认阈值
	if config.Thresholds == nil {
		config.Thresholds = DefaultThresholds
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	monitor := &CacheMonitor{
		cache:    cache,
		config:   config,
		stopChan: make(chan struct{}),
		logger:   logger.Named("cache"),
	}

	// 设置条目淘汰回调
	cache.SetEvictionCallback(monitor.handleEviction)

	return monitor
}

// Start 启动监控服务
func (m *CacheMonitor) Start() {
	go m.monitorLoop()
}

// Stop 停止监控服务
func (m *CacheMonitor) Stop() {
	close(m.stopChan)
}

// monitorLoop 监控循环
func (m *CacheMonitor) monitorLoop() {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collectStats()
		case <-m.stopChan:
			return
		}
	}
}

// collectStats 收集统计信息
func (m *CacheMonitor) collectStats() {
	stats := m.cache.GetStats()

	metrics.CacheEntries.Set(float64(stats.Size))
	metrics.CacheHitRate.Set(stats.HitRate)

	m.logger.Info("cache stats",
		zap.Int("size", stats.Size),
		zap.Int64("memory_usage", stats.MemoryUsage),
		zap.Float64("hit_rate", stats.HitRate),
		zap.Float64("avg_access_ms", stats.AvgAccessTime),
		zap.Int("hits", stats.Hits),
		zap.Int("misses", stats.Misses),
		zap.Int("evicted", stats.EvictedEntries),
	)

	// 检查关键指标
	m.checkMetrics(stats)
}

// checkMetrics 检查关键指标
func (m *CacheMonitor) checkMetrics(stats CacheStats) {
	// 检查内存使用
	if limit, ok := m.config.Thresholds["memory_usage_max"]; ok && float64(stats.MemoryUsage) > limit {
		m.alert(fmt.Sprintf("High memory usage: %.2f MB (threshold: %.2f MB)",
			float64(stats.MemoryUsage)/(1024*1024), limit/(1024*1024)))
	}

	// 检查命中率，无访问时跳过
	if limit, ok := m.config.Thresholds["hit_rate_min"]; ok && stats.Hits+stats.Misses > 0 && stats.HitRate < limit {
		m.alert(fmt.Sprintf("Low hit rate: %.2f%% (threshold: %.2f%%)",
			stats.HitRate*100, limit*100))
	}

	// 检查响应时间
	if limit, ok := m.config.Thresholds["avg_access_time_max"]; ok && stats.AvgAccessTime > limit {
		m.alert(fmt.Sprintf("High average access time: %.2f ms (threshold: %.2f ms)",
			stats.AvgAccessTime, limit))
	}
}

// handleEviction 处理缓存条目淘汰
func (m *CacheMonitor) handleEviction(key string, entry CacheEntry) {
	m.logger.Debug("cache entry evicted",
		zap.String("key", key),
		zap.String("content_type", entry.ContentType.String()),
		zap.Duration("age", time.Since(entry.Timestamp)),
		zap.Int64("size", entry.Size),
	)
}

// alert 发送告警
func (m *CacheMonitor) alert(message string) {
	m.logger.Warn("cache alert", zap.String("alert", message))

	if m.config.AlertCallback != nil {
		m.config.AlertCallback(message)
	}
}
