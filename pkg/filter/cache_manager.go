package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/BinLe1988/media-moderation/pkg/filter/model"
)

// CacheStats 缓存统计信息
type CacheStats struct {
	// 当前缓存大小
	Size int `json:"size"`

	// 内存使用量(字节)，由写入方估算
	MemoryUsage int64 `json:"memoryUsage"`

	// 命中率
	HitRate float64 `json:"hitRate"`

	// 平均访问时间(毫秒)
	AvgAccessTime float64 `json:"avgAccessTime"`

	// 淘汰或过期的条目数量
	EvictedEntries int `json:"evictedEntries"`

	// 命中次数
	Hits int `json:"hits"`

	// 未命中次数
	Misses int `json:"misses"`

	// 按内容类型统计
	TypeStats map[model.ContentType]TypeStats `json:"typeStats"`
}

// TypeStats 按内容类型的统计信息
type TypeStats struct {
	Count      int     `json:"count"`      // 条目数量
	HitRate    float64 `json:"hitRate"`    // 命中率
	AvgLatency float64 `json:"avgLatency"` // 平均延迟(毫秒)
}

// CacheEntry 缓存条目
type CacheEntry struct {
	ContentType model.ContentType
	Value       interface{}
	Size        int64
	Timestamp   time.Time
}

type typeCounter struct {
	entries int
	hits    int
	misses  int
	latency float64
}

// CacheManager 缓存管理器，按内容哈希缓存分析结果
type CacheManager struct {
	data *expirable.LRU[string, CacheEntry]
	ttl  time.Duration

	callbackMu       sync.RWMutex
	evictionCallback func(string, CacheEntry)

	// setMu 串行化 Set，保证 replacingKey 只对应一次覆盖
	setMu sync.Mutex

	// 统计信息
	statsMu     sync.Mutex
	replacing   string
	hits        int
	misses      int
	evicted     int
	totalTime   float64
	memoryUsage int64
	types       map[model.ContentType]*typeCounter
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(maxEntries int, ttl time.Duration) *CacheManager {
	cm := &CacheManager{
		ttl:   ttl,
		types: make(map[model.ContentType]*typeCounter),
	}
	cm.data = expirable.NewLRU[string, CacheEntry](maxEntries, cm.onEvict, ttl)
	return cm
}

// onEvict 条目被淘汰、过期或被 Set 覆盖时调用，运行在 LRU 的锁内
func (cm *CacheManager) onEvict(key string, entry CacheEntry) {
	cm.statsMu.Lock()
	overwritten := key == cm.replacing
	if !overwritten {
		cm.evicted++
	}
	cm.memoryUsage -= entry.Size
	cm.counter(entry.ContentType).entries--
	cm.statsMu.Unlock()

	if overwritten {
		return
	}

	cm.callbackMu.RLock()
	callback := cm.evictionCallback
	cm.callbackMu.RUnlock()

	if callback != nil {
		callback(key, entry)
	}
}

// SetEvictionCallback 设置条目淘汰回调
func (cm *CacheManager) SetEvictionCallback(callback func(string, CacheEntry)) {
	cm.callbackMu.Lock()
	defer cm.callbackMu.Unlock()
	cm.evictionCallback = callback
}

// counter 调用方需持有 statsMu
func (cm *CacheManager) counter(contentType model.ContentType) *typeCounter {
	c, ok := cm.types[contentType]
	if !ok {
		c = &typeCounter{}
		cm.types[contentType] = c
	}
	return c
}

// GetStats 获取缓存统计信息
func (cm *CacheManager) GetStats() CacheStats {
	size := cm.data.Len()

	cm.statsMu.Lock()
	defer cm.statsMu.Unlock()

	stats := CacheStats{
		Size:           size,
		MemoryUsage:    cm.memoryUsage,
		EvictedEntries: cm.evicted,
		Hits:           cm.hits,
		Misses:         cm.misses,
		TypeStats:      make(map[model.ContentType]TypeStats),
	}

	// 计算命中率和平均访问时间
	totalAccesses := cm.hits + cm.misses
	if totalAccesses > 0 {
		stats.HitRate = float64(cm.hits) / float64(totalAccesses)
		stats.AvgAccessTime = cm.totalTime / float64(totalAccesses)
	}

	// 计算各类型的统计信息
	for contentType, c := range cm.types {
		typeStats := TypeStats{Count: c.entries}
		if typeAccesses := c.hits + c.misses; typeAccesses > 0 {
			typeStats.HitRate = float64(c.hits) / float64(typeAccesses)
			typeStats.AvgLatency = c.latency / float64(typeAccesses)
		}
		stats.TypeStats[contentType] = typeStats
	}

	return stats
}

// generateKey 使用 SHA-256 生成缓存键
func (cm *CacheManager) generateKey(contentType model.ContentType, content []byte) string {
	hasher := sha256.New()
	hasher.Write([]byte{byte(contentType)})
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}

// Get 获取缓存条目
func (cm *CacheManager) Get(contentType model.ContentType, content []byte) (interface{}, bool) {
	start := time.Now()
	entry, ok := cm.data.Get(cm.generateKey(contentType, content))
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	cm.statsMu.Lock()
	defer cm.statsMu.Unlock()

	c := cm.counter(contentType)
	if ok {
		cm.hits++
		c.hits++
	} else {
		cm.misses++
		c.misses++
	}
	cm.totalTime += elapsed
	c.latency += elapsed

	if !ok {
		return nil, false
	}
	return entry.Value, true
}

// Set 设置缓存条目。同键旧值（包括已过期尚未清理的）先移除再写入，覆盖不计入淘汰数
func (cm *CacheManager) Set(contentType model.ContentType, content []byte, value interface{}, size int64) {
	key := cm.generateKey(contentType, content)

	cm.setMu.Lock()
	defer cm.setMu.Unlock()

	cm.statsMu.Lock()
	cm.replacing = key
	cm.statsMu.Unlock()

	cm.data.Remove(key)

	cm.statsMu.Lock()
	cm.replacing = ""
	cm.memoryUsage += size
	cm.counter(contentType).entries++
	cm.statsMu.Unlock()

	cm.data.Add(key, CacheEntry{
		ContentType: contentType,
		Value:       value,
		Size:        size,
		Timestamp:   time.Now(),
	})
}

// Clear 清空缓存并重置统计
func (cm *CacheManager) Clear() {
	cm.data.Purge()

	cm.statsMu.Lock()
	defer cm.statsMu.Unlock()
	cm.hits = 0
	cm.misses = 0
	cm.evicted = 0
	cm.totalTime = 0
	cm.memoryUsage = 0
	cm.types = make(map[model.ContentType]*typeCounter)
}
