package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var VerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_verdicts_total",
	Help: "The total number of moderation verdicts by modality and severity",
}, []string{"modality", "severity"})

var DegradedFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_degraded_frames_total",
	Help: "Frames or images whose detector call failed and were replaced by a degraded result",
})

var PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "moderation_pipeline_duration_seconds",
	Help:    "Time spent in the moderation pipeline",
	Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
}, []string{"modality"})

var CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "moderation_cache_entries",
	Help: "Number of cached image analysis results",
})

var CacheHitRate = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "moderation_cache_hit_rate",
	Help: "Hit rate of the image analysis cache",
})

var ModelsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "moderation_models_loaded",
	Help: "1 when both detector models are loaded",
})
