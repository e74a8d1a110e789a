package filter

import (
	"math"
)

const (
	secondsPerFrame = 2
	maxFrames       = 10
)

// ChooseTimestamps 计算视频抽帧时间点（秒）。
// 每 2 秒至多一帧，最多 10 帧；不足 2 秒返回空切片。
// 时间点可能重复，由抽帧方处理。
func ChooseTimestamps(durationSeconds float64) []int {
	timestamps := []int{}
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) {
		return timestamps
	}

	frameCount := int(math.Min(math.Floor(durationSeconds/secondsPerFrame), maxFrames))
	if frameCount <= 0 {
		return timestamps
	}

	step := durationSeconds / float64(frameCount)
	for i := 1; i <= frameCount; i++ {
		timestamps = append(timestamps, int(math.Floor(step*float64(i))))
	}
	return timestamps
}
