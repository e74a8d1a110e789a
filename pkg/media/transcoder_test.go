package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected float64
		wantErr  bool
	}{
		{"valid", `{"format":{"duration":"12.345000"}}`, 12.345, false},
		{"integer", `{"format":{"duration":"4"}}`, 4, false},
		{"missing duration", `{"format":{}}`, 0, true},
		{"not a number", `{"format":{"duration":"N/A"}}`, 0, true},
		{"not json", `Invalid data found when processing input`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			duration, err := ParseDuration([]byte(tt.output))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, duration, 1e-9)
		})
	}
}

func TestFrameFileName(t *testing.T) {
	assert.Equal(t, "frame-1.png", FrameFileName(1))
	assert.Equal(t, "frame-10.png", FrameFileName(10))
}

func TestNewFFmpegDefaults(t *testing.T) {
	f := NewFFmpeg("", "", "", nil)

	assert.Equal(t, "ffmpeg", f.FFmpegPath)
	assert.Equal(t, "ffprobe", f.FFprobePath)
	assert.Equal(t, "320x240", f.FrameSize)
}

func TestFFmpegMissingBinary(t *testing.T) {
	dir := t.TempDir()
	f := NewFFmpeg(filepath.Join(dir, "no-ffmpeg"), filepath.Join(dir, "no-ffprobe"), "", nil)

	_, err := f.Duration(context.Background(), "video.mp4")
	assert.Error(t, err)

	_, err = f.ExtractFrames(context.Background(), "video.mp4", []int{2, 4}, filepath.Join(dir, "frames"))
	assert.Error(t, err)
	assert.DirExists(t, filepath.Join(dir, "frames"))

	assert.Error(t, f.ExtractAudio(context.Background(), "video.mp4", filepath.Join(dir, "audio.wav")))
}

func TestExtractFramesNoTimestamps(t *testing.T) {
	dir := t.TempDir()
	f := NewFFmpeg(filepath.Join(dir, "no-ffmpeg"), "", "", nil)

	paths, err := f.ExtractFrames(context.Background(), "video.mp4", nil, filepath.Join(dir, "frames"))
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "work")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "frame-1.png"), []byte("x"), 0o644))

	Cleanup(nested, nil)
	assert.NoDirExists(t, nested)

	assert.NotPanics(t, func() {
		Cleanup("", nil)
		Cleanup(filepath.Join(dir, "missing"), nil)
	})
}
