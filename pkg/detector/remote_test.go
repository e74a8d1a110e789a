package detector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinLe1988/media-moderation/pkg/filter/model"
)

func newModelServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/detect", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		if string(body) == "bad" {
			http.Error(w, "cannot decode image", http.StatusUnprocessableEntity)
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"objects": []map[string]interface{}{
				{"class": "knife", "score": 0.91, "bbox": []float64{1, 2, 3, 4}},
			},
		})
	})
	mux.HandleFunc("/estimate-faces", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("returnTensors"))
		w.Write([]byte(`{"faces":[{"probability":0.97,"landmarks":[[1,2],[3,4]]},{"landmarks":[]}]}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestRemoteLoader(t *testing.T, url string) *RemoteLoader {
	t.Helper()
	loader, err := NewRemoteLoader(BackendConfig{
		Type:      BackendRemote,
		ObjectURL: url + "/",
		FaceURL:   url,
		Timeout:   time.Second,
	}, nil)
	require.NoError(t, err)
	return loader
}

func TestRemoteDetectors(t *testing.T) {
	server := newModelServer(t, true)
	registry := NewRegistry(newTestRemoteLoader(t, server.URL), nil)

	require.NoError(t, registry.Load(context.Background()))
	objects, faces, err := registry.Detectors()
	require.NoError(t, err)

	detected, err := objects.Detect(context.Background(), []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, []model.DetectedObject{
		{Class: "knife", Score: 0.91, BBox: model.BoundingBox{1, 2, 3, 4}},
	}, detected)

	found, err := faces.EstimateFaces(context.Background(), []byte("png"))
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.NotNil(t, found[0].Probability)
	assert.InDelta(t, 0.97, *found[0].Probability, 1e-9)
	assert.Equal(t, []model.Landmark{{1, 2}, {3, 4}}, found[0].Landmarks)
	assert.Nil(t, found[1].Probability)
}

func TestRemoteDetectFailure(t *testing.T) {
	server := newModelServer(t, true)
	loader := newTestRemoteLoader(t, server.URL)

	objects, err := loader.LoadObjectDetector(context.Background())
	require.NoError(t, err)

	_, err = objects.Detect(context.Background(), []byte("bad"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestRemoteLoaderUnhealthy(t *testing.T) {
	server := newModelServer(t, false)
	registry := NewRegistry(newTestRemoteLoader(t, server.URL), nil)

	err := registry.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
	assert.False(t, registry.Ready())
}

func TestRemoteLoaderUnreachable(t *testing.T) {
	server := newModelServer(t, true)
	url := server.URL
	server.Close()

	loader := newTestRemoteLoader(t, url)
	_, err := loader.LoadObjectDetector(context.Background())
	assert.Error(t, err)
}
