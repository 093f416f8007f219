package collector

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublishClient(t *testing.T) {
	pc, err := newPublishClient("rf.local", 9000)
	require.NoError(t, err)
	assert.Equal(t, "http://rf.local:9000/rf/capture", pc.serverURL)
}

func TestPublishTaggedCaptureJSON(t *testing.T) {
	var received taggedCapture
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rf/capture", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var tc taggedCapture
		require.NoError(t, json.Unmarshal(body, &tc))
		received = tc
		if tc.CollectorID == "" {
			http.Error(w, "Capture has no collector ID", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	pc := &publishClient{serverURL: srv.URL + "/rf/capture", httpClient: srv.Client()}
	body, err := json.Marshal(taggedCapture{CollectorID: "porch", Capture: captureData{Resolution: 1, Data: []uint32{350, 1050}}})
	require.NoError(t, err)
	status, err := pc.publishTaggedCaptureJSON(body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "porch", received.CollectorID)
	assert.Equal(t, []uint32{350, 1050}, received.Capture.Data)

	status, err = pc.publishTaggedCaptureJSON([]byte(`{"capture":{"data":[1]}}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPublishTaggedCaptureJSON_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	pc := &publishClient{serverURL: url + "/rf/capture", httpClient: http.DefaultClient}
	_, err := pc.publishTaggedCaptureJSON([]byte(`{}`))
	assert.Error(t, err)
}
