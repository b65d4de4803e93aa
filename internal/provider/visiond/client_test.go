package visiond

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Detect(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse interface{}
		serverStatus   int
		wantErr        bool
		wantErrContain string
		validateResp   func(*testing.T, *detectResponse)
	}{
		{
			name: "successful response with single face",
			serverResponse: detectResponse{
				Faces: []detectedFace{
					{
						Box: box{X: 10, Y: 20, Width: 100, Height: 120},
						Keypoints: keypoints{
							LeftTragion:  point{X: 12, Y: 70},
							RightTragion: point{X: 108, Y: 70},
							LeftEye:      point{X: 40, Y: 55},
							RightEye:     point{X: 80, Y: 55},
							MouthCenter:  point{X: 60, Y: 110},
							NoseTip:      point{X: 60, Y: 80},
						},
					},
				},
			},
			serverStatus: http.StatusOK,
			wantErr:      false,
			validateResp: func(t *testing.T, resp *detectResponse) {
				require.NotNil(t, resp)
				require.Len(t, resp.Faces, 1)
				assert.Equal(t, 100.0, resp.Faces[0].Box.Width)
				assert.Equal(t, 60.0, resp.Faces[0].Keypoints.NoseTip.X)
			},
		},
		{
			name:           "empty response",
			serverResponse: detectResponse{Faces: []detectedFace{}},
			serverStatus:   http.StatusOK,
			wantErr:        false,
			validateResp: func(t *testing.T, resp *detectResponse) {
				require.NotNil(t, resp)
				assert.Len(t, resp.Faces, 0)
			},
		},
		{
			name:           "server error 500",
			serverResponse: map[string]string{"error": "model crashed"},
			serverStatus:   http.StatusInternalServerError,
			wantErr:        true,
			wantErrContain: "visiond service unavailable",
		},
		{
			name:           "bad request 400",
			serverResponse: map[string]string{"error": "invalid image"},
			serverStatus:   http.StatusBadRequest,
			wantErr:        true,
			wantErrContain: "status 400",
		},
		{
			name:           "invalid json response",
			serverResponse: "not a valid json",
			serverStatus:   http.StatusOK,
			wantErr:        true,
			wantErrContain: "invalid response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/detect", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req detectRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.NotEmpty(t, req.Img)

				w.WriteHeader(tt.serverStatus)
				if str, ok := tt.serverResponse.(string); ok {
					_, _ = w.Write([]byte(str))
				} else {
					_ = json.NewEncoder(w).Encode(tt.serverResponse)
				}
			}))
			defer server.Close()

			config := DefaultConfig()
			config.BaseURL = server.URL
			config.RetryCount = 0

			client := NewClient(config)
			resp, err := client.Detect(context.Background(), "dGVzdA==")

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantErrContain != "" {
					assert.Contains(t, err.Error(), tt.wantErrContain)
				}
				return
			}

			require.NoError(t, err)
			if tt.validateResp != nil {
				tt.validateResp(t, resp)
			}
		})
	}
}

func TestClient_Represent_SendsBoxes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/represent", r.URL.Path)

		var req representRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Boxes, 2)
		assert.Equal(t, 10.0, req.Boxes[0].X)

		_ = json.NewEncoder(w).Encode(representResponse{
			Embeddings: [][]float64{make([]float64, 128), make([]float64, 128)},
		})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	config.RetryCount = 0

	client := NewClient(config)
	resp, err := client.Represent(context.Background(), "dGVzdA==", []box{
		{X: 10, Y: 20, Width: 100, Height: 120},
		{X: 200, Y: 20, Width: 90, Height: 110},
	})

	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 2)
}

func TestClient_Objects_SendsOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/objects", r.URL.Path)

		var req objectsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.3, req.ScoreThreshold)
		assert.Equal(t, 3, req.MaxResults)
		assert.Equal(t, 1, req.NumThreads)
		assert.Equal(t, []string{"person"}, req.Labels)

		_ = json.NewEncoder(w).Encode(objectsResponse{
			Detections: []objectDetection{
				{Label: "person", Score: 0.87, Box: box{X: 5, Y: 5, Width: 50, Height: 100}},
			},
		})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	config.RetryCount = 0

	client := NewClient(config)
	resp, err := client.Objects(context.Background(), objectsRequest{
		Img:            "dGVzdA==",
		ScoreThreshold: 0.3,
		MaxResults:     3,
		NumThreads:     1,
		Labels:         []string{"person"},
	})

	require.NoError(t, err)
	require.Len(t, resp.Detections, 1)
	assert.Equal(t, "person", resp.Detections[0].Label)
}

func TestClient_RetryOnFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "service unavailable"})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(detectResponse{Faces: []detectedFace{}})
	}))
	defer server.Close()

	config := Config{
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		RetryCount: 2,
	}

	client := NewClient(config)
	resp, err := client.Detect(context.Background(), "dGVzdA==")

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 2, attempts, "expected exactly 2 attempts")
}

func TestClient_RetryExhaustion(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "always failing"})
	}))
	defer server.Close()

	config := Config{
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		RetryCount: 2,
	}

	client := NewClient(config)
	_, err := client.Detect(context.Background(), "dGVzdA==")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVisiondUnavailable)
	assert.Equal(t, 3, attempts, "expected initial attempt + 2 retries")
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "frame rejected"})
	}))
	defer server.Close()

	config := Config{
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		RetryCount: 3,
	}

	client := NewClient(config)
	_, err := client.Detect(context.Background(), "dGVzdA==")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Equal(t, 1, attempts, "4xx must not be retried")
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(detectResponse{})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL

	client := NewClient(config)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Detect(ctx, "dGVzdA==")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_ExponentialBackoff(t *testing.T) {
	attempts := 0
	timestamps := make([]time.Time, 0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		timestamps = append(timestamps, time.Now())
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(detectResponse{})
	}))
	defer server.Close()

	config := Config{
		BaseURL:    server.URL,
		Timeout:    10 * time.Second,
		RetryCount: 3,
	}

	client := NewClient(config)
	_, err := client.Detect(context.Background(), "dGVzdA==")

	require.NoError(t, err)
	require.Len(t, timestamps, 3)

	backoff1 := timestamps[1].Sub(timestamps[0])
	backoff2 := timestamps[2].Sub(timestamps[1])

	assert.True(t, backoff1 >= 1*time.Second, "first backoff should be >= 1s")
	assert.True(t, backoff2 >= 2*time.Second, "second backoff should be >= 2s")
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "http://localhost:5005", config.BaseURL)
	assert.Equal(t, 10*time.Second, config.Timeout)
	assert.Equal(t, 1, config.RetryCount)
}
