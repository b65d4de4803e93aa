package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/camera"
	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/enroll"
	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
	"github.com/saturnino-fabrica-de-software/vigia/internal/journal"
	"github.com/saturnino-fabrica-de-software/vigia/internal/metrics"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/sensor"
	"github.com/saturnino-fabrica-de-software/vigia/internal/store"
	"github.com/saturnino-fabrica-de-software/vigia/internal/ws"
)

const testAPIKey = "vg_test_integration_key"

type detectorFunc func(ctx context.Context, frame domain.Frame) ([]domain.FaceLandmarks, error)

func (f detectorFunc) DetectFaces(ctx context.Context, frame domain.Frame) ([]domain.FaceLandmarks, error) {
	return f(ctx, frame)
}

type encoderFunc func(ctx context.Context, frame domain.Frame, boxes []domain.BoundingBox) ([]domain.Embedding, error)

func (f encoderFunc) EncodeFaces(ctx context.Context, frame domain.Frame, boxes []domain.BoundingBox) ([]domain.Embedding, error) {
	return f(ctx, frame, boxes)
}

type objectsFunc func(ctx context.Context, frame domain.Frame) ([]provider.Detection, error)

func (f objectsFunc) DetectObjects(ctx context.Context, frame domain.Frame) ([]provider.Detection, error) {
	return f(ctx, frame)
}

func frontalLandmarks() domain.FaceLandmarks {
	return domain.FaceLandmarks{
		Box:          domain.BoundingBox{X: 90, Y: 100, Width: 140, Height: 120},
		LeftTragion:  domain.Point{X: 100, Y: 150},
		RightTragion: domain.Point{X: 220, Y: 150},
		LeftEye:      domain.Point{X: 130, Y: 130},
		RightEye:     domain.Point{X: 190, Y: 130},
		Mouth:        domain.Point{X: 160, Y: 190},
		NoseTip:      domain.Point{X: 160, Y: 160},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestRouter monta o stack completo do daemon sobre uma câmera
// fake: controller real, journal, métricas, hub e o fan-out de eventos
// que o main faz.
func setupTestRouter(t *testing.T) *Router {
	t.Helper()

	logger := quietLogger()

	faceStore, err := store.Load(filepath.Join(t.TempDir(), "encodings.csv"))
	require.NoError(t, err)

	j, err := journal.New(32, "", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	registry := metrics.NewRegistry()

	hub := ws.NewHub(logger)
	hubCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(hubCtx)

	fan := event.Combine(registry.Observe, func(ev event.Event) {
		env := event.NewEnvelope(ev)
		j.Record(env)
		hub.Broadcast(env)
	})

	emb := make(domain.Embedding, domain.EmbeddingDim)
	emb[0] = 0.2

	controller := sensor.NewController(sensor.Deps{
		Camera: camera.NewResource(camera.NewMockDevice(640, 480), logger),
		Detector: detectorFunc(func(context.Context, domain.Frame) ([]domain.FaceLandmarks, error) {
			return []domain.FaceLandmarks{frontalLandmarks()}, nil
		}),
		Encoder: encoderFunc(func(context.Context, domain.Frame, []domain.BoundingBox) ([]domain.Embedding, error) {
			return []domain.Embedding{emb}, nil
		}),
		Objects: objectsFunc(func(context.Context, domain.Frame) ([]provider.Detection, error) {
			return nil, nil
		}),
		Store:  faceStore,
		Events: fan,
		Logger: logger,
		Enroll: enroll.Config{Frames: 2},
	})
	t.Cleanup(func() { _ = controller.StopAll() })

	router := NewRouter(logger, &Dependencies{
		Sensor:  controller,
		Journal: j,
		Metrics: registry,
		Hub:     hub,
		APIKey:  testAPIKey,
	})
	router.Setup()
	t.Cleanup(func() { _ = router.App().Shutdown() })

	return router
}

// doRequest dispara uma request autenticada contra o app fiber.
func doRequest(t *testing.T, router *Router, method, target, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	resp, err := router.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeErrorCode(t *testing.T, resp *http.Response) string {
	t.Helper()

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Code
}

func decodeStatus(t *testing.T, resp *http.Response) sensor.Status {
	t.Helper()

	var status sensor.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	return status
}

func TestRouter_HealthWithoutAuth(t *testing.T) {
	router := setupTestRouter(t)

	for _, target := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp, err := router.App().Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, target)
		resp.Body.Close()
	}
}

func TestRouter_AuthRequiredOnV1(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	resp, err := router.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeErrorCode(t, resp))
}

func TestRouter_WakefaceLifecycle(t *testing.T) {
	router := setupTestRouter(t)

	// Sobe wakeface.
	resp := doRequest(t, router, http.MethodPost, "/v1/wakeface/start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feature struct {
		Feature string `json:"feature"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feature))
	resp.Body.Close()
	assert.Equal(t, "wakeface", feature.Feature)
	assert.Equal(t, "started", feature.Status)

	// Status reflete a feature ativa.
	resp = doRequest(t, router, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeStatus(t, resp)
	resp.Body.Close()
	assert.Equal(t, "wakeface", status.ActiveFeature)
	assert.True(t, status.Wakeface)

	// Presence não entra com a câmera ocupada.
	resp = doRequest(t, router, http.MethodPost, "/v1/presence/start", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, domain.ErrCameraBusy.Code, decodeErrorCode(t, resp))
	resp.Body.Close()

	// Derruba e a câmera fica livre.
	resp = doRequest(t, router, http.MethodPost, "/v1/wakeface/stop", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, router, http.MethodPost, "/v1/wakeface/stop", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, domain.ErrFeatureNotRunning.Code, decodeErrorCode(t, resp))
	resp.Body.Close()
}

func TestRouter_EnrollmentFlow(t *testing.T) {
	router := setupTestRouter(t)

	resp := doRequest(t, router, http.MethodPost, "/v1/enrollments", `{"name":"alice"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var enrollResp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&enrollResp))
	resp.Body.Close()
	assert.NotEmpty(t, enrollResp.SessionID)

	// A sessão grava 2 frames e encerra sozinha.
	require.Eventually(t, func() bool {
		resp := doRequest(t, router, http.MethodGet, "/v1/status", "")
		defer resp.Body.Close()
		return decodeStatus(t, resp).ActiveFeature == ""
	}, 2*time.Second, 10*time.Millisecond)

	resp = doRequest(t, router, http.MethodGet, "/v1/persons", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var persons struct {
		Persons []struct {
			Name    string `json:"name"`
			Samples int    `json:"samples"`
		} `json:"persons"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&persons))
	resp.Body.Close()

	require.Equal(t, 1, persons.Total)
	assert.Equal(t, "alice", persons.Persons[0].Name)
	assert.Equal(t, 2, persons.Persons[0].Samples)
}

func TestRouter_EnrollmentRejectsInvalidName(t *testing.T) {
	router := setupTestRouter(t)

	resp := doRequest(t, router, http.MethodPost, "/v1/enrollments", `{"name":"unknown"}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, domain.ErrInvalidPersonName.Code, decodeErrorCode(t, resp))
}

func TestRouter_EventsAndMetricsAfterEnrollment(t *testing.T) {
	router := setupTestRouter(t)

	resp := doRequest(t, router, http.MethodPost, "/v1/enrollments", `{"name":"bob"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		resp := doRequest(t, router, http.MethodGet, "/v1/status", "")
		defer resp.Body.Close()
		return decodeStatus(t, resp).ActiveFeature == ""
	}, 2*time.Second, 10*time.Millisecond)

	// O fan-out alimentou journal e métricas com os recording_face.
	resp = doRequest(t, router, http.MethodGet, "/v1/events/recent?limit=10", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recent struct {
		Events []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"events"`
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recent))
	resp.Body.Close()

	require.Equal(t, 2, recent.Count)
	for _, env := range recent.Events {
		assert.Equal(t, event.NameRecordingFace, env.Type)
		assert.NotEmpty(t, env.ID)
	}

	resp = doRequest(t, router, http.MethodGet, "/v1/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap struct {
		TotalEvents uint64            `json:"total_events"`
		Events      map[string]uint64 `json:"events"`
		Persons     int               `json:"persons"`
		Samples     int               `json:"samples"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()

	assert.Equal(t, uint64(2), snap.TotalEvents)
	assert.Equal(t, uint64(2), snap.Events[event.NameRecordingFace])
	assert.Equal(t, 1, snap.Persons)
	assert.Equal(t, 2, snap.Samples)
}

func TestRouter_UnknownRouteReturns404(t *testing.T) {
	router := setupTestRouter(t)

	resp := doRequest(t, router, http.MethodGet, "/v1/nope", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
