package sensor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/camera"
	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/enroll"
	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/store"
)

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

func newControllerForTest(t *testing.T, device *camera.MockDevice) (*Controller, *store.FaceStore) {
	t.Helper()

	faceStore, err := store.Load(filepath.Join(t.TempDir(), "encodings.csv"))
	require.NoError(t, err)

	emb := make(domain.Embedding, domain.EmbeddingDim)
	emb[0] = 0.1

	c := NewController(Deps{
		Camera: camera.NewResource(device, quietLogger()),
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
		Events: event.Discard,
		Logger: quietLogger(),
		Enroll: enroll.Config{Frames: 2},
	})
	return c, faceStore
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestController_WakefaceLifecycle(t *testing.T) {
	device := camera.NewMockDevice(640, 480)
	c, _ := newControllerForTest(t, device)

	require.NoError(t, c.StartWakeface(context.Background()))

	st := c.Status()
	assert.Equal(t, "wakeface", st.ActiveFeature)
	assert.True(t, st.Wakeface)
	assert.False(t, st.Presence)

	require.NoError(t, c.StopWakeface())
	st = c.Status()
	assert.Empty(t, st.ActiveFeature)
	assert.False(t, device.Opened())
}

func TestController_StartWakefaceIsIdempotent(t *testing.T) {
	device := camera.NewMockDevice(640, 480)
	c, _ := newControllerForTest(t, device)

	require.NoError(t, c.StartWakeface(context.Background()))
	require.NoError(t, c.StartWakeface(context.Background()))
	assert.Equal(t, 1, device.Opens())

	require.NoError(t, c.StopWakeface())
}

func TestController_MutualExclusion(t *testing.T) {
	device := camera.NewMockDevice(640, 480)
	c, _ := newControllerForTest(t, device)

	require.NoError(t, c.StartWakeface(context.Background()))

	assertAppError(t, c.StartPresence(context.Background()), "CAMERA_BUSY")
	_, err := c.StartEnrollment(context.Background(), "alice")
	assertAppError(t, err, "CAMERA_BUSY")

	require.NoError(t, c.StopWakeface())
	require.NoError(t, c.StartPresence(context.Background()))
	assertAppError(t, c.StartWakeface(context.Background()), "CAMERA_BUSY")
	require.NoError(t, c.StopPresence())
}

func TestController_StopWithoutStart(t *testing.T) {
	device := camera.NewMockDevice(640, 480)
	c, _ := newControllerForTest(t, device)

	assertAppError(t, c.StopWakeface(), "FEATURE_NOT_RUNNING")
	assertAppError(t, c.StopPresence(), "FEATURE_NOT_RUNNING")
	assertAppError(t, c.StopEnrollment(), "FEATURE_NOT_RUNNING")
}

func TestController_EnrollmentSession(t *testing.T) {
	device := camera.NewMockDevice(640, 480)
	c, faceStore := newControllerForTest(t, device)

	session, err := c.StartEnrollment(context.Background(), "alice")
	require.NoError(t, err)
	_, err = uuid.Parse(session)
	assert.NoError(t, err, "session_id é um uuid")

	// A sessão completa sozinha; o reap do Status colhe o resultado.
	require.Eventually(t, func() bool {
		return c.Status().ActiveFeature == ""
	}, 5*time.Second, 5*time.Millisecond)

	st := c.Status()
	assert.Empty(t, st.LastError)
	assert.Equal(t, 1, st.Persons)
	assert.Equal(t, 2, st.Samples)
	assert.Equal(t, []string{"alice", "alice"}, faceStore.Names())
	assert.False(t, device.Opened())

	// Depois de completar, não há mais o que parar.
	assertAppError(t, c.StopEnrollment(), "FEATURE_NOT_RUNNING")
}

func TestController_EnrollmentStatusWhileRunning(t *testing.T) {
	device := camera.NewMockDevice(640, 480)

	// Detector sem faces: a sessão fica aberta até o stop.
	faceStore, err := store.Load(filepath.Join(t.TempDir(), "encodings.csv"))
	require.NoError(t, err)
	c := NewController(Deps{
		Camera: camera.NewResource(device, quietLogger()),
		Detector: detectorFunc(func(context.Context, domain.Frame) ([]domain.FaceLandmarks, error) {
			return nil, nil
		}),
		Encoder: encoderFunc(func(context.Context, domain.Frame, []domain.BoundingBox) ([]domain.Embedding, error) {
			return nil, nil
		}),
		Objects: objectsFunc(func(context.Context, domain.Frame) ([]provider.Detection, error) {
			return nil, nil
		}),
		Store:  faceStore,
		Events: event.Discard,
		Logger: quietLogger(),
	})

	session, err := c.StartEnrollment(context.Background(), "  alice  ")
	require.NoError(t, err)

	st := c.Status()
	require.NotNil(t, st.Enrollment)
	assert.Equal(t, session, st.Enrollment.SessionID)
	assert.Equal(t, "alice", st.Enrollment.Name, "o nome entra aparado")
	assert.Equal(t, 0, st.Enrollment.Progress)

	require.NoError(t, c.StopEnrollment())
	assert.Empty(t, c.Status().ActiveFeature)
}

func TestController_EnrollmentNameValidation(t *testing.T) {
	device := camera.NewMockDevice(640, 480)
	c, _ := newControllerForTest(t, device)

	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"reserved unknown", "unknown"},
		{"reserved unknown mixed case", "Unknown"},
		{"store separator", "a;b"},
		{"line break", "line\nbreak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.StartEnrollment(context.Background(), tt.value)
			assertAppError(t, err, "INVALID_PERSON_NAME")
		})
	}

	assert.Empty(t, c.Status().ActiveFeature, "nome inválido não chega a tocar a câmera")
	assert.Zero(t, device.Opens())
}

func TestController_ReapsFeatureThatDiedAlone(t *testing.T) {
	device := camera.NewMockDevice(640, 480)
	device.FrameFn = func(int, bool) (domain.Frame, error) {
		return domain.Frame{}, errors.New("sensor desconectado")
	}

	c, _ := newControllerForTest(t, device)
	require.NoError(t, c.StartWakeface(context.Background()))

	require.Eventually(t, func() bool {
		st := c.Status()
		return st.ActiveFeature == "" && st.LastError != ""
	}, 5*time.Second, 5*time.Millisecond, "o reap deve colher a feature morta")

	assert.False(t, device.Opened(), "a câmera volta para o pool depois do reap")

	// Com a câmera livre, outra feature consegue subir.
	require.NoError(t, c.StartPresence(context.Background()))
}

func TestController_StopAll(t *testing.T) {
	device := camera.NewMockDevice(640, 480)
	c, _ := newControllerForTest(t, device)

	require.NoError(t, c.StopAll(), "sem nada de pé é no-op")

	require.NoError(t, c.StartWakeface(context.Background()))
	require.NoError(t, c.StopAll())

	st := c.Status()
	assert.Empty(t, st.ActiveFeature)
	assert.False(t, device.Opened())
}

func TestController_Identities(t *testing.T) {
	device := camera.NewMockDevice(640, 480)
	c, faceStore := newControllerForTest(t, device)

	emb := make(domain.Embedding, domain.EmbeddingDim)
	require.NoError(t, faceStore.Append("alice", emb))
	require.NoError(t, faceStore.Append("alice", emb))
	require.NoError(t, faceStore.Append("bob", emb))

	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, c.Identities())
}
