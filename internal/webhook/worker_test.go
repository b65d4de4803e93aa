package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_SendSetsHeaders(t *testing.T) {
	var (
		gotBody    []byte
		gotHeaders http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	service := NewService(server.URL, "segredo")
	payload := []byte(`{"type":"person_detected","data":{}}`)

	err := service.Send(context.Background(), event.NamePersonDetected, payload)
	require.NoError(t, err)

	assert.Equal(t, payload, gotBody)
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, event.NamePersonDetected, gotHeaders.Get("X-Vigia-Event"))
	assert.Equal(t, "Vigia-Webhook/1.0", gotHeaders.Get("User-Agent"))
	assert.True(t, Verify("segredo", payload, gotHeaders.Get("X-Vigia-Signature")),
		"a assinatura deve validar contra o corpo recebido")
}

func TestService_SendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	service := NewService(server.URL, "")

	err := service.Send(context.Background(), event.NameEmptyRoom, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestService_SendConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	service := NewService(server.URL, "")

	err := service.Send(context.Background(), event.NameEmptyRoom, []byte(`{}`))
	assert.Error(t, err)
}

func TestService_Enabled(t *testing.T) {
	assert.True(t, NewService("http://example.com/hook", "s").Enabled())
	assert.False(t, NewService("", "s").Enabled())
}

func TestWorker_DeliversEnqueuedEnvelope(t *testing.T) {
	received := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	worker := NewWorker(NewService(server.URL, "segredo"), quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	env := event.NewEnvelope(event.FaceRecognized{Usernames: map[string]int{"alice": 3}})
	worker.Enqueue(env)

	select {
	case body := <-received:
		var got struct {
			ID   string          `json:"id"`
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, env.ID, got.ID)
		assert.Equal(t, event.NameFaceRecognized, got.Type)
		assert.JSONEq(t, `{"usernames":{"alice":3}}`, string(got.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for delivery")
	}
}

func TestWorker_RetriesUntilDelivered(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	worker := NewWorker(NewService(server.URL, ""), quietLogger())
	worker.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	worker.Enqueue(event.NewEnvelope(event.NoFaces{}))

	require.Eventually(t, func() bool {
		return calls.Load() == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	worker := NewWorker(NewService(server.URL, ""), quietLogger())
	worker.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	worker.Enqueue(event.NewEnvelope(event.NoFaces{}))

	require.Eventually(t, func() bool {
		return calls.Load() == DefaultMaxAttempts
	}, 2*time.Second, 5*time.Millisecond)

	// Nenhuma tentativa extra depois de esgotar o limite.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(DefaultMaxAttempts), calls.Load())
}

func TestWorker_DropsOldestWhenFull(t *testing.T) {
	worker := NewWorker(NewService("http://example.com/hook", ""), quietLogger())
	worker.queue = make(chan *Job, 2)

	worker.Enqueue(event.NewEnvelope(event.NoFaces{}))
	worker.Enqueue(event.NewEnvelope(event.PersonDetected{}))
	worker.Enqueue(event.NewEnvelope(event.EmptyRoom{}))

	var types []string
	for len(worker.queue) > 0 {
		types = append(types, (<-worker.queue).EventType)
	}
	assert.Equal(t, []string{event.NamePersonDetected, event.NameEmptyRoom}, types,
		"o job mais antigo deve ser descartado")
}

func TestWorker_EnqueueIsNoopWithoutURL(t *testing.T) {
	worker := NewWorker(NewService("", "segredo"), quietLogger())

	worker.Enqueue(event.NewEnvelope(event.NoFaces{}))

	assert.Empty(t, worker.queue)
}
