package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
)

const (
	DefaultQueueSize   = 128
	DefaultMaxAttempts = 3
)

// Worker consome a fila de entregas em uma goroutine própria. A fila é
// limitada: com o consumidor parado ou lento, o job mais antigo é
// descartado para abrir espaço ao mais novo.
type Worker struct {
	service *Service
	logger  *slog.Logger
	queue   chan *Job

	// serializa a dança de drop-oldest entre produtores concorrentes
	mu sync.Mutex

	maxAttempts int
	backoff     time.Duration
}

func NewWorker(service *Service, logger *slog.Logger) *Worker {
	return &Worker{
		service:     service,
		logger:      logger,
		queue:       make(chan *Job, DefaultQueueSize),
		maxAttempts: DefaultMaxAttempts,
		backoff:     time.Second,
	}
}

// Enqueue serializa o envelope e o coloca na fila sem bloquear. Os loops
// dos sensores chamam isto no caminho quente: nunca pode travar.
func (w *Worker) Enqueue(env event.Envelope) {
	if !w.service.Enabled() {
		return
	}

	payload, err := json.Marshal(env)
	if err != nil {
		w.logger.Error("failed to marshal webhook payload", "event", env.Type, "error", err)
		return
	}

	job := &Job{
		EventType:   env.Type,
		Payload:     payload,
		MaxAttempts: w.maxAttempts,
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		select {
		case w.queue <- job:
			return
		default:
			select {
			case dropped := <-w.queue:
				w.logger.Warn("webhook queue full, dropping oldest job", "event", dropped.EventType)
			default:
			}
		}
	}
}

func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("webhook worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook worker stopped")
			return
		case job := <-w.queue:
			w.deliver(ctx, job)
		}
	}
}

// deliver tenta o job até entregar ou esgotar as tentativas, com backoff
// exponencial entre elas.
func (w *Worker) deliver(ctx context.Context, job *Job) {
	for {
		err := w.service.Send(ctx, job.EventType, job.Payload)
		job.Attempts++

		if err == nil {
			w.logger.Debug("webhook job delivered",
				"event", job.EventType,
				"attempts", job.Attempts,
			)
			return
		}

		if job.Attempts >= job.MaxAttempts {
			w.logger.Warn("webhook job failed",
				"event", job.EventType,
				"attempts", job.Attempts,
				"error", err,
			)
			return
		}

		delay := time.Duration(1<<job.Attempts) * w.backoff
		w.logger.Info("webhook job scheduled for retry",
			"event", job.EventType,
			"attempts", job.Attempts,
			"delay", delay,
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}
