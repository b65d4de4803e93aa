package config

import (
	"log/slog"
	"os"
)

// NewLogger monta o logger do daemon. JSON em produção (coletado pelo
// agregador da frota), texto com source em desenvolvimento. Sempre em
// stderr: stdout fica livre para as ferramentas de linha de comando.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		AddSource: env == "development",
	}

	if env == "production" {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler).With(slog.String("service", "vigiad"))
}
