// Package webhook entrega envelopes de evento para uma URL externa
// configurada, com assinatura HMAC e retry assíncrono.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Service struct {
	url    string
	secret string
	client *http.Client
}

func NewService(url, secret string) *Service {
	return &Service{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled indica se há destino configurado. Sem URL o pacote inteiro é
// um no-op.
func (s *Service) Enabled() bool {
	return s.url != ""
}

// Send faz um POST síncrono do payload assinado. Erro de rede e status
// >= 400 contam como falha de entrega; o retry é decisão do chamador.
func (s *Service) Send(ctx context.Context, eventType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Vigia-Signature", Sign(s.secret, payload))
	req.Header.Set("X-Vigia-Event", eventType)
	req.Header.Set("User-Agent", "Vigia-Webhook/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil
}
