package wakeface

import (
	"context"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/store"
)

// recognizer consome observações e mantém o histórico de votos do
// episódio de atenção corrente. Um episódio começa na primeira observação
// com faces e termina em qualquer observação vazia.
type recognizer struct {
	encoder       provider.FaceEncoder
	store         *store.FaceStore
	tolerance     float64
	confirmations int
	logger        *slog.Logger

	history map[string]int
}

func newRecognizer(encoder provider.FaceEncoder, faceStore *store.FaceStore, tolerance float64, confirmations int, logger *slog.Logger) *recognizer {
	return &recognizer{
		encoder:       encoder,
		store:         faceStore,
		tolerance:     tolerance,
		confirmations: confirmations,
		logger:        logger,
		history:       make(map[string]int),
	}
}

// process aplica a observação ao histórico. Devolve o evento a emitir,
// se houver.
//
// Observação vazia encerra o episódio. Com o episódio fechado (alguém já
// confirmado), o reconhecimento nem roda: é o que segura o custo de
// inferência quando a identidade já está decidida. Falha do encoder é
// tratada como observação vazia e registrada no log.
func (r *recognizer) process(ctx context.Context, obs observation) (event.Event, bool) {
	if len(obs.faces) == 0 {
		r.reset()
		return nil, false
	}

	if !r.episodeOpen() {
		return nil, false
	}

	names, err := r.recognize(ctx, obs)
	if err != nil {
		r.logger.Error("face recognition failed", "error", err)
		r.reset()
		return nil, false
	}

	for name := range names {
		r.history[name]++
	}

	return event.FaceRecognized{Usernames: copyCounts(r.history)}, true
}

// episodeOpen: ninguém confirmado ainda. Entradas "unknown" nunca fecham
// o episódio; só um nome real com confirmations votos encerra a
// reavaliação.
func (r *recognizer) episodeOpen() bool {
	for name, count := range r.history {
		if name == domain.UnknownName {
			continue
		}
		if count >= r.confirmations {
			return false
		}
	}
	return true
}

// recognize devolve o conjunto de nomes reconhecidos na observação, um
// voto por face aceita. Face sem match vira "unknown".
func (r *recognizer) recognize(ctx context.Context, obs observation) (map[string]struct{}, error) {
	boxes := make([]domain.BoundingBox, len(obs.faces))
	for i, f := range obs.faces {
		boxes[i] = f.Box
	}

	embeddings, err := r.encoder.EncodeFaces(ctx, obs.frame, boxes)
	if err != nil {
		return nil, err
	}

	storeNames := r.store.Names()
	names := make(map[string]struct{}, len(embeddings))

	for _, emb := range embeddings {
		var matched []string
		for _, idx := range r.store.Match(emb, r.tolerance) {
			if idx < len(storeNames) {
				matched = append(matched, storeNames[idx])
			}
		}
		names[vote(matched)] = struct{}{}
	}

	return names, nil
}

func (r *recognizer) reset() {
	if len(r.history) > 0 {
		r.history = make(map[string]int)
	}
}

// vote escolhe a identidade entre as amostras casadas: o nome com mais
// amostras dentro da tolerância vence, empate decidido pela primeira
// ocorrência na ordem do arquivo. Sem amostras, o voto é "unknown".
func vote(matched []string) string {
	if len(matched) == 0 {
		return domain.UnknownName
	}

	counts := make(map[string]int, len(matched))
	var order []string
	for _, name := range matched {
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}

	winner := order[0]
	for _, name := range order[1:] {
		if counts[name] > counts[winner] {
			winner = name
		}
	}
	return winner
}

func copyCounts(counts map[string]int) map[string]int {
	out := make(map[string]int, len(counts))
	for name, count := range counts {
		out[name] = count
	}
	return out
}
