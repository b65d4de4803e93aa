// Package store guarda as faces conhecidas do dispositivo.
//
// A persistência é um arquivo delimitado, uma linha por amostra:
//
//	nome;v1;v2;...;v128
//
// O arquivo é append-only e a ordem das linhas é significativa: o voto de
// reconhecimento desempata pela primeira ocorrência no arquivo. Uma mesma
// pessoa pode aparecer em várias linhas (uma por amostra cadastrada).
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

const separator = ";"

// Entry é uma amostra cadastrada: um nome e o embedding de uma captura.
type Entry struct {
	Name      string
	Embedding domain.Embedding
}

// FaceStore mantém as amostras em memória e espelha cada append no
// arquivo antes de expor a entrada para leitura. Seguro para leitura
// concorrente com appends.
type FaceStore struct {
	path string

	mu      sync.RWMutex
	entries []Entry
}

// Load carrega o arquivo de encodings. Arquivo inexistente ou vazio
// resulta em store vazio: é o estado normal de um dispositivo recém
// provisionado. Linha malformada é erro, o operador precisa intervir.
func Load(path string) (*FaceStore, error) {
	s := &FaceStore{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load store %s: %w", path, err)
	}

	for i, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("load store %s: line %d: %w", path, i+1, err)
		}
		s.entries = append(s.entries, entry)
	}

	return s, nil
}

func parseLine(line string) (Entry, error) {
	fields := strings.Split(line, separator)
	if len(fields) != domain.EmbeddingDim+1 {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", domain.EmbeddingDim+1, len(fields))
	}

	name := fields[0]
	if name == "" {
		return Entry{}, fmt.Errorf("empty name")
	}

	emb := make(domain.Embedding, domain.EmbeddingDim)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		emb[i] = v
	}

	return Entry{Name: name, Embedding: emb}, nil
}

// Append grava a amostra no arquivo e só então a adiciona à memória.
// Falha de escrita deixa a memória intocada e é devolvida ao chamador:
// cadastro sem durabilidade não conta.
func (s *FaceStore) Append(name string, emb domain.Embedding) error {
	if name == "" || strings.ContainsAny(name, separator+"\n\r") {
		return fmt.Errorf("append store: invalid name %q", name)
	}
	if len(emb) != domain.EmbeddingDim {
		return fmt.Errorf("append store: expected %d dimensions, got %d", domain.EmbeddingDim, len(emb))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeLine(name, emb); err != nil {
		return fmt.Errorf("append store: %w", err)
	}

	s.entries = append(s.entries, Entry{
		Name:      name,
		Embedding: append(domain.Embedding(nil), emb...),
	})
	return nil
}

func (s *FaceStore) writeLine(name string, emb domain.Embedding) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(name)
	for _, v := range emb {
		b.WriteString(separator)
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteString("\n")

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Match devolve os índices das amostras a uma distância euclidiana menor
// ou igual à tolerância, na ordem do arquivo.
func (s *FaceStore) Match(emb domain.Embedding, tolerance float64) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []int
	for i, entry := range s.entries {
		if domain.EuclideanDistance(entry.Embedding, emb) <= tolerance {
			matches = append(matches, i)
		}
	}
	return matches
}

// Names devolve o nome de cada amostra, na ordem do arquivo.
func (s *FaceStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.entries))
	for i, entry := range s.entries {
		names[i] = entry.Name
	}
	return names
}

// Identities agrega as amostras por pessoa: nome → quantidade de amostras.
func (s *FaceStore) Identities() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]int, len(s.entries))
	for _, entry := range s.entries {
		ids[entry.Name]++
	}
	return ids
}

func (s *FaceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Path devolve o caminho do arquivo de encodings.
func (s *FaceStore) Path() string {
	return s.path
}
