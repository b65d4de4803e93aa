package camera

import (
	"context"
	"errors"
	"sync"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// MockDevice é um Device sintético para testes e para rodar o daemon sem
// hardware. Cada captura devolve um frame com conteúdo distinto, então
// embeddings derivados de hash também variam entre frames.
type MockDevice struct {
	// Hooks de teste; quando nil, vale o comportamento padrão.
	OpenErr  error
	CloseErr error
	FrameFn  func(n int, resize bool) (domain.Frame, error)

	width  int
	height int

	mu       sync.Mutex
	opened   bool
	opens    int
	closes   int
	captures int
}

var _ Device = (*MockDevice)(nil)

func NewMockDevice(width, height int) *MockDevice {
	return &MockDevice{width: width, height: height}
}

func (d *MockDevice) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.OpenErr != nil {
		return d.OpenErr
	}
	d.opened = true
	d.opens++
	return nil
}

func (d *MockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.opened = false
	d.closes++
	return d.CloseErr
}

func (d *MockDevice) ColorFrame(ctx context.Context, resize bool) (domain.Frame, error) {
	d.mu.Lock()
	if !d.opened {
		d.mu.Unlock()
		return domain.Frame{}, errors.New("mock device: not open")
	}
	d.captures++
	n := d.captures
	fn := d.FrameFn
	width, height := d.width, d.height
	d.mu.Unlock()

	if fn != nil {
		return fn(n, resize)
	}

	if resize {
		width /= 2
		height /= 2
	}

	// Prefixo JPEG mais um payload que varia com o contador de capturas.
	data := make([]byte, 64)
	data[0], data[1] = 0xff, 0xd8
	for i := 2; i < len(data); i++ {
		data[i] = byte(n + i)
	}

	return domain.Frame{Data: data, Width: width, Height: height}, nil
}

// Opened reporta se o dispositivo está aberto.
func (d *MockDevice) Opened() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Opens conta as chamadas de Open bem sucedidas.
func (d *MockDevice) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Closes conta as chamadas de Close.
func (d *MockDevice) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// Captures conta os frames entregues.
func (d *MockDevice) Captures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.captures
}
