package domain

// Frame é uma imagem colorida capturada da câmera, codificada em JPEG.
// Depois de criado, um Frame não deve ser modificado: os estágios do
// pipeline compartilham o mesmo slice sem copiar.
type Frame struct {
	Data   []byte `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Empty reporta se o frame não carrega dados de imagem.
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}
