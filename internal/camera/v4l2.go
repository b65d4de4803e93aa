package camera

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// V4L2Device captura frames de uma webcam USB via ffmpeg, um frame por
// invocação. Sem processo residente: cada captura roda um ffmpeg curto,
// e fechar o dispositivo não deixa nada para trás.
type V4L2Device struct {
	path        string
	width       int
	height      int
	resizeWidth int
}

var _ Device = (*V4L2Device)(nil)

func NewV4L2Device(path string, width, height, resizeWidth int) *V4L2Device {
	return &V4L2Device{
		path:        path,
		width:       width,
		height:      height,
		resizeWidth: resizeWidth,
	}
}

// Open confere que o nó do dispositivo existe e que há ffmpeg no PATH.
func (d *V4L2Device) Open(ctx context.Context) error {
	if _, err := os.Stat(d.path); err != nil {
		return fmt.Errorf("open %s: %w", d.path, err)
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("open %s: %w", d.path, err)
	}
	return nil
}

func (d *V4L2Device) Close() error {
	return nil
}

// ColorFrame captura um único frame JPEG do dispositivo.
func (d *V4L2Device) ColorFrame(ctx context.Context, resize bool) (domain.Frame, error) {
	width, height := d.width, d.height

	args := []string{
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", d.width, d.height),
		"-i", d.path,
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", "2",
	}

	if resize && d.resizeWidth > 0 && d.resizeWidth < d.width {
		// scale=W:-2 mantém a proporção com altura par, exigência do mjpeg.
		args = append(args, "-vf", fmt.Sprintf("scale=%d:-2", d.resizeWidth))
		width = d.resizeWidth
		height = d.height * d.resizeWidth / d.width
		height -= height % 2
	}
	args = append(args, "-")

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return domain.Frame{}, fmt.Errorf("capture frame from %s: %w (stderr: %s)", d.path, err, stderr.String())
	}

	if stdout.Len() == 0 {
		return domain.Frame{}, fmt.Errorf("capture frame from %s: empty output", d.path)
	}

	return domain.Frame{
		Data:   stdout.Bytes(),
		Width:  width,
		Height: height,
	}, nil
}
