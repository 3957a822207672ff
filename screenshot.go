package ember

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Screenshot queues a labeled capture of the next frame drawn by Draw. The
// PNG is written to ScreenshotDir with a timestamped file name.
func (r *EbitenRenderer) Screenshot(label string) {
	r.screenshotQueue = append(r.screenshotQueue, label)
}

// flushScreenshots writes every queued capture of target. Called at the end
// of Draw.
func (r *EbitenRenderer) flushScreenshots(target *ebiten.Image) {
	if len(r.screenshotQueue) == 0 {
		return
	}
	dir := r.ScreenshotDir
	if dir == "" {
		dir = "screenshots"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		warnf("screenshot: mkdir %s: %v", dir, err)
		r.screenshotQueue = r.screenshotQueue[:0]
		return
	}

	b := target.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]byte, 4*w*h)
	target.ReadPixels(pixels)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	unpremultiply(img.Pix, pixels)

	stamp := time.Now().Format("20060102_150405")
	for _, label := range r.screenshotQueue {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			warnf("screenshot: %v", err)
		}
	}
	r.screenshotQueue = r.screenshotQueue[:0]
}

// unpremultiply converts premultiplied RGBA pixels to straight alpha.
func unpremultiply(dst, src []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		cr, cg, cb, a := src[i], src[i+1], src[i+2], src[i+3]
		if a > 0 && a < 255 {
			cr = uint8(min(int(cr)*255/int(a), 255))
			cg = uint8(min(int(cg)*255/int(a), 255))
			cb = uint8(min(int(cb)*255/int(a), 255))
		}
		dst[i], dst[i+1], dst[i+2], dst[i+3] = cr, cg, cb, a
	}
}

func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores. Empty labels become "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, c := range label {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9', c == '-', c == '.':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
