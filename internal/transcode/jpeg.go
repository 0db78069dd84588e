package transcode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const defaultMaxPixels = 64 << 20 // 64 megapixels decoded

// JPEGTranscoder decodes JPEG/PNG/GIF input, scales to the exact target
// dimensions, and re-encodes as JPEG at the requested quality.
// Pure Go (no CGo) so it works with CGO_ENABLED=0 builds.
type JPEGTranscoder struct {
	// MaxPixels bounds the decoded image area to keep a hostile or corrupt
	// asset from exhausting memory. Zero means defaultMaxPixels.
	MaxPixels int64
}

func NewJPEGTranscoder() *JPEGTranscoder {
	return &JPEGTranscoder{MaxPixels: defaultMaxPixels}
}

func (t *JPEGTranscoder) Transcode(ctx context.Context, data []byte, width, height, quality int) (Derivative, error) {
	if err := ctx.Err(); err != nil {
		return Derivative{}, &TranscodeError{Err: err}
	}
	if len(data) == 0 {
		return Derivative{}, &TranscodeError{Err: fmt.Errorf("empty image data")}
	}

	maxPixels := t.MaxPixels
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Derivative{}, &TranscodeError{Err: fmt.Errorf("decode config: %w", err)}
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return Derivative{}, &TranscodeError{
			Err: fmt.Errorf("source %dx%d exceeds pixel limit %d", cfg.Width, cfg.Height, maxPixels),
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Derivative{}, &TranscodeError{Err: fmt.Errorf("decode image: %w", err)}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return Derivative{}, &TranscodeError{Err: fmt.Errorf("encode JPEG: %w", err)}
	}

	return Derivative{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
	}, nil
}
