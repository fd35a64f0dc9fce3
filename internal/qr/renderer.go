package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"github.com/qrtist/backend/internal/models"
	"github.com/skip2/go-qrcode"
)

// RecoveryLevel tolerates roughly 15% symbol damage
const RecoveryLevel = qrcode.Medium

// Renderer encodes payloads into PNG QR code images.
// It holds no state and is safe for concurrent use.
type Renderer struct {
	encoder png.Encoder
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{
		encoder: png.Encoder{CompressionLevel: png.BestCompression},
	}
}

// Render encodes payload with the smallest symbol version that fits at RecoveryLevel
// and returns the PNG bytes.
//
// Each module is drawn as a square of options.ModuleSize pixels, the symbol keeps the
// standard 4-module quiet zone. Returns ErrEmptyPayload for an empty payload and
// ErrPayloadTooLarge when no version can hold it.
func (r *Renderer) Render(payload string, options models.RenderOptions) ([]byte, error) {
	if payload == "" {
		return nil, models.ErrEmptyPayload
	}
	if options.ModuleSize < 1 {
		return nil, fmt.Errorf("%w: module size must be positive, got %d", models.ErrInvalidSize, options.ModuleSize)
	}

	fg, err := parseHexColor(options.Foreground)
	if err != nil {
		return nil, err
	}
	bg, err := parseHexColor(options.Background)
	if err != nil {
		return nil, err
	}

	code, err := qrcode.New(payload, RecoveryLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPayloadTooLarge, err)
	}

	img := drawBitmap(code.Bitmap(), options.ModuleSize, fg, bg)

	var buf bytes.Buffer
	if err := r.encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	return buf.Bytes(), nil
}

// drawBitmap paints every dark module with index 1 of a two color palette
func drawBitmap(bitmap [][]bool, moduleSize int, fg, bg color.RGBA) *image.Paletted {
	side := len(bitmap) * moduleSize
	img := image.NewPaletted(image.Rect(0, 0, side, side), color.Palette{bg, fg})

	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			for py := y * moduleSize; py < (y+1)*moduleSize; py++ {
				offset := py * img.Stride
				for px := x * moduleSize; px < (x+1)*moduleSize; px++ {
					img.Pix[offset+px] = 1
				}
			}
		}
	}

	return img
}

// parseHexColor parses "#RRGGBB" or "RRGGBB" into an opaque color
func parseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: %q is not a 6-digit hex color", models.ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q is not a 6-digit hex color", models.ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
