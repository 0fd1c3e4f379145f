// Package avatar implements the avatar upload pipeline: extension and
// size gating, decode, resize to a fixed square, and PNG re-encoding.
package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Upload constraints and output geometry.
const (
	MaxUploadBytes = 1 << 20 // 1MB
	TargetSize     = 250
)

// Client-visible pipeline errors. All map to 400 responses; anything else
// coming out of Process is a server-side failure.
var (
	ErrUnsupportedFormat = errors.New("please upload an image of .jpg, .jpeg or .png format")
	ErrTooLarge          = fmt.Errorf("image must be at most %d bytes", MaxUploadBytes)
	ErrDecodeFailed      = errors.New("uploaded file is not a valid image")
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Processor validates and normalizes uploaded avatar images.
type Processor struct {
	maxBytes   int64
	targetSize int
}

// NewProcessor creates a Processor with the standard limits.
func NewProcessor() *Processor {
	return &Processor{
		maxBytes:   MaxUploadBytes,
		targetSize: TargetSize,
	}
}

// Process runs the full pipeline on an uploaded file. The extension and
// size checks run before any decoding. The resize stretches to an exact
// square, so input aspect ratio is not preserved. The result is always
// PNG regardless of input format.
func (p *Processor) Process(filename string, size int64, r io.Reader) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, ErrUnsupportedFormat
	}
	if size > p.maxBytes {
		return nil, ErrTooLarge
	}

	src, err := imaging.Decode(io.LimitReader(r, p.maxBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrDecodeFailed
	}

	resized := imaging.Resize(src, p.targetSize, p.targetSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}

	return buf.Bytes(), nil
}

// IsClientError reports whether err is a validation failure the uploader
// can fix, as opposed to a server-side processing failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrDecodeFailed)
}
