package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// Encoder turns raw RGBA frames into PNG bytes
type Encoder struct {
	png png.Encoder
	buf bytes.Buffer
}

// NewEncoder creates an encoder with the given compression level
func NewEncoder(level png.CompressionLevel) *Encoder {
	return &Encoder{png: png.Encoder{CompressionLevel: level}}
}

// Encode encodes frame as PNG. For depth only cameras the red channel is
// copied into an 8 bit grayscale image first.
func (e *Encoder) Encode(frame *image.RGBA, depthOnly bool) ([]byte, error) {
	var img image.Image = frame
	if depthOnly {
		img = RedToGray(frame)
	}

	e.buf.Reset()
	if err := e.png.Encode(&e.buf, img); err != nil {
		return nil, fmt.Errorf("png encoding failed: %w", err)
	}

	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())
	return out, nil
}

// RedToGray copies the red channel of frame into a grayscale image
func RedToGray(frame *image.RGBA) *image.Gray {
	b := frame.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := frame.Pix[(y-b.Min.Y)*frame.Stride:]
		dst := gray.Pix[(y-b.Min.Y)*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return gray
}
