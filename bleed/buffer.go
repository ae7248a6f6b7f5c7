package bleed

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// RGBAChannels is the only channel layout the engine accepts.
const RGBAChannels = 4

// Buffer represents a rectangular, row-major pixel buffer with 8-bit
// straight (non-premultiplied) RGBA samples.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewBuffer creates a zeroed (fully transparent) RGBA buffer.
func NewBuffer(width, height int) *Buffer {
	size := 0
	if width > 0 && height > 0 && width <= math.MaxInt/RGBAChannels/height {
		size = width * height * RGBAChannels
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: RGBAChannels,
		Pix:      make([]uint8, size),
	}
}

// FromImage copies an NRGBA image into a new buffer. Any other colour model
// is rejected with ErrUnsupportedFormat; callers holding other models should
// convert them explicitly first.
func FromImage(img image.Image) (*Buffer, error) {
	src, ok := img.(*image.NRGBA)
	if !ok {
		return nil, fmt.Errorf("%w: %T, want *image.NRGBA", ErrUnsupportedFormat, img)
	}
	bounds := src.Bounds()
	ret := NewBuffer(bounds.Dx(), bounds.Dy())
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	rowLen := ret.Width * RGBAChannels
	for y := 0; y < ret.Height; y++ {
		offset := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(ret.Pix[y*rowLen:(y+1)*rowLen], src.Pix[offset:offset+rowLen])
	}
	return ret, nil
}

// Validate checks the buffer layout invariants.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidDimensions)
	}
	if b.Channels != RGBAChannels {
		return fmt.Errorf("%w: %d channels, want %d", ErrUnsupportedFormat, b.Channels, RGBAChannels)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Width, b.Height)
	}
	if b.Width > math.MaxInt/RGBAChannels/b.Height {
		return fmt.Errorf("%w: %dx%d overflows the pixel count", ErrInvalidDimensions, b.Width, b.Height)
	}
	if expect := b.Width * b.Height * RGBAChannels; len(b.Pix) != expect {
		return fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrInvalidDimensions, b.Width, b.Height, expect, len(b.Pix))
	}
	return nil
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	ret := *b
	ret.Pix = make([]uint8, len(b.Pix))
	copy(ret.Pix, b.Pix)
	return &ret
}

// At returns the colour of a single pixel; out of bounds reads are
// transparent black.
func (b *Buffer) At(x, y int) color.NRGBA {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return color.NRGBA{}
	}
	i := (y*b.Width + x) * RGBAChannels
	return color.NRGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// Set sets the colour of a single pixel; out of bounds writes are ignored.
func (b *Buffer) Set(x, y int, c color.NRGBA) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	i := (y*b.Width + x) * RGBAChannels
	b.Pix[i+0] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = c.A
}

// Image returns an NRGBA view sharing the buffer's pixels.
func (b *Buffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * RGBAChannels,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}
