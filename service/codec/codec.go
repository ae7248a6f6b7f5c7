// Package codec converts between encoded image files and bleed buffers.
package codec

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"path"
	"strings"

	"github.com/rbxxaxa/chipng/bleed"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnknownFormat is returned for names or extensions no codec handles.
	ErrUnknownFormat = errors.New("codec: unknown format")
	// ErrDecode wraps any failure to read an image.
	ErrDecode = errors.New("codec: decode failed")
	// ErrEncode wraps any failure to write an image.
	ErrEncode = errors.New("codec: encode failed")
)

// Format identifies an image file format.
type Format string

const (
	PNG  Format = "png"
	TIFF Format = "tiff"
	BMP  Format = "bmp"
	WebP Format = "webp"
)

var extensions = map[string]Format{
	".png":  PNG,
	".tif":  TIFF,
	".tiff": TIFF,
	".bmp":  BMP,
	".webp": WebP,
}

// ParseFormat resolves a format name such as "png" or "TIFF".
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	if name == "tif" {
		return TIFF, nil
	}
	switch f := Format(name); f {
	case PNG, TIFF, BMP, WebP:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatOf returns the format implied by a file name's extension.
func FormatOf(name string) (Format, error) {
	ext := strings.ToLower(path.Ext(name))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// IsImage reports whether the name has an extension the codec reads.
func IsImage(name string) bool {
	_, err := FormatOf(name)
	return err == nil
}

// Extension returns the canonical file extension, with the leading dot.
func (f Format) Extension() string {
	if f == TIFF {
		return ".tiff"
	}
	return "." + string(f)
}

// ContentType returns the MIME type.
func (f Format) ContentType() string {
	return "image/" + string(f)
}

// CanEncode reports whether Encode supports the format.
func (f Format) CanEncode() bool {
	return f == PNG || f == TIFF || f == BMP
}

// Decode reads any supported image and returns it as an RGBA buffer along
// with the detected format.
func Decode(r io.Reader) (*bleed.Buffer, Format, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	buf, err := bleed.FromImage(toNRGBA(img))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return buf, Format(name), nil
}

// Encode writes buf in the given format. Samples are written as straight
// RGBA so alpha survives unchanged.
func Encode(w io.Writer, buf *bleed.Buffer, format Format) error {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	img := buf.Image()
	var err error
	switch format {
	case PNG:
		err = png.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case BMP:
		err = bmp.Encode(w, img)
	case WebP:
		return fmt.Errorf("%w: webp is read-only", ErrEncode)
	default:
		return fmt.Errorf("%w: %w %q", ErrEncode, ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

// toNRGBA converts any colour model to straight RGBA; fully opaque and fully
// transparent pixels convert exactly.
func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}
