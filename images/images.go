// Package images decodes the signature asset sent by the editor.
//
// The asset is a single PNG or JPEG image carried as a string, either a
// data URL ("data:image/png;base64,...") or bare base64. It is shared by
// every signature field of a submission.
package images

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

// Supported formats, as reported in Image.Format.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

var (
	// ErrEmpty is returned when the asset carries no bytes.
	ErrEmpty = errors.New("empty image data")
	// ErrUnsupportedFormat is returned when the bytes are neither PNG nor JPEG.
	ErrUnsupportedFormat = errors.New("image is neither PNG nor JPEG")
	// ErrTooLarge is returned when the header declares more pixels than
	// Limits.MaxPixels allows.
	ErrTooLarge = errors.New("image dimensions exceed the pixel limit")
)

// DefaultMaxPixels is the pixel budget used when Limits.MaxPixels is zero.
const DefaultMaxPixels = 4096 * 4096

// Limits bounds the work done for one asset.
type Limits struct {
	// MaxSide bounds the longest side of the bitmap; larger images are
	// downscaled. Zero keeps the original size.
	MaxSide int
	// MaxPixels rejects images whose header declares more pixels, before
	// any pixel buffer is allocated. Zero means DefaultMaxPixels.
	MaxPixels int64
}

func (l Limits) maxPixels() int64 {
	if l.MaxPixels > 0 {
		return l.MaxPixels
	}
	return DefaultMaxPixels
}

// Image is a decoded signature image.
type Image struct {
	Name   string      // Identifier for the image
	Data   []byte      // Encoded bytes as received
	Hash   string      // SHA256 hash of Data for deduplication
	Format string      // FormatPNG or FormatJPEG
	Bitmap image.Image // Decoded pixels, possibly downscaled
	// Scaled is set when Bitmap no longer matches Data.
	Scaled bool
}

// Width returns the pixel width of the bitmap.
func (img *Image) Width() int { return img.Bitmap.Bounds().Dx() }

// Height returns the pixel height of the bitmap.
func (img *Image) Height() int { return img.Bitmap.Bounds().Dy() }

// StripDataURL returns the payload of a data URL. Strings without a comma
// are returned unchanged.
func StripDataURL(s string) string {
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return s
}

// DecodeBase64 decodes standard or URL-safe base64, padded or not, ignoring
// embedded whitespace.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(s, "=")

	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return b, nil
}

// DecodeAsset decodes a signature asset string within limits.
func DecodeAsset(asset string, limits Limits) (*Image, error) {
	data, err := DecodeBase64(StripDataURL(asset))
	if err != nil {
		return nil, err
	}
	return Decode("signature", data, limits)
}

// Decode tries PNG first and falls back to JPEG. The header is read first
// so that oversized images are rejected without decoding their pixels.
func Decode(name string, data []byte, limits Limits) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	format := FormatPNG
	cfg, pngErr := png.DecodeConfig(bytes.NewReader(data))
	if pngErr != nil {
		var jpegErr error
		cfg, jpegErr = jpeg.DecodeConfig(bytes.NewReader(data))
		if jpegErr != nil {
			return nil, fmt.Errorf("%w (png: %v; jpeg: %v)", ErrUnsupportedFormat, pngErr, jpegErr)
		}
		format = FormatJPEG
	}

	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > limits.maxPixels() {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	var (
		bitmap image.Image
		err    error
	)
	if format == FormatPNG {
		bitmap, err = png.Decode(bytes.NewReader(data))
	} else {
		bitmap, err = jpeg.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", format, err)
	}

	h := sha256.Sum256(data)
	img := &Image{
		Name:   name,
		Data:   data,
		Hash:   fmt.Sprintf("%x", h[:]),
		Format: format,
		Bitmap: bitmap,
	}

	if limits.MaxSide > 0 {
		img.downscale(limits.MaxSide)
	}
	return img, nil
}

// downscale shrinks the bitmap so that neither side exceeds maxSide,
// preserving the aspect ratio.
func (img *Image) downscale(maxSide int) {
	b := img.Bitmap.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return
	}

	nw, nh := maxSide, maxSide
	if w >= h {
		nh = max(1, h*maxSide/w)
	} else {
		nw = max(1, w*maxSide/h)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img.Bitmap, b, draw.Src, nil)
	img.Bitmap = dst
	img.Scaled = true
}
