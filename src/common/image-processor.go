package common

// PNG to WebP conversion
//
// The source is decoded, normalised to NRGBA according to its color mode and
// written as a lossy WebP sibling. The source file is never modified.

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// ColorMode classifies a decoded image by how it must be prepared for encoding
type ColorMode int

const (
	// ModeAlpha images carry an alpha channel that is preserved
	ModeAlpha ColorMode = iota
	// ModeOpaque images are plain color or grayscale and are encoded as-is
	ModeOpaque
	// ModeOther images (paletted, CMYK, YCbCr...) are coerced to opaque color
	ModeOther
)

func (m ColorMode) String() string {
	switch m {
	case ModeAlpha:
		return "alpha"
	case ModeOpaque:
		return "opaque"
	default:
		return "other"
	}
}

// DetectColorMode returns the color mode of a decoded image
func DetectColorMode(img image.Image) ColorMode {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64:
		return ModeAlpha
	case *image.RGBA, *image.RGBA64, *image.Gray, *image.Gray16:
		return ModeOpaque
	default:
		return ModeOther
	}
}

// WebPOptions holds the lossy encoder settings
type WebPOptions struct {
	Quality int
	Method  int
}

// ConversionResult describes a finished conversion
type ConversionResult struct {
	Source     string
	Output     string
	Mode       ColorMode
	SourceSize int64
	OutputSize int64
}

// Reduction returns the size reduction in percent
func (r ConversionResult) Reduction() float64 {
	if r.SourceSize == 0 {
		return 0
	}
	return float64(r.SourceSize-r.OutputSize) / float64(r.SourceSize) * 100
}

// ConvertToWebP writes the WebP counterpart of src and returns its sizes
func ConvertToWebP(src string, opts WebPOptions) (*ConversionResult, error) {
	img, err := imaging.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	mode := DetectColorMode(img)
	prepared := prepareImage(img, mode)

	dst := WebPCounterpart(src)
	if err := encodeWebP(dst, prepared, opts); err != nil {
		return nil, err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output: %w", err)
	}

	return &ConversionResult{
		Source:     src,
		Output:     dst,
		Mode:       mode,
		SourceSize: srcInfo.Size(),
		OutputSize: dstInfo.Size(),
	}, nil
}

// prepareImage returns an NRGBA copy suitable for the encoder
func prepareImage(img image.Image, mode ColorMode) *image.NRGBA {
	nrgba := imaging.Clone(img)
	if mode == ModeOther {
		// Drop alpha, keep the color channels
		for i := 3; i < len(nrgba.Pix); i += 4 {
			nrgba.Pix[i] = 0xff
		}
	}
	return nrgba
}

func encodeWebP(dst string, img image.Image, opts WebPOptions) (err error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(opts.Quality))
	if err != nil {
		return fmt.Errorf("failed to build encoder options: %w", err)
	}
	options.Method = opts.Method

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
		if err != nil {
			// A failed encode must not leave a counterpart behind
			err = errors.Join(err, removeIfExists(dst))
		}
	}()

	if err := webp.Encode(f, img, options); err != nil {
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
