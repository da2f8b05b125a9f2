package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// MaxPixels caps width*height of any raster image the service decodes. A
// decoded image costs four bytes per pixel regardless of its upload size.
const MaxPixels = 100_000_000

// ErrTooManyPixels reports an image whose dimensions exceed MaxPixels.
var ErrTooManyPixels = errors.New("image dimensions too large")

// CheckPixels reads only the image header. Data that is not a JPEG, PNG or
// GIF passes, since it is never decoded.
func CheckPixels(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return checkConfig(cfg)
}

func checkConfig(cfg image.Config) error {
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d megapixels", ErrTooManyPixels, cfg.Width, cfg.Height, MaxPixels/1_000_000)
	}
	return nil
}

// Optimizer downscales oversized raster images before they are stored.
type Optimizer struct {
	MaxDimension int
	JPEGQuality  int
}

// Optimize returns data unchanged (changed=false) when it is not a decodable
// JPEG or PNG, when it is a GIF, or when it already fits within
// MaxDimension. GIFs are kept as uploaded because re-encoding keeps only
// the first frame. Images over MaxPixels fail with ErrTooManyPixels before
// any pixel data is decoded.
func (o *Optimizer) Optimize(data []byte) (out []byte, changed bool, err error) {
	if o == nil || o.MaxDimension <= 0 {
		return data, false, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// webp and friends are stored as uploaded.
		return data, false, nil
	}
	if err := checkConfig(cfg); err != nil {
		return nil, false, err
	}
	if format == "gif" {
		return data, false, nil
	}
	if cfg.Width <= o.MaxDimension && cfg.Height <= o.MaxDimension {
		return data, false, nil
	}

	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return data, false, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}
	resized := imaging.Fit(img, o.MaxDimension, o.MaxDimension, imaging.Lanczos)

	quality := o.JPEGQuality
	if quality <= 0 {
		quality = 85
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, f, imaging.JPEGQuality(quality)); err != nil {
		return nil, false, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), true, nil
}
