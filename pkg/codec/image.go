package codec

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/galdor/go-thumbhash"
	"github.com/gen2brain/webp"
	_ "golang.org/x/image/webp"
)

const placeholderPrefix = "data:image/webp;base64,"

type ImageOptions struct {
	PlaceholderWidth   int
	PlaceholderQuality int
	ThumbhashBox       int
}

func DefaultImageOptions() ImageOptions {
	return ImageOptions{PlaceholderWidth: 20, PlaceholderQuality: 20, ThumbhashBox: 100}
}

// ImageProcessor implements ImageCodec with imaging, webp and thumbhash.
type ImageProcessor struct {
	opts ImageOptions
}

func NewImageProcessor(opts ImageOptions) *ImageProcessor {
	def := DefaultImageOptions()
	if opts.PlaceholderWidth <= 0 {
		opts.PlaceholderWidth = def.PlaceholderWidth
	}
	if opts.PlaceholderQuality <= 0 {
		opts.PlaceholderQuality = def.PlaceholderQuality
	}
	if opts.ThumbhashBox <= 0 {
		opts.ThumbhashBox = def.ThumbhashBox
	}
	return &ImageProcessor{opts: opts}
}

func (p *ImageProcessor) TranscodeImage(ctx context.Context, data []byte, quality int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return encodeWebp(img, quality)
}

func (p *ImageProcessor) DerivePlaceholder(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, err := decode(data)
	if err != nil {
		return "", err
	}
	// Never upscale: sources already narrower than the placeholder keep their size.
	small := img
	if img.Bounds().Dx() > p.opts.PlaceholderWidth {
		small = imaging.Resize(img, p.opts.PlaceholderWidth, 0, imaging.Lanczos)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := encodeWebp(small, p.opts.PlaceholderQuality)
	if err != nil {
		return "", err
	}
	return placeholderPrefix + base64.StdEncoding.EncodeToString(out), nil
}

func (p *ImageProcessor) DerivePerceptualHash(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, err := decode(data)
	if err != nil {
		return "", err
	}
	// imaging always returns NRGBA, so the hash sees an alpha channel even for jpegs.
	box := imaging.Fit(img, p.opts.ThumbhashBox, p.opts.ThumbhashBox, imaging.Lanczos)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(thumbhash.EncodeImage(box)), nil
}

func decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func encodeWebp(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: quality, Method: 4}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
