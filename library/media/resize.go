package media

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/Laisky/errors/v2"
	"golang.org/x/image/draw"
)

const jpegQuality = 85

// maxPixels bounds the decoded size, larger images pass through unscaled
var maxPixels int64 = 50_000_000

// ResizingUploader scales down JPEG and PNG images wider than MaxWidth
// before handing them to the next uploader. Other files pass through untouched.
type ResizingUploader struct {
	next     Uploader
	maxWidth int
}

// NewResizingUploader wraps next. maxWidth <= 0 returns next unchanged.
func NewResizingUploader(next Uploader, maxWidth int) Uploader {
	if maxWidth <= 0 {
		return next
	}

	return &ResizingUploader{
		next:     next,
		maxWidth: maxWidth,
	}
}

// Upload resizes when needed and delegates
func (r *ResizingUploader) Upload(ctx context.Context, file File) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", errors.Wrapf(err, "open file %q", file.Filename)
	}
	data, err := io.ReadAll(src)
	_ = src.Close()
	if err != nil {
		return "", errors.Wrapf(err, "read file %q", file.Filename)
	}

	out := FromBytes(file.Filename, file.ContentType, data)
	if resized, ok := r.scale(data); ok {
		out = FromBytes(file.Filename, file.ContentType, resized)
	}

	return r.next.Upload(ctx, out)
}

// scale returns false when data is not a decodable JPEG/PNG, already narrow enough
// or declares more than maxPixels
func (r *ResizingUploader) scale(data []byte) ([]byte, bool) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= r.maxWidth {
		return nil, false
	}
	if format != "jpeg" && format != "png" {
		return nil, false
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, false
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}

	bounds := img.Bounds()
	newH := bounds.Dy() * r.maxWidth / bounds.Dx()
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, false
	}

	return buf.Bytes(), true
}
