package main

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	// Register decoders.
	_ "image/gif"

	_ "golang.org/x/image/webp"

	"github.com/gogpu/matconv"
)

var encoders = map[string]func(io.Writer, image.Image) error{
	"png":  png.Encode,
	"jpeg": func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, &jpeg.Options{Quality: 90}) },
	"bmp":  bmp.Encode,
	"tiff": func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate}) },
}

// convertFile runs one image through upload, crop, resize and download.
func convertFile(conv *matconv.Converter, rt matconv.Runtime, q matconv.Queue, cfg config, path string, t *totals) error {
	src, err := decodeFile(path)
	if err != nil {
		return err
	}
	out, err := transform(conv, rt, q, cfg, toNRGBA(src))
	if err != nil {
		return err
	}

	name := outputPath(cfg.outDir, path, cfg.format)
	n, err := encodeFile(name, cfg.format, out)
	if err != nil {
		return err
	}
	t.images.Add(1)
	t.pixels.Add(int64(out.Rect.Dx() * out.Rect.Dy()))
	t.bytes.Add(n)
	return nil
}

// transform uploads img, applies cfg's crop and resize on the device and
// downloads the result. Kernels run asynchronously, so every device Mat
// stays alive until the queue has drained.
func transform(conv *matconv.Converter, rt matconv.Runtime, q matconv.Queue, cfg config, img *image.NRGBA) (*image.NRGBA, error) {
	var mats []*matconv.Mat
	defer func() {
		if err := q.Finish(); err != nil {
			matconv.Logger().Warn("matconv: finish before release", "err", err)
		}
		for _, m := range mats {
			m.Release()
		}
	}()
	alloc := func(w, h int) (*matconv.Mat, error) {
		m, err := matconv.AllocDeviceMat(rt, matconv.N8UC4, rgbaDims(w, h))
		if err != nil {
			return nil, err
		}
		mats = append(mats, m)
		return m, nil
	}

	host, err := matconv.NewHostMat(matconv.N8UC4, rgbaDims(img.Rect.Dx(), img.Rect.Dy()), img.Pix)
	if err != nil {
		return nil, err
	}
	cur, err := alloc(img.Rect.Dx(), img.Rect.Dy())
	if err != nil {
		return nil, err
	}
	if err := conv.Copy(host, cur, q); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	if cfg.crop != nil {
		next, err := alloc(cfg.crop.Width, cfg.crop.Height)
		if err != nil {
			return nil, err
		}
		if err := conv.Crop(cur, next, *cfg.crop, q); err != nil {
			return nil, fmt.Errorf("crop: %w", err)
		}
		cur = next
	}

	if cfg.resize != nil {
		next, err := alloc(cfg.resize[0], cfg.resize[1])
		if err != nil {
			return nil, err
		}
		if err := conv.Resize(cur, next, matconv.ResizeParam{}, q); err != nil {
			return nil, fmt.Errorf("resize: %w", err)
		}
		cur = next
	}

	out := image.NewNRGBA(image.Rect(0, 0, cur.Width(), cur.Height()))
	dst, err := matconv.NewHostMat(matconv.N8UC4, cur.Dims(), out.Pix)
	if err != nil {
		return nil, err
	}
	if err := conv.Copy(cur, dst, q); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return out, nil
}

func rgbaDims(w, h int) matconv.Dims {
	return matconv.Dims{Batch: 1, Channel: 4, Height: h, Width: w}
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// toNRGBA returns img as a tightly packed NRGBA image with origin (0, 0).
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func encodeFile(name, format string, img image.Image) (int64, error) {
	f, err := os.Create(name)
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: f}
	encErr := encoders[format](cw, img)
	closeErr := f.Close()
	if err := errors.Join(encErr, closeErr); err != nil {
		return 0, fmt.Errorf("encode %s: %w", name, err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// outputPath places the base name of in under dir with format's extension.
func outputPath(dir, in, format string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	ext := format
	if format == "jpeg" {
		ext = "jpg"
	}
	return filepath.Join(dir, base+"."+ext)
}

// parseSize parses "WxH".
func parseSize(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q is not WxH", s)
	}
	if w, err = strconv.Atoi(ws); err != nil {
		return 0, 0, fmt.Errorf("size %q: width: %w", s, err)
	}
	if h, err = strconv.Atoi(hs); err != nil {
		return 0, 0, fmt.Errorf("size %q: height: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", s)
	}
	return w, h, nil
}

// parseRect parses "x,y,w,h".
func parseRect(s string) (matconv.CropParam, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return matconv.CropParam{}, fmt.Errorf("rectangle %q is not x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return matconv.CropParam{}, fmt.Errorf("rectangle %q: %w", s, err)
		}
		v[i] = n
	}
	if v[0] < 0 || v[1] < 0 || v[2] <= 0 || v[3] <= 0 {
		return matconv.CropParam{}, fmt.Errorf("rectangle %q has a negative origin or empty size", s)
	}
	return matconv.CropParam{TopLeftX: v[0], TopLeftY: v[1], Width: v[2], Height: v[3]}, nil
}
