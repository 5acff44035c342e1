// Command matconv crops and resizes images on the GPU.
//
// Each input is decoded, uploaded as an N8UC4 Mat, optionally cropped and
// resized on the device, copied back and encoded into the output
// directory:
//
//	matconv -crop 10,20,300,200 -resize 150x100 -out thumbs photo.jpg scan.tiff
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/matconv"
	"github.com/gogpu/matconv/backend"

	// Register the GPU runtime.
	_ "github.com/gogpu/matconv/backend/webgpu"
)

type config struct {
	outDir string
	format string
	crop   *matconv.CropParam
	resize *[2]int // width, height
}

type totals struct {
	images atomic.Int64
	pixels atomic.Int64
	bytes  atomic.Int64
}

func main() {
	var (
		outDir   = flag.String("out", "out", "output directory")
		format   = flag.String("format", "png", "output format: png, jpeg, bmp or tiff")
		resize   = flag.String("resize", "", "resize to `WxH` after cropping")
		crop     = flag.String("crop", "", "crop rectangle `x,y,w,h`")
		workers  = flag.Int("workers", runtime.NumCPU(), "number of concurrent conversions")
		backName = flag.String("backend", "", "device backend (default: best available)")
		verbose  = flag.Bool("v", false, "log kernel compilation and dispatches")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: matconv [flags] image...")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *verbose {
		matconv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := config{outDir: *outDir, format: strings.ToLower(*format)}
	if _, ok := encoders[cfg.format]; !ok {
		log.Fatalf("unknown format %q", *format)
	}
	if *crop != "" {
		p, err := parseRect(*crop)
		if err != nil {
			log.Fatalf("-crop: %v", err)
		}
		cfg.crop = &p
	}
	if *resize != "" {
		w, h, err := parseSize(*resize)
		if err != nil {
			log.Fatalf("-resize: %v", err)
		}
		cfg.resize = &[2]int{w, h}
	}
	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	dev, err := openDevice(*backName)
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer func() { _ = dev.Close() }()
	log.Printf("Using %s", dev.Name())

	var t totals
	if err := run(context.Background(), dev, cfg, flag.Args(), max(*workers, 1), &t); err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}

	p := message.NewPrinter(language.English)
	p.Printf("Converted %d images (%d pixels, %d bytes written) into %s\n",
		t.images.Load(), t.pixels.Load(), t.bytes.Load(), cfg.outDir)
}

func openDevice(name string) (backend.Device, error) {
	if name == "" {
		return backend.OpenDefault()
	}
	return backend.Open(name)
}

// run converts paths with a pool of workers. Each worker owns a Converter
// and a queue on the shared device.
func run(ctx context.Context, dev backend.Device, cfg config, paths []string, workers int, t *totals) error {
	g, ctx := errgroup.WithContext(ctx)

	jobs := make(chan string)
	g.Go(func() error {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for range min(workers, len(paths)) {
		g.Go(func() error {
			conv, err := matconv.NewConverter(dev)
			if err != nil {
				return err
			}
			defer func() { _ = conv.Close() }()
			q := dev.NewQueue()

			for path := range jobs {
				if err := convertFile(conv, dev, q, cfg, path, t); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
