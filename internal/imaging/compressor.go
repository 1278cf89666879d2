package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"sync"

	"golang.org/x/image/draw"
)

const (
	DefaultMaxSide     = 1024
	DefaultQuality     = 72
	DefaultMaxSource   = 2 << 20
	DefaultMaxPixels   = 40_000_000
	compressedMIMEType = "image/jpeg"
)

var (
	ErrClosed      = errors.New("imaging: compressor closed")
	ErrTooLarge    = errors.New("imaging: source image too large")
	ErrUnsupported = errors.New("imaging: unsupported image")
)

type result struct {
	data []byte
	err  error
}

// request is a one-shot message: the worker answers exactly once on reply.
type request struct {
	data  []byte
	reply chan<- result
}

// Compressor downsizes avatars on a single background goroutine so decoding
// large images never runs on request goroutines concurrently.
type Compressor struct {
	MaxSide   int
	Quality   int
	MaxSource int
	// MaxPixels bounds the decoded size; small files can declare huge images.
	MaxPixels int

	reqs      chan request
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewCompressor starts the worker. Call Close to stop it.
func NewCompressor() *Compressor {
	c := &Compressor{
		MaxSide:   DefaultMaxSide,
		Quality:   DefaultQuality,
		MaxSource: DefaultMaxSource,
		MaxPixels: DefaultMaxPixels,
		reqs:      make(chan request),
		done:      make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Compressor) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case req := <-c.reqs:
			data, err := c.compress(req.data)
			req.reply <- result{data: data, err: err}
		}
	}
}

// Close terminates the worker and waits for it to exit. Safe to call twice.
func (c *Compressor) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

// Compress returns src re-encoded as JPEG with its longest side capped at
// MaxSide.
func (c *Compressor) Compress(ctx context.Context, src []byte) ([]byte, error) {
	if len(src) > c.MaxSource {
		return nil, ErrTooLarge
	}
	select {
	case <-c.done:
		return nil, ErrClosed
	default:
	}

	reply := make(chan result, 1)
	select {
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case c.reqs <- request{data: src, reply: reply}:
	}

	select {
	case res := <-reply:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CompressOrOriginal falls back to the untouched input when compression
// fails for any reason.
func (c *Compressor) CompressOrOriginal(ctx context.Context, src []byte, contentType string) ([]byte, string) {
	out, err := c.Compress(ctx, src)
	if err != nil {
		log.Printf("⚠️ avatar compression skipped: %v", err)
		return src, contentType
	}
	return out, compressedMIMEType
}

func (c *Compressor) compress(src []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if c.MaxPixels > 0 && cfg.Width*cfg.Height > c.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), c.MaxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; flatten onto white first.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: c.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fit(w, h, maxSide int) (int, int) {
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}
