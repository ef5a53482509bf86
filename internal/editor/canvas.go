package editor

import (
	"context"
	"image"
	"log"
	"math"
	"sync"

	"designer/internal/domain"
	"designer/internal/render"
)

// Frame is one rendered view of a session.
type Frame struct {
	Seq     uint64
	Version uint64
	Image   *image.RGBA
}

// Canvas renders a session in the background. Invalidations are coalesced:
// however many arrive while a frame is being painted, only one more frame is
// painted, from the state current at that time.
type Canvas struct {
	session  *Session
	renderer *render.Renderer
	images   *render.ImageCache
	wake     chan struct{}

	mu      sync.Mutex
	view    render.ViewState
	last    Frame
	seq     uint64
	onFrame []func(Frame)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCanvas attaches a canvas and its image cache to session. Call Start to
// begin painting and Close to release both.
func NewCanvas(session *Session, loader *render.Loader) *Canvas {
	c := &Canvas{
		session: session,
		wake:    make(chan struct{}, 1),
		view:    render.DefaultViewState(),
	}
	c.images = render.NewImageCache(loader, func(string) { c.Invalidate() })
	c.renderer = render.NewRenderer(c.images)
	session.SetImageCache(c.images)
	session.OnChange(c.Invalidate)
	return c
}

// Images exposes the canvas image cache.
func (c *Canvas) Images() *render.ImageCache { return c.images }

// OnFrame registers fn to receive every painted frame.
func (c *Canvas) OnFrame(fn func(Frame)) {
	c.mu.Lock()
	c.onFrame = append(c.onFrame, fn)
	c.mu.Unlock()
}

func (c *Canvas) View() render.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Canvas) SetView(v render.ViewState) {
	if v.Zoom <= 0 {
		v.Zoom = 1
	}
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
	c.Invalidate()
}

// Invalidate requests a repaint. It never blocks.
func (c *Canvas) Invalidate() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Start runs the paint loop until ctx is cancelled or Close is called.
func (c *Canvas) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		cancel()
		return
	}
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.wake:
				c.paintSafe()
			}
		}
	}()
	c.Invalidate()
}

func (c *Canvas) paintSafe() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[CANVAS] paint failed: %v", r)
		}
	}()
	c.Paint()
}

// Paint renders the current state synchronously and publishes the frame.
// Frames beyond the canvas pixel budget are painted at a reduced zoom.
func (c *Canvas) Paint() Frame {
	sc, version := c.session.Snapshot()
	sel := c.session.SelectionSet()
	view := c.View()
	view.Zoom = FitZoom(sc.CanvasSize, view.Zoom)

	w := int(math.Ceil(sc.CanvasSize.Width * view.Zoom))
	h := int(math.Ceil(sc.CanvasSize.Height * view.Zoom))
	surface := render.NewGGSurface(w, h)
	c.renderer.Render(surface, sc, sel, view)

	c.mu.Lock()
	c.seq++
	f := Frame{Seq: c.seq, Version: version, Image: surface.Image()}
	c.last = f
	listeners := append([]func(Frame){}, c.onFrame...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(f)
	}
	return f
}

// FitZoom returns zoom, reduced so that size painted at it stays within
// domain.MaxCanvasSide per side and domain.MaxCanvasPixels overall.
func FitZoom(size domain.Size, zoom float64) float64 {
	if !(zoom > 0) || math.IsInf(zoom, 0) {
		zoom = 1
	}
	w, h := size.Width, size.Height
	if !(w > 0) || !(h > 0) {
		return zoom
	}
	if m := math.Max(w, h) * zoom; m > domain.MaxCanvasSide {
		zoom *= domain.MaxCanvasSide / m
	}
	if px := w * h * zoom * zoom; px > domain.MaxCanvasPixels {
		zoom *= math.Sqrt(domain.MaxCanvasPixels / px)
	}
	return zoom
}

// Last returns the most recently painted frame; Seq is zero before the
// first paint.
func (c *Canvas) Last() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Close stops the paint loop and the image cache.
func (c *Canvas) Close() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	c.images.Close()
	log.Printf("[CANVAS] closed")
}
