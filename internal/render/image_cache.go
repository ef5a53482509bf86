package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"designer/internal/domain"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// UploadsPrefix is the URL path under which uploaded files are served.
const UploadsPrefix = "/uploads/"

// maxImageBytes bounds remote and data-URI payloads.
const maxImageBytes = 32 << 20

// Loader fetches and decodes image sources: data URIs, paths under
// UploadsPrefix (read from UploadDir) and http(s) URLs.
type Loader struct {
	UploadDir string
	Client    *http.Client
}

func NewLoader(uploadDir string) *Loader {
	return &Loader{
		UploadDir: uploadDir,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	data, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, fmt.Errorf("empty image source")
	case strings.HasPrefix(src, "data:"):
		return decodeDataURI(src)
	case strings.HasPrefix(src, UploadsPrefix):
		p, err := l.uploadPath(src)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(p)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.get(ctx, src)
	}
	return nil, fmt.Errorf("unsupported image source %q", truncate(src, 40))
}

func (l *Loader) uploadPath(src string) (string, error) {
	if l.UploadDir == "" {
		return "", fmt.Errorf("uploads are not configured")
	}
	u, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse upload path: %w", err)
	}
	rel := strings.TrimPrefix(path.Clean(u.Path), UploadsPrefix)
	if rel == "" || strings.HasPrefix(rel, "..") || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("invalid upload path %q", src)
	}
	return filepath.Join(l.UploadDir, filepath.FromSlash(rel)), nil
}

func (l *Loader) get(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch image: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

func decodeDataURI(src string) ([]byte, error) {
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URI")
	}
	meta, payload := src[len("data:"):comma], src[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
		return []byte(s), nil
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes {
		return nil, fmt.Errorf("data URI too large")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ImageSource resolves the bitmap for an image element, reporting false
// while it is not available.
type ImageSource interface {
	Image(id, src string) (image.Image, bool)
}

// StaticImages is a pre-resolved ImageSource keyed by element id.
type StaticImages map[string]image.Image

func (m StaticImages) Image(id, _ string) (image.Image, bool) {
	img, ok := m[id]
	return img, ok && img != nil
}

type cacheEntry struct {
	src      string
	img      image.Image
	err      error
	loading  bool
	failures int
	retryAt  time.Time
}

const (
	// DefaultRetryAfter is the wait before a failed load is retried. It
	// doubles per consecutive failure up to maxRetryAfter.
	DefaultRetryAfter = 2 * time.Second
	maxRetryAfter     = 5 * time.Minute
)

func retryDelay(base time.Duration, failures int) time.Duration {
	d := base
	for i := 1; i < failures && d < maxRetryAfter; i++ {
		d *= 2
	}
	return min(d, maxRetryAfter)
}

// ImageCache maps element ids to decoded bitmaps. Misses start a background
// load and report false; when the load finishes onLoaded is called so the
// owner can re-render. A failed load is retried after a backoff: onLoaded is
// called again once it expires and the next lookup starts a new load. After
// Close no result is stored or delivered.
type ImageCache struct {
	mu       sync.Mutex
	loader   *Loader
	entries  map[string]*cacheEntry
	onLoaded func(id string)
	onError  func(id string, err error)
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool
	wg       sync.WaitGroup

	retryAfter time.Duration
}

func NewImageCache(loader *Loader, onLoaded func(id string)) *ImageCache {
	ctx, cancel := context.WithCancel(context.Background())
	return &ImageCache{
		loader:   loader,
		entries:  map[string]*cacheEntry{},
		onLoaded: onLoaded,
		ctx:      ctx,
		cancel:   cancel,

		retryAfter: DefaultRetryAfter,
	}
}

// SetRetryAfter changes the base backoff for failed loads.
func (c *ImageCache) SetRetryAfter(d time.Duration) {
	c.mu.Lock()
	c.retryAfter = d
	c.mu.Unlock()
}

// OnError registers a callback for failed loads.
func (c *ImageCache) OnError(fn func(id string, err error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

func (c *ImageCache) Image(id, src string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false
	}
	e, ok := c.entries[id]
	if ok && e.src == src {
		if e.img != nil || e.loading || time.Now().Before(e.retryAt) {
			return e.img, e.img != nil
		}
		e.loading = true
	} else {
		e = &cacheEntry{src: src, loading: true}
		c.entries[id] = e
	}
	c.wg.Add(1)
	go c.load(id, e)
	return nil, false
}

func (c *ImageCache) load(id string, e *cacheEntry) {
	defer c.wg.Done()
	img, err := c.loader.Load(c.ctx, e.src)

	c.mu.Lock()
	if c.closed || c.entries[id] != e {
		c.mu.Unlock()
		return
	}
	e.img, e.err, e.loading = img, err, false
	var delay time.Duration
	if err != nil {
		e.failures++
		delay = retryDelay(c.retryAfter, e.failures)
		e.retryAt = time.Now().Add(delay)
	} else {
		e.failures = 0
	}
	onLoaded, onError := c.onLoaded, c.onError
	c.mu.Unlock()

	if err != nil {
		log.Printf("[RENDER] image %s: %v (retry in %s)", id, err, delay)
		if onError != nil {
			onError(id, err)
		}
		if onLoaded != nil {
			time.AfterFunc(delay, func() { c.retryDue(id, e, onLoaded) })
		}
		return
	}
	if onLoaded != nil {
		onLoaded(id)
	}
}

// retryDue asks the owner to re-render once a failed entry may be retried,
// unless it was replaced or the cache closed meanwhile.
func (c *ImageCache) retryDue(id string, e *cacheEntry, onLoaded func(string)) {
	c.mu.Lock()
	current := !c.closed && c.entries[id] == e && e.img == nil && !e.loading
	c.mu.Unlock()
	if current {
		onLoaded(id)
	}
}

// Invalidate drops the bitmap for id; an in-flight load for it is discarded.
func (c *ImageCache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Pending reports how many loads are in flight.
func (c *ImageCache) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.loading {
			n++
		}
	}
	return n
}

// Wait blocks until in-flight loads have finished.
func (c *ImageCache) Wait() { c.wg.Wait() }

// Close cancels in-flight loads and stops delivering results.
func (c *ImageCache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.entries = map[string]*cacheEntry{}
	c.mu.Unlock()
	c.cancel()
}

// Resolve loads every image element synchronously. Failed loads are logged
// and left out, so they paint as placeholders.
func Resolve(ctx context.Context, loader *Loader, elements []domain.Element) StaticImages {
	out := StaticImages{}
	for i := range elements {
		el := &elements[i]
		if el.Type != domain.ElementImage || el.Image == nil || el.Image.Src == "" {
			continue
		}
		img, err := loader.Load(ctx, el.Image.Src)
		if err != nil {
			log.Printf("[RENDER] resolve image %s: %v", el.ID, err)
			continue
		}
		out[el.ID] = img
	}
	return out
}
