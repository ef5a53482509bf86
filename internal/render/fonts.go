package render

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

type faceKey struct {
	variant string
	size    float64
}

// FontBook maps font specs onto the bundled Go fonts and caches faces per
// size. Families it does not know fall back to the proportional sans face.
type FontBook struct {
	mu    sync.Mutex
	fonts map[string]*truetype.Font
	faces map[faceKey]font.Face
}

var (
	defaultBook     *FontBook
	defaultBookOnce sync.Once
)

// DefaultFontBook returns the process-wide font book.
func DefaultFontBook() *FontBook {
	defaultBookOnce.Do(func() {
		b, err := NewFontBook()
		if err != nil {
			panic(err) // bundled fonts always parse
		}
		defaultBook = b
	})
	return defaultBook
}

func NewFontBook() (*FontBook, error) {
	b := &FontBook{fonts: map[string]*truetype.Font{}, faces: map[faceKey]font.Face{}}
	for name, data := range map[string][]byte{
		"regular":    goregular.TTF,
		"bold":       gobold.TTF,
		"italic":     goitalic.TTF,
		"bolditalic": gobolditalic.TTF,
		"mono":       gomono.TTF,
		"mono-bold":  gomonobold.TTF,
	} {
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", name, err)
		}
		b.fonts[name] = f
	}
	return b, nil
}

func variantOf(f FontSpec) string {
	fam := strings.ToLower(f.Family)
	if strings.Contains(fam, "mono") || strings.Contains(fam, "courier") || strings.Contains(fam, "consolas") {
		if f.Bold {
			return "mono-bold"
		}
		return "mono"
	}
	switch {
	case f.Bold && f.Italic:
		return "bolditalic"
	case f.Bold:
		return "bold"
	case f.Italic:
		return "italic"
	}
	return "regular"
}

const (
	// MaxFaceSize caps the pixel size faces are built at. Larger text is
	// rasterised at this size and scaled up by the caller.
	MaxFaceSize = 512.0
	// maxFaces bounds the face cache; an arbitrary entry is evicted beyond it.
	maxFaces = 64
	// glyphCacheBudget bounds the bytes of a face's glyph mask cache.
	glyphCacheBudget = 8 << 20
)

// Use runs fn with a cached face for f while holding the book lock, since
// truetype faces keep an unsynchronised glyph cache. Sizes are quantised to
// quarter points and capped at MaxFaceSize; ratio is the factor the face
// must be scaled by to reach the requested size.
func (b *FontBook) Use(f FontSpec, fn func(face font.Face, ratio float64)) {
	size := math.Round(f.Size*4) / 4
	if size <= 0 || math.IsNaN(size) {
		size = 1
	}
	ratio := 1.0
	if size > MaxFaceSize {
		ratio = size / MaxFaceSize
		size = MaxFaceSize
	}
	key := faceKey{variant: variantOf(f), size: size}

	b.mu.Lock()
	defer b.mu.Unlock()
	face, ok := b.faces[key]
	if !ok {
		if len(b.faces) >= maxFaces {
			for k := range b.faces {
				delete(b.faces, k)
				break
			}
		}
		face = truetype.NewFace(b.fonts[key.variant], &truetype.Options{
			Size:              size,
			DPI:               72,
			Hinting:           font.HintingNone,
			GlyphCacheEntries: glyphCacheEntries(size),
		})
		b.faces[key] = face
	}
	fn(face, ratio)
}

// glyphCacheEntries returns the largest power of two, at most 512, whose
// glyph masks for a face of size px fit glyphCacheBudget.
func glyphCacheEntries(size float64) int {
	glyph := math.Max(1, 2*size*size) // generous bound on one glyph mask
	n := 512
	for n > 1 && float64(n)*glyph > glyphCacheBudget {
		n >>= 1
	}
	return n
}

// Measure returns the advance width of line in pixels.
func (b *FontBook) Measure(line string, f FontSpec) float64 {
	var w float64
	b.Use(f, func(face font.Face, ratio float64) {
		w = float64(font.MeasureString(face, line)) / 64 * ratio
	})
	return w
}
