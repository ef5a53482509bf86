package export

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"designer/internal/domain"
	"designer/internal/render"
)

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	SVG  Format = "svg"
)

// ParseFormat accepts png, jpeg/jpg and svg, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png", "":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "svg":
		return SVG, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, s)
}

func (f Format) Ext() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

func (f Format) MIME() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case SVG:
		return "image/svg+xml"
	}
	return "image/png"
}

const (
	DefaultScale   = 2.0
	DefaultQuality = 90
	PreviewScale   = 0.5

	// maxPixels caps raster output at roughly a 16k x 8k image.
	maxPixels = domain.MaxCanvasPixels
)

type Options struct {
	Format            Format
	Scale             float64
	Quality           int // JPEG only, 1..100
	IncludeBackground bool
	Name              string
}

func DefaultOptions() Options {
	return Options{Format: PNG, Scale: DefaultScale, Quality: DefaultQuality, IncludeBackground: true}
}

func (o Options) normalized() (Options, error) {
	if o.Format == "" {
		o.Format = PNG
	}
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return o, err
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 || math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		return o, fmt.Errorf("scale %v: %w", o.Scale, domain.ErrInvalidInput)
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o, nil
}

// Size returns the output dimensions of scene at scale.
func Size(scene *domain.Scene, scale float64) (int, int) {
	return int(math.Round(scene.CanvasSize.Width * scale)), int(math.Round(scene.CanvasSize.Height * scale))
}

// Result is a finished export, ready to be served or written to disk.
type Result struct {
	Filename string
	MIME     string
	Data     []byte
	Width    int
	Height   int
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename builds "{name}.{ext}" from a design name.
func Filename(name string, f Format) string {
	base := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(name), "-"), "-.")
	if base == "" {
		base = "design"
	}
	return base + "." + f.Ext()
}

// Save writes the result into dir under its filename. The data goes to a
// temporary file first and is renamed into place, so a failed write never
// leaves a partial file behind.
func (r *Result) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(r.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	dst := filepath.Join(dir, r.Filename)
	if err := os.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("move export into place: %w", err)
	}
	return dst, nil
}

// Exporter turns scenes into files. Image elements are resolved through
// loader before painting.
type Exporter struct {
	loader   *render.Loader
	renderer *render.Renderer
}

func New(loader *render.Loader) *Exporter {
	return &Exporter{loader: loader, renderer: render.NewRenderer(nil)}
}

// Export renders scene in the requested format. The scene is never mutated.
func (e *Exporter) Export(ctx context.Context, scene *domain.Scene, opts Options) (*Result, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Format == SVG {
		data := RenderSVG(scene, opts)
		w, h := Size(scene, opts.Scale)
		return &Result{
			Filename: Filename(opts.Name, SVG),
			MIME:     SVG.MIME(),
			Data:     data,
			Width:    w,
			Height:   h,
		}, nil
	}
	img, err := e.Raster(ctx, scene, opts)
	if err != nil {
		return nil, err
	}
	data, err := encode(img, opts)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Result{
		Filename: Filename(opts.Name, opts.Format),
		MIME:     opts.Format.MIME(),
		Data:     data,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// Preview renders a half-scale PNG of scene.
func (e *Exporter) Preview(ctx context.Context, scene *domain.Scene) (*Result, error) {
	return e.Export(ctx, scene, Options{
		Format:            PNG,
		Scale:             PreviewScale,
		IncludeBackground: true,
		Name:              "preview",
	})
}
