package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"designer/internal/domain"
	"designer/internal/render"
)

// Raster paints scene at opts.Scale into an image of exactly
// round(canvas*scale) pixels. Selection and grid are never painted.
func (e *Exporter) Raster(ctx context.Context, scene *domain.Scene, opts Options) (*image.RGBA, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	w, h := Size(scene, opts.Scale)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty canvas %vx%v at scale %v", scene.CanvasSize.Width, scene.CanvasSize.Height, opts.Scale)
	}
	if w > maxPixels || h > maxPixels || w*h > maxPixels {
		return nil, fmt.Errorf("export of %dx%d pixels is too large", w, h)
	}

	var images render.ImageSource = render.StaticImages{}
	if e.loader != nil {
		images = render.Resolve(ctx, e.loader, scene.Elements)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	surface := render.NewGGSurface(w, h)
	r := *e.renderer
	r.Images = images
	r.PaintScene(surface, scene, opts.Scale, opts.IncludeBackground)
	return surface.Image(), nil
}

func encode(img *image.RGBA, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	switch opts.Format {
	case JPEG:
		// JPEG has no alpha channel; transparent areas become white.
		flat := image.NewRGBA(img.Bounds())
		draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: opts.Quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case PNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, opts.Format)
	}
	return buf.Bytes(), nil
}
