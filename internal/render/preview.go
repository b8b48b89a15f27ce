// Package render draws a raster preview of an outline artifact.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/woozymasta/borderline/internal/geo"
	"github.com/woozymasta/borderline/internal/outline"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Options controls the preview canvas.
type Options struct {
	Size        int     // output width and height in pixels
	Stroke      float64 // line width in output pixels
	Padding     int     // empty border in output pixels
	Supersample int     // render scale before downsampling
	Tolerance   float64 // Douglas-Peucker tolerance in degrees, 0 = off
}

// DefaultOptions returns a 512px canvas with a 2px line.
func DefaultOptions() Options {
	return Options{Size: 512, Stroke: 2, Padding: 16, Supersample: 2}
}

var (
	background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	lineColor  = color.RGBA{R: 0x1f, G: 0x4e, B: 0x8c, A: 0xff}
	warnColor  = color.RGBA{R: 0xd9, G: 0x53, B: 0x1e, A: 0xff}
)

// Preview draws the artifact path fitted into a square canvas. The longitude
// axis is scaled by cos(mean latitude) so shapes keep their aspect.
// Degenerate outlines use a warning colour; an empty path gives a blank canvas.
func Preview(a outline.Artifact, opts Options) *image.RGBA {
	opts = normalize(opts)

	ss := opts.Supersample
	big := image.NewRGBA(image.Rect(0, 0, opts.Size*ss, opts.Size*ss))
	draw.Draw(big, big.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	ls := a.Simplified(opts.Tolerance)
	if len(ls) > 0 {
		stroke := lineColor
		if a.IsDegenerate {
			stroke = warnColor
		}
		pts := project(ls, opts.Size*ss, opts.Padding*ss)
		z := vector.NewRasterizer(big.Bounds().Dx(), big.Bounds().Dy())
		half := float32(opts.Stroke*float64(ss)) / 2
		for i := 1; i < len(pts); i++ {
			segment(z, pts[i-1], pts[i], half)
		}
		for _, p := range pts {
			dot(z, p, half*1.5)
		}
		z.Draw(big, big.Bounds(), image.NewUniform(stroke), image.Point{})
	}

	if ss == 1 {
		return big
	}
	out := image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	xdraw.CatmullRom.Scale(out, out.Bounds(), big, big.Bounds(), draw.Src, nil)
	return out
}

// EncodeWebP writes img as lossy WebP.
func EncodeWebP(w io.Writer, img image.Image, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: float32(quality)})
}

func normalize(o Options) Options {
	d := DefaultOptions()
	if o.Size <= 0 {
		o.Size = d.Size
	}
	if o.Stroke <= 0 {
		o.Stroke = d.Stroke
	}
	if o.Padding < 0 || o.Padding*2 >= o.Size {
		o.Padding = 0
	}
	if o.Supersample <= 0 {
		o.Supersample = d.Supersample
	}
	return o
}

type point struct{ x, y float32 }

// project maps the line into pixel space of a size×size canvas.
func project(ls orb.LineString, size, pad int) []point {
	b := ls.Bound()
	minX, maxY := b.Min.X(), b.Max.Y()

	kx := math.Cos(geo.MeanLatitude(geo.FromLineString(ls)) * math.Pi / 180)
	w, h := (b.Max.X()-minX)*kx, maxY-b.Min.Y()
	extent := math.Max(w, h)
	if extent == 0 {
		extent = 1
	}

	inner := float64(size - 2*pad)
	scale := inner / extent
	offX := float64(pad) + (inner-w*scale)/2
	offY := float64(pad) + (inner-h*scale)/2

	out := make([]point, len(ls))
	for i, p := range ls {
		out[i] = point{
			x: float32(offX + (p.X()-minX)*kx*scale),
			y: float32(offY + (maxY-p.Y())*scale),
		}
	}
	return out
}

// segment adds a quad of half-width half around a→b.
func segment(z *vector.Rasterizer, a, b point, half float32) {
	dx, dy := b.x-a.x, b.y-a.y
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*half, dx/l*half

	z.MoveTo(a.x+nx, a.y+ny)
	z.LineTo(b.x+nx, b.y+ny)
	z.LineTo(b.x-nx, b.y-ny)
	z.LineTo(a.x-nx, a.y-ny)
	z.ClosePath()
}

// dot adds a square of half-width r centred on p, wound like segment so
// overlaps accumulate instead of cancelling.
func dot(z *vector.Rasterizer, p point, r float32) {
	z.MoveTo(p.x-r, p.y-r)
	z.LineTo(p.x-r, p.y+r)
	z.LineTo(p.x+r, p.y+r)
	z.LineTo(p.x+r, p.y-r)
	z.ClosePath()
}
