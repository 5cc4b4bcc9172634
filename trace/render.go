// SPDX-License-Identifier: Unlicense OR MIT

package trace

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/colornames"
	"golang.org/x/image/vector"

	"touchio.org/f32"
)

// Size of the rendered image.
const (
	renderSize   = 512
	renderMargin = 32
	lineWidth    = 2
	dotRadius    = 5
)

// Render draws the contact paths of res as a PNG: one polyline per
// press, ending in a dot colored by the outcome of its tap.
func Render(w io.Writer, res Result) error {
	img, err := Rasterize(res)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Rasterize draws the contact paths of res.
func Rasterize(res Result) (*image.RGBA, error) {
	var pts []f32.Point
	for _, p := range res.Paths {
		pts = append(pts, p.Points...)
	}
	if len(pts) == 0 {
		return nil, errors.New("trace: nothing to render")
	}
	img := image.NewRGBA(image.Rect(0, 0, renderSize, renderSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(colornames.White), image.Point{}, draw.Src)

	t := fit(f32.Bounds(pts...))
	for _, p := range res.Paths {
		col := outcomeColor(p.Outcome)
		for i := 1; i < len(p.Points); i++ {
			fillPath(img, col, segment(t(p.Points[i-1]), t(p.Points[i]), lineWidth))
		}
		fillPath(img, col, circle(t(p.Points[0]), dotRadius/2.0))
		fillPath(img, col, circle(t(p.Points[len(p.Points)-1]), dotRadius))
	}
	return img, nil
}

func outcomeColor(o Outcome) color.RGBA {
	switch o {
	case Completed:
		return colornames.Green
	case Cancelled:
		return colornames.Red
	default:
		return colornames.Gray
	}
}

// fit returns the transformation from script coordinates to image
// pixels, preserving the aspect ratio.
func fit(b f32.Rectangle) func(f32.Point) f32.Point {
	size := b.Size()
	span := size.X
	if size.Y > span {
		span = size.Y
	}
	scale := float32(1)
	if span > 0 {
		scale = (renderSize - 2*renderMargin) / span
	}
	if scale > 8 {
		scale = 8
	}
	off := f32.Pt(renderMargin, renderMargin)
	return func(p f32.Point) f32.Point {
		return p.Sub(b.Min).Mul(scale).Add(off)
	}
}

// segment returns the outline of a line from a to b of width w.
func segment(a, b f32.Point, w float32) []f32.Point {
	d := b.Sub(a)
	l := d.Len()
	if l == 0 {
		return circle(a, w/2)
	}
	n := f32.Pt(-d.Y, d.X).Mul(w / 2 / l)
	return []f32.Point{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
}

// circle returns a polygon approximating a circle.
func circle(c f32.Point, r float32) []f32.Point {
	const n = 24
	pts := make([]f32.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / n
		pts[i] = c.Add(f32.Pt(float32(math.Cos(a)), float32(math.Sin(a))).Mul(r))
	}
	return pts
}

func fillPath(dst *image.RGBA, col color.RGBA, poly []f32.Point) {
	b := dst.Bounds()
	vr := vector.NewRasterizer(b.Dx(), b.Dy())
	vr.DrawOp = draw.Over
	vr.MoveTo(poly[0].X, poly[0].Y)
	for _, p := range poly[1:] {
		vr.LineTo(p.X, p.Y)
	}
	vr.ClosePath()
	vr.Draw(dst, b, image.NewUniform(col), image.Point{})
}
