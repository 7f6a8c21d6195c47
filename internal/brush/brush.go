// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package brush rasterises strokes onto frame buffers.
//
// Coordinates are pixel indices; a point (x, y) refers to the centre of
// the pixel at column x and row y.
package brush

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/kortschak/flipbook/internal/raster"
)

// Line strokes a round-capped line segment of the given width from
// (x0, y0) to (x1, y1) in c over dst.
func Line(dst *raster.Buffer, x0, y0, x1, y1 int, width float64, c color.NRGBA) {
	mask, r := coverage(dst, x0, y0, x1, y1, width, func(dc *gg.Context) {
		dc.DrawLine(centre(x0), centre(y0), centre(x1), centre(y1))
	})
	paint(dst, mask, r, c)
}

// Erase removes coverage of a round-capped line segment of the given
// width from (x0, y0) to (x1, y1) from dst, reducing the alpha of covered
// pixels.
func Erase(dst *raster.Buffer, x0, y0, x1, y1 int, width float64) {
	mask, r := coverage(dst, x0, y0, x1, y1, width, func(dc *gg.Context) {
		dc.DrawLine(centre(x0), centre(y0), centre(x1), centre(y1))
	})
	if mask == nil {
		return
	}
	img := dst.NRGBA()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			_, _, _, ma := mask.At(x-r.Min.X, y-r.Min.Y).RGBA()
			if ma == 0 {
				continue
			}
			i := img.PixOffset(x, y) + 3
			img.Pix[i] = uint8((uint32(img.Pix[i]) * (0xffff - ma)) / 0xffff)
		}
	}
}

// Ellipse strokes the outline of the ellipse inscribed in the box with
// corners (x0, y0) and (x1, y1) in c over dst.
func Ellipse(dst *raster.Buffer, x0, y0, x1, y1 int, width float64, c color.NRGBA) {
	mask, r := coverage(dst, x0, y0, x1, y1, width, func(dc *gg.Context) {
		cx := (centre(x0) + centre(x1)) / 2
		cy := (centre(y0) + centre(y1)) / 2
		dc.DrawEllipse(cx, cy, math.Abs(float64(x1-x0))/2, math.Abs(float64(y1-y0))/2)
	})
	paint(dst, mask, r, c)
}

// Rectangle strokes the outline of the box with corners (x0, y0) and
// (x1, y1) in c over dst.
func Rectangle(dst *raster.Buffer, x0, y0, x1, y1 int, width float64, c color.NRGBA) {
	mask, r := coverage(dst, x0, y0, x1, y1, width, func(dc *gg.Context) {
		dc.DrawRectangle(centre(x0), centre(y0), float64(x1-x0), float64(y1-y0))
	})
	paint(dst, mask, r, c)
}

func centre(v int) float64 { return float64(v) + 0.5 }

// coverage returns the stroked coverage of path within the region of dst
// touched by a stroke of the given width over the box with corners
// (x0, y0) and (x1, y1), and that region. The mask's origin corresponds
// to the region's minimum point. If the region is empty, the returned
// mask is nil.
func coverage(dst *raster.Buffer, x0, y0, x1, y1 int, width float64, path func(*gg.Context)) (image.Image, image.Rectangle) {
	width = max(width, 1)
	pad := int(math.Ceil(width/2)) + 1
	r := image.Rect(x0, y0, x1, y1).Canon()
	r.Max = r.Max.Add(image.Pt(1, 1))
	r = r.Inset(-pad).Intersect(dst.Bounds())
	if r.Empty() {
		return nil, r
	}

	dc := gg.NewContext(r.Dx(), r.Dy())
	dc.Translate(-float64(r.Min.X), -float64(r.Min.Y))
	dc.SetColor(color.Opaque)
	dc.SetLineWidth(width)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	path(dc)
	dc.Stroke()
	return dc.Image(), r
}

// paint composites c through mask over the region r of dst.
func paint(dst *raster.Buffer, mask image.Image, r image.Rectangle, c color.NRGBA) {
	if mask == nil {
		return
	}
	draw.DrawMask(dst.NRGBA(), r, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}
