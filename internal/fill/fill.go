// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fill implements flood fill on raster buffers.
package fill

import (
	"fmt"
	"image"
	"image/color"

	"github.com/kortschak/flipbook/internal/raster"
)

// Fill recolours the 4-connected region of pixels exactly matching the
// colour at (x, y) with c, and returns the number of pixels written. The
// written colour is always fully opaque regardless of the alpha of c.
//
// If (x, y) is outside dst, Fill returns an error wrapping
// raster.ErrOutOfBounds and dst is not altered.
func Fill(dst *raster.Buffer, x, y int, c color.NRGBA) (int, error) {
	if !dst.In(x, y) {
		return 0, fmt.Errorf("fill seed (%d,%d) in %v: %w", x, y, dst.Bounds(), raster.ErrOutOfBounds)
	}
	c.A = 0xff
	target := dst.Pixel(x, y)

	w := dst.Width()
	visited := make([]bool, w*dst.Height())
	stack := []image.Point{{X: x, Y: y}}
	var n int
	for len(stack) != 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !dst.In(p.X, p.Y) {
			continue
		}
		i := p.Y*w + p.X
		if visited[i] || dst.Pixel(p.X, p.Y) != target {
			continue
		}
		visited[i] = true
		dst.SetPixel(p.X, p.Y, c)
		n++
		stack = append(stack,
			image.Point{X: p.X + 1, Y: p.Y},
			image.Point{X: p.X - 1, Y: p.Y},
			image.Point{X: p.X, Y: p.Y + 1},
			image.Point{X: p.X, Y: p.Y - 1},
		)
	}
	return n, nil
}
