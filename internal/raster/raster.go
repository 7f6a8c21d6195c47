// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package raster provides the fixed-size pixel surfaces that frames are
// drawn on.
package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ErrOutOfBounds is returned when an operation addresses a pixel outside
// a buffer.
var ErrOutOfBounds = errors.New("out of bounds")

// Buffer is a fixed-size raster of non-alpha-premultiplied 8-bit RGBA
// pixels. The dimensions of a Buffer do not change after creation.
//
// Buffer implements [draw.Image]. Pixel reads outside the buffer return
// transparent black and pixel writes outside the buffer are ignored.
type Buffer struct {
	width  int
	height int
	pix    []uint8 // 4 bytes per pixel, row major
}

// New returns a fully transparent Buffer with the given dimensions.
func New(width, height int) *Buffer {
	if width < 0 || height < 0 {
		panic("raster: negative buffer dimension")
	}
	return &Buffer{
		width:  width,
		height: height,
		pix:    make([]uint8, 4*width*height),
	}
}

// FromImage returns a Buffer holding the pixels of img translated so that
// img's minimum point is at the origin.
func FromImage(img image.Image) *Buffer {
	r := img.Bounds()
	b := New(r.Dx(), r.Dy())
	switch img := img.(type) {
	case *image.NRGBA:
		// Copy rows directly so that colour information in fully
		// transparent pixels survives the round trip.
		for y := 0; y < b.height; y++ {
			i := img.PixOffset(r.Min.X, r.Min.Y+y)
			copy(b.pix[4*y*b.width:4*(y+1)*b.width], img.Pix[i:i+4*b.width])
		}
	case *Buffer:
		copy(b.pix, img.pix)
	default:
		draw.Draw(b.NRGBA(), b.Bounds(), img, r.Min, draw.Src)
	}
	return b
}

// Width returns the width of the buffer.
func (b *Buffer) Width() int { return b.width }

// Height returns the height of the buffer.
func (b *Buffer) Height() int { return b.height }

// In returns whether (x, y) is within the buffer.
func (b *Buffer) In(x, y int) bool {
	return 0 <= x && x < b.width && 0 <= y && y < b.height
}

// Pixel returns the colour at (x, y). Out of range reads return
// transparent black.
func (b *Buffer) Pixel(x, y int) color.NRGBA {
	if !b.In(x, y) {
		return color.NRGBA{}
	}
	i := b.offset(x, y)
	s := b.pix[i : i+4 : i+4]
	return color.NRGBA{R: s[0], G: s[1], B: s[2], A: s[3]}
}

// SetPixel sets the colour at (x, y). Out of range writes are ignored.
func (b *Buffer) SetPixel(x, y int, c color.NRGBA) {
	if !b.In(x, y) {
		return
	}
	i := b.offset(x, y)
	s := b.pix[i : i+4 : i+4]
	s[0] = c.R
	s[1] = c.G
	s[2] = c.B
	s[3] = c.A
}

func (b *Buffer) offset(x, y int) int {
	return 4 * (y*b.width + x)
}

// Clear sets all pixels to transparent black.
func (b *Buffer) Clear() {
	clear(b.pix)
}

// Clone returns a deep copy of the receiver.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	c := *b
	c.pix = bytes.Clone(b.pix)
	return &c
}

// Equal returns whether a and b have the same dimensions and pixels.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.width == o.width && b.height == o.height && bytes.Equal(b.pix, o.pix)
}

// Opaque returns whether every pixel in the buffer is fully opaque.
func (b *Buffer) Opaque() bool {
	for i := 3; i < len(b.pix); i += 4 {
		if b.pix[i] != 0xff {
			return false
		}
	}
	return true
}

// NRGBA returns an *image.NRGBA view of the receiver's pixels. Writes to
// the view's pixels are writes to the buffer. It is used to allow fast
// paths in image/draw operations.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.pix,
		Stride: 4 * b.width,
		Rect:   b.Bounds(),
	}
}

// Bounds implements the image.Image interface.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements the image.Image interface.
func (b *Buffer) ColorModel() color.Model {
	return color.NRGBAModel
}

// At implements the image.Image interface.
func (b *Buffer) At(x, y int) color.Color {
	return b.Pixel(x, y)
}

// Set implements the draw.Image interface.
func (b *Buffer) Set(x, y int, c color.Color) {
	b.SetPixel(x, y, color.NRGBAModel.Convert(c).(color.NRGBA))
}
