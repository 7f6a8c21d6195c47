// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package onion renders onion skin overlays of the frame preceding the
// frame being edited.
package onion

import (
	"context"
	"log/slog"
	"math"

	"github.com/kortschak/flipbook/internal/raster"
)

// DefaultOpacity is the alpha scale applied to the previous frame.
const DefaultOpacity = 0.3

// Source is a sequence of frames.
type Source interface {
	// Frame returns the buffer at i or nil if the slot is empty.
	Frame(i int) *raster.Buffer
	// Version returns a value that changes when any frame changes.
	Version() uint64
	Width() int
	Height() int
}

// Compositor renders onion skin overlays. Rendered overlays are cached
// until the source's version or the requested index changes.
//
// A Compositor is not safe for concurrent use.
type Compositor struct {
	opacity float64
	lut     [256]uint8

	valid   bool
	index   int
	version uint64
	overlay *raster.Buffer

	log *slog.Logger
}

// New returns a Compositor that scales alpha by opacity, which is clamped
// to [0, 1].
func New(opacity float64, log *slog.Logger) *Compositor {
	c := &Compositor{log: log.With(slog.String("component", "onion"))}
	c.SetOpacity(opacity)
	return c
}

// Opacity returns the compositor's alpha scale.
func (c *Compositor) Opacity() float64 { return c.opacity }

// SetOpacity sets the alpha scale and invalidates the cache.
func (c *Compositor) SetOpacity(opacity float64) {
	opacity = min(max(opacity, 0), 1)
	c.opacity = opacity
	for a := range c.lut {
		c.lut[a] = uint8(math.Round(float64(a) * opacity))
	}
	c.valid = false
}

// Render returns the overlay for editing frame index of src. The overlay
// holds the pixels of frame index-1 with every alpha value scaled by the
// compositor's opacity, or is fully transparent when index is zero or the
// previous slot is empty.
//
// The returned buffer is owned by the compositor and is valid until the
// next call to Render or SetOpacity. It must not be altered.
func (c *Compositor) Render(src Source, index int) *raster.Buffer {
	if c.valid && c.index == index && c.version == src.Version() &&
		c.overlay.Width() == src.Width() && c.overlay.Height() == src.Height() {
		return c.overlay
	}
	if c.overlay == nil || c.overlay.Width() != src.Width() || c.overlay.Height() != src.Height() {
		c.overlay = raster.New(src.Width(), src.Height())
	} else {
		c.overlay.Clear()
	}

	prev := src.Frame(index - 1)
	if index > 0 && prev != nil {
		dst := c.overlay.NRGBA().Pix
		copy(dst, prev.NRGBA().Pix)
		for i := 3; i < len(dst); i += 4 {
			dst[i] = c.lut[dst[i]]
		}
	}

	c.valid = true
	c.index = index
	c.version = src.Version()
	c.log.LogAttrs(context.Background(), slog.LevelDebug, "render",
		slog.Int("index", index),
		slog.Uint64("version", c.version),
		slog.Bool("empty", index == 0 || prev == nil),
	)
	return c.overlay
}
