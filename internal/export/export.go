// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package export composites animation frames onto an opaque background
// and encodes them as an animation artifact.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"golang.org/x/image/draw"

	"github.com/kortschak/flipbook/internal/raster"
)

// ErrNoFrames is returned when encoding an empty frame sequence.
var ErrNoFrames = errors.New("no frames to export")

// Background is the default export background.
var Background = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Source is a sequence of frame slots.
type Source interface {
	Len() int
	// Frame returns the buffer at i or nil if the slot is empty.
	Frame(i int) *raster.Buffer
}

// Frame is a single exported frame.
type Frame struct {
	// Image is fully opaque.
	Image *raster.Buffer
	// Delay is the time the frame is displayed.
	Delay time.Duration
}

// Export returns the populated frames of src, in order, composited over
// an opaque background, each with a display time of one frame at fps.
// Empty slots are skipped. The alpha of bg is ignored.
func Export(src Source, fps int, bg color.NRGBA) ([]Frame, error) {
	if fps < 1 {
		return nil, fmt.Errorf("invalid frame rate: %d", fps)
	}
	bg.A = 0xff
	delay := time.Second / time.Duration(fps)
	var frames []Frame
	for i := 0; i < src.Len(); i++ {
		f := src.Frame(i)
		if f == nil {
			continue
		}
		frames = append(frames, Frame{
			Image: Flatten(f, bg),
			Delay: delay,
		})
	}
	return frames, nil
}

// Flatten returns a new opaque buffer holding src composited over bg.
func Flatten(src *raster.Buffer, bg color.NRGBA) *raster.Buffer {
	bg.A = 0xff
	dst := raster.New(src.Width(), src.Height())
	img := dst.NRGBA()
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(img, img.Bounds(), src.NRGBA(), image.Point{}, draw.Over)
	return dst
}
