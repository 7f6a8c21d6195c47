// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"io"
	"math"
	"time"

	"golang.org/x/image/draw"
)

// Encoder writes a sequence of frames as an artifact.
type Encoder interface {
	Encode(w io.Writer, frames []Frame) error
}

// GIF is an animated GIF Encoder. GIF has no alpha support beyond a single
// transparent index, so frames are expected to be opaque.
type GIF struct {
	// Palette is the palette used for all frames.
	// If it is nil, palette.Plan9 is used.
	Palette color.Palette

	// LoopCount controls the number of times an animation will be
	// restarted during display.
	// A LoopCount of 0 means to loop forever.
	// A LoopCount of -1 means to show each frame only once.
	// Otherwise, the animation is looped LoopCount+1 times.
	LoopCount int
}

// Encode implements the Encoder interface. Frames are dithered to the
// palette with Floyd-Steinberg error diffusion.
func (e GIF) Encode(w io.Writer, frames []Frame) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	pal := e.Palette
	if pal == nil {
		pal = palette.Plan9
	}
	g := gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: e.LoopCount,
	}
	b := frames[0].Image.Bounds()
	for i, f := range frames {
		if f.Image.Bounds() != b {
			return fmt.Errorf("mismatched bounds at %d: %v != %v", i, f.Image.Bounds(), b)
		}
		dst := image.NewPaletted(b, pal)
		draw.FloydSteinberg.Draw(dst, b, f.Image.NRGBA(), b.Min)
		g.Image[i] = dst
		g.Delay[i] = centiseconds(f.Delay)
	}
	return gif.EncodeAll(w, &g)
}

// centiseconds returns d in hundredths of a second, rounded to the
// nearest non-zero value.
func centiseconds(d time.Duration) int {
	return max(1, int(math.Round(float64(d)/float64(10*time.Millisecond))))
}

// Info is a summary of an encoded animation.
type Info struct {
	Frames    int
	Width     int
	Height    int
	Delay     []time.Duration
	LoopCount int
}

// IsGIF returns whether the data held by r is a GIF image.
func IsGIF(r ReadPeeker) bool {
	return hasMagic("GIF8?a", r)
}

// ReadPeeker is an io.Reader that can also peek n bytes ahead.
type ReadPeeker interface {
	io.Reader
	Peek(n int) ([]byte, error)
}

// AsReadPeeker converts an io.Reader to a ReadPeeker.
func AsReadPeeker(r io.Reader) ReadPeeker {
	if r, ok := r.(ReadPeeker); ok {
		return r
	}
	return bufio.NewReader(r)
}

// hasMagic returns whether r starts with the provided magic bytes.
func hasMagic(magic string, r ReadPeeker) bool {
	b, err := r.Peek(len(magic))
	if err != nil || len(b) != len(magic) {
		return false
	}
	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}
	return true
}

// InspectGIF returns a summary of the GIF held in r, checking that frame
// and delay counts agree.
func InspectGIF(r io.Reader) (Info, error) {
	rp := AsReadPeeker(r)
	if !IsGIF(rp) {
		return Info{}, errors.New("not a GIF")
	}
	g, err := gif.DecodeAll(rp)
	if err != nil {
		return Info{}, err
	}
	if len(g.Image) != len(g.Delay) && g.Delay != nil {
		return Info{}, fmt.Errorf("mismatched image count and delay count: %d != %d", len(g.Image), len(g.Delay))
	}
	info := Info{
		Frames:    len(g.Image),
		Width:     g.Config.Width,
		Height:    g.Config.Height,
		LoopCount: g.LoopCount,
	}
	for _, d := range g.Delay {
		info.Delay = append(info.Delay, time.Duration(d)*10*time.Millisecond)
	}
	return info, nil
}
