// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/bbrks/wrap/v2"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"github.com/kortschak/flipbook/internal/animation"
	"github.com/kortschak/flipbook/internal/raster"
)

const helpText = `Draw with the left mouse button. ` +
	`Tools: b brush, e eraser, o ellipse, r rectangle, f fill. ` +
	`Colours: 1-8 select from the palette, y copies the colour to the clipboard, [ and ] change the brush size. ` +
	`Frames: a adds, d duplicates, x deletes, left and right select, c clears the canvas, u undoes. ` +
	`Playback: space plays and stops, + and - change the frame rate. ` +
	`Export: w writes the animation. Press ? to close this help and q to quit.`

var (
	statusStyle  = lipgloss.NewStyle().Bold(true).Reverse(true)
	messageStyle = lipgloss.NewStyle().Italic(true)
	markerStyle  = lipgloss.NewStyle().Bold(true)
)

// thumbCells is the number of terminal cells used by each frame in the
// timeline: a marker and a two cell swatch.
const thumbCells = 3

// layout describes the placement of the view's elements in terminal cells.
type layout struct {
	// canvas is the cell region holding the canvas. Each cell
	// shows two vertically stacked pixels.
	canvas image.Rectangle
	// timeline is the row holding the frame timeline.
	timeline int
	// message is the row holding the message line.
	message int
}

func (m *Model) layout() layout {
	cols := max(m.width, 1)
	rows := max(m.height-3, 1)
	w, h := float64(m.session.Width()), float64(m.session.Height())
	scale := min(float64(cols)/w, float64(2*rows)/h)
	cw := max(1, int(w*scale))
	ch := max(1, (int(h*scale)+1)/2)
	return layout{
		canvas:   image.Rect(0, 1, cw, 1+ch),
		timeline: 1 + rows,
		message:  2 + rows,
	}
}

// pixelAt returns the canvas pixel under the terminal cell (x, y) and
// whether the cell is within the canvas. Coordinates outside the canvas
// are extrapolated.
func (m *Model) pixelAt(x, y int) (px, py int, ok bool) {
	l := m.layout()
	c := l.canvas
	px = (x - c.Min.X) * m.session.Width() / c.Dx()
	py = (y - c.Min.Y) * m.session.Height() / c.Dy()
	return px, py, image.Pt(x, y).In(c)
}

// thumbAt returns the index of the timeline frame under the terminal
// cell (x, y).
func (m *Model) thumbAt(x, y int) (int, bool) {
	if y != m.layout().timeline || x < 0 {
		return 0, false
	}
	i := x / thumbCells
	return i, i < m.session.Len()
}

// View implements the tea.Model interface.
func (m *Model) View() string {
	l := m.layout()
	var buf strings.Builder
	buf.WriteString(statusStyle.Render(m.status()))
	buf.WriteByte('\n')

	var body []string
	if m.help {
		wrapper := wrap.NewWrapper()
		wrapper.StripTrailingNewline = true
		wrapper.CutLongWords = true
		body = strings.Split(wrapper.Wrap(helpText, max(m.width, 1)), "\n")
	} else {
		body = halfBlocks(m.frame(l.canvas))
	}
	for i := l.canvas.Min.Y; i < l.timeline; i++ {
		if j := i - l.canvas.Min.Y; j < len(body) {
			buf.WriteString(body[j])
		}
		buf.WriteByte('\n')
	}

	buf.WriteString(m.timeline())
	buf.WriteByte('\n')
	buf.WriteString(messageStyle.Render(m.message))
	return buf.String()
}

func (m *Model) status() string {
	s := m.session
	return fmt.Sprintf("%v tool=%v size=%g color=%s fps=%d",
		s.Status(), s.Tool(), s.Size(), raster.Hex(s.Color()), s.FPS())
}

// frame returns the image to show in the canvas region, scaled to fill
// it at two pixels per cell.
func (m *Model) frame(region image.Rectangle) *image.NRGBA {
	s := m.session
	img := image.NewNRGBA(image.Rect(0, 0, s.Width(), s.Height()))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	if s.State() != animation.Running {
		draw.Draw(img, img.Bounds(), s.Onion(), image.Point{}, draw.Over)
	}
	draw.Draw(img, img.Bounds(), s.Display(), image.Point{}, draw.Over)

	dst := image.NewNRGBA(image.Rect(0, 0, region.Dx(), 2*region.Dy()))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func (m *Model) timeline() string {
	s := m.session
	var buf strings.Builder
	for i := 0; i < s.Len(); i++ {
		if i == s.Current() {
			buf.WriteString(markerStyle.Render("›"))
		} else {
			buf.WriteByte(' ')
		}
		if !s.Populated(i) {
			buf.WriteString("··")
			continue
		}
		thumb, err := s.Thumbnail(i, 2, 2)
		if err != nil {
			buf.WriteString("??")
			continue
		}
		swatch := image.NewNRGBA(thumb.Bounds())
		draw.Draw(swatch, swatch.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Draw(swatch, swatch.Bounds(), thumb, image.Point{}, draw.Over)
		buf.WriteString(halfBlocks(swatch)[0])
	}
	return buf.String()
}

// halfBlocks renders img as lines of upper half block characters, each
// cell showing two vertically adjacent pixels. The image must be opaque.
func halfBlocks(img *image.NRGBA) []string {
	type pair struct{ top, bottom color.NRGBA }
	styles := make(map[pair]lipgloss.Style)
	b := img.Bounds()
	lines := make([]string, 0, (b.Dy()+1)/2)
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		var line strings.Builder
		for x := b.Min.X; x < b.Max.X; x++ {
			p := pair{top: img.NRGBAAt(x, y), bottom: img.NRGBAAt(x, y+1)}
			if y+1 >= b.Max.Y {
				p.bottom = p.top
			}
			style, ok := styles[p]
			if !ok {
				style = lipgloss.NewStyle().
					Foreground(lipgloss.Color(raster.Hex(p.top))).
					Background(lipgloss.Color(raster.Hex(p.bottom)))
				styles[p] = style
			}
			line.WriteString(style.Render("▀"))
		}
		lines = append(lines, line.String())
	}
	return lines
}
