// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session provides an animation editing session. A Session owns
// the frame store, undo history, onion skin compositor and playback
// scheduler, and exposes the editing commands used by host interfaces.
package session

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"golang.org/x/image/draw"

	"github.com/kortschak/flipbook/internal/animation"
	"github.com/kortschak/flipbook/internal/brush"
	"github.com/kortschak/flipbook/internal/export"
	"github.com/kortschak/flipbook/internal/fill"
	"github.com/kortschak/flipbook/internal/frame"
	"github.com/kortschak/flipbook/internal/history"
	"github.com/kortschak/flipbook/internal/onion"
	"github.com/kortschak/flipbook/internal/raster"
	"github.com/kortschak/flipbook/internal/slogext"
)

// Options are the construction parameters of a Session.
type Options struct {
	Width, Height int

	FPS          int
	HistoryDepth int
	OnionOpacity float64
	Background   color.NRGBA

	Tool      Tool
	BrushSize float64
	Color     color.NRGBA

	// Timer delivers playback ticks. It must
	// not be nil.
	Timer animation.Timer
}

// Session is an animation editing session.
//
// All methods must be called from a single goroutine, including the
// delivery of playback ticks.
type Session struct {
	store *frame.Store
	hist  *history.Stack
	onion *onion.Compositor
	sched *animation.Scheduler

	// canvas is the working buffer for the current frame.
	canvas *raster.Buffer
	// shown is the frame most recently displayed
	// by playback.
	shown *raster.Buffer

	tool  Tool
	size  float64
	color color.NRGBA
	fps   int
	bg    color.NRGBA

	drawing bool
	filled  bool
	start   image.Point
	last    image.Point

	log *slog.Logger
}

// New returns a new Session holding a single empty frame.
func New(opts Options, log *slog.Logger) (*Session, error) {
	if opts.Width < 1 || opts.Height < 1 {
		return nil, fmt.Errorf("invalid canvas size: %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS < 1 {
		return nil, fmt.Errorf("invalid frame rate: %d", opts.FPS)
	}
	if opts.Timer == nil {
		return nil, fmt.Errorf("missing playback timer")
	}
	hist := history.New(opts.HistoryDepth, log)
	s := &Session{
		store:  frame.New(opts.Width, opts.Height, hist, log),
		hist:   hist,
		onion:  onion.New(opts.OnionOpacity, log),
		sched:  animation.NewScheduler(opts.Timer, log),
		canvas: raster.New(opts.Width, opts.Height),
		tool:   opts.Tool,
		size:   max(opts.BrushSize, 1),
		color:  opaque(opts.Color),
		fps:    opts.FPS,
		bg:     opaque(opts.Background),
		log:    log.With(slog.String("component", "session")),
	}
	// The blank canvas is the floor of the history so that
	// the first edit can be undone. It does not populate a slot.
	err := hist.Push(s.canvas)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 0xff
	return c
}

// Width returns the width of the canvas.
func (s *Session) Width() int { return s.store.Width() }

// Height returns the height of the canvas.
func (s *Session) Height() int { return s.store.Height() }

// Tool returns the current tool.
func (s *Session) Tool() Tool { return s.tool }

// SetTool sets the current tool. Any stroke in progress is ended.
func (s *Session) SetTool(t Tool) error {
	if t < Brush || Fill < t {
		return fmt.Errorf("invalid tool: %v", t)
	}
	s.drawing = false
	s.tool = t
	s.debug("set tool", slog.Any("tool", slogext.Stringer{Stringer: t}))
	return nil
}

// Color returns the current drawing colour.
func (s *Session) Color() color.NRGBA { return s.color }

// SetColor sets the drawing colour. The alpha of c is ignored.
func (s *Session) SetColor(c color.NRGBA) {
	s.color = opaque(c)
	s.debug("set color", slog.String("color", raster.Hex(s.color)))
}

// Size returns the current stroke width.
func (s *Session) Size() float64 { return s.size }

// SetSize sets the stroke width, which must be at least one.
func (s *Session) SetSize(size float64) error {
	if size < 1 {
		return fmt.Errorf("invalid brush size: %v", size)
	}
	s.size = size
	s.debug("set size", slog.Float64("size", size))
	return nil
}

// SetBackground sets the export background colour.
func (s *Session) SetBackground(c color.NRGBA) {
	s.bg = opaque(c)
}

// SetOnionOpacity sets the alpha scale of the onion skin.
func (s *Session) SetOnionOpacity(opacity float64) {
	s.onion.SetOpacity(opacity)
}

// clamp returns (x, y) limited to the canvas.
func (s *Session) clamp(x, y int) image.Point {
	return image.Pt(
		min(max(x, 0), s.Width()-1),
		min(max(y, 0), s.Height()-1),
	)
}

// PointerDown starts an edit at (x, y), clamped to the canvas. With the
// fill tool the region at (x, y) is filled and committed immediately.
func (s *Session) PointerDown(x, y int) error {
	p := s.clamp(x, y)
	s.drawing = true
	s.filled = false
	s.start = p
	s.last = p
	s.debug("pointer down", slog.Int("x", p.X), slog.Int("y", p.Y), slog.String("tool", s.tool.String()))
	if s.tool == Fill {
		s.filled = true
		return s.FillAt(p.X, p.Y)
	}
	return nil
}

// PointerMove continues an edit to (x, y), clamped to the canvas. It is
// a no-op if no edit is in progress.
func (s *Session) PointerMove(x, y int) {
	if !s.drawing {
		return
	}
	p := s.clamp(x, y)
	switch {
	case s.tool == Brush:
		brush.Line(s.canvas, s.last.X, s.last.Y, p.X, p.Y, s.size, s.color)
	case s.tool == Eraser:
		brush.Erase(s.canvas, s.last.X, s.last.Y, p.X, p.Y, s.size)
	case s.tool.shape():
		// Redraw the shape over the committed state.
		s.revert()
		if s.tool == Ellipse {
			brush.Ellipse(s.canvas, s.start.X, s.start.Y, p.X, p.Y, s.size, s.color)
		} else {
			brush.Rectangle(s.canvas, s.start.X, s.start.Y, p.X, p.Y, s.size, s.color)
		}
	}
	s.last = p
}

// PointerUp ends an edit at (x, y), clamped to the canvas, and commits
// the canvas. It is a no-op if no edit is in progress. An edit started
// by a fill has already been committed and is not committed again.
func (s *Session) PointerUp(x, y int) error {
	if !s.drawing {
		return nil
	}
	if p := s.clamp(x, y); p != s.last {
		s.PointerMove(x, y)
	}
	s.drawing = false
	if s.filled {
		s.filled = false
		return nil
	}
	return s.Commit()
}

// Drawing returns whether an edit is in progress.
func (s *Session) Drawing() bool { return s.drawing }

// Commit writes the canvas into the current frame and records it in the
// undo history.
func (s *Session) Commit() error {
	_, err := s.store.Commit(s.canvas)
	if err != nil {
		return err
	}
	s.debug("commit", slog.Any("canvas", slogext.Image{Image: s.canvas}))
	return nil
}

// FillAt flood fills the region of the canvas at (x, y) with the current
// colour and commits the result. If (x, y) is outside the canvas neither
// the canvas nor the history is altered.
func (s *Session) FillAt(x, y int) error {
	n, err := fill.Fill(s.canvas, x, y, s.color)
	if err != nil {
		return err
	}
	s.debug("fill", slog.Int("x", x), slog.Int("y", y), slog.Int("pixels", n))
	return s.Commit()
}

// Clear clears the canvas. The cleared state is committed by the next
// edit.
func (s *Session) Clear() {
	s.canvas.Clear()
	s.debug("clear")
}

// Undo restores the previous state in the undo history into the current
// frame and the canvas. Any stroke in progress is abandoned.
func (s *Session) Undo() error {
	b, err := s.hist.Undo()
	if err != nil {
		return err
	}
	err = s.store.Restore(b)
	if err != nil {
		return err
	}
	s.canvas = b
	s.drawing = false
	s.debug("undo", slog.Int("history", s.hist.Len()))
	return nil
}

// AddFrame appends an empty frame and makes it current.
func (s *Session) AddFrame() int {
	i := s.store.Append()
	s.load()
	return i
}

// Duplicate inserts a copy of the current frame after it and makes the
// copy current.
func (s *Session) Duplicate() (int, error) {
	i, err := s.store.Duplicate(s.store.Current())
	if err != nil {
		return i, err
	}
	s.load()
	return i, nil
}

// Delete removes the current frame.
func (s *Session) Delete() (int, error) {
	i, err := s.store.Delete(s.store.Current())
	if err != nil {
		return i, err
	}
	s.load()
	return i, nil
}

// Select makes frame i current.
func (s *Session) Select(i int) (int, error) {
	i, err := s.store.Select(i)
	if err != nil {
		return i, err
	}
	s.load()
	return i, nil
}

// load sets the canvas to the current frame.
func (s *Session) load() {
	s.drawing = false
	s.revert()
}

// revert sets the canvas to the committed state of the current frame.
func (s *Session) revert() {
	f := s.store.Frame(s.store.Current())
	if f == nil {
		s.canvas.Clear()
		return
	}
	copy(s.canvas.NRGBA().Pix, f.NRGBA().Pix)
}

// Canvas returns the working buffer of the current frame. The returned
// buffer must not be altered.
func (s *Session) Canvas() *raster.Buffer { return s.canvas }

// Onion returns the onion skin overlay for the current frame. The returned
// buffer must not be altered.
func (s *Session) Onion() *raster.Buffer {
	return s.onion.Render(s.store, s.store.Current())
}

// Len returns the number of frames.
func (s *Session) Len() int { return s.store.Len() }

// Current returns the index of the current frame.
func (s *Session) Current() int { return s.store.Current() }

// Populated returns whether frame i holds a committed buffer.
func (s *Session) Populated(i int) bool { return s.store.Populated(i) }

// History returns the number of snapshots in the undo history.
func (s *Session) History() int { return s.hist.Len() }

// Pixel returns the canvas pixel at (x, y).
func (s *Session) Pixel(x, y int) color.NRGBA { return s.canvas.Pixel(x, y) }

// Thumbnail returns frame i scaled to w×h. Empty frames are transparent.
func (s *Session) Thumbnail(i, w, h int) (*image.NRGBA, error) {
	if i < 0 || s.store.Len() <= i {
		return nil, fmt.Errorf("thumbnail %d of %d frames: %w", i, s.store.Len(), frame.ErrIndexOutOfRange)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	f := s.store.Frame(i)
	if f != nil {
		draw.BiLinear.Scale(dst, dst.Bounds(), f.NRGBA(), f.Bounds(), draw.Src, nil)
	}
	return dst, nil
}

// FPS returns the playback frame rate.
func (s *Session) FPS() int { return s.fps }

// SetFPS sets the playback frame rate. If playback is running it is
// restarted at the new rate.
func (s *Session) SetFPS(fps int) error {
	if fps < 1 {
		return fmt.Errorf("invalid frame rate: %d", fps)
	}
	s.fps = fps
	s.debug("set fps", slog.Int("fps", fps))
	if s.sched.State() == animation.Running {
		return s.Play()
	}
	return nil
}

// Play starts playback from the first frame, restarting it if it is
// already running.
func (s *Session) Play() error {
	s.shown = nil
	return s.sched.Play(s.fps)
}

// Stop stops playback.
func (s *Session) Stop() {
	s.sched.Stop()
	s.shown = nil
}

// State returns the playback state.
func (s *Session) State() animation.State { return s.sched.State() }

// Tick handles delivery of a playback tick. It returns the index of the
// frame reached and whether the display changed. Empty frames are passed
// over with the previous display retained.
func (s *Session) Tick(t animation.Tick) (index int, changed bool) {
	i, ok := s.sched.Advance(t, s.store.Len())
	if !ok {
		return 0, false
	}
	f := s.store.Frame(i)
	if f == nil {
		return i, false
	}
	s.shown = f
	return i, true
}

// Display returns the image to display: the most recent playback frame
// while playing, and otherwise the canvas. The returned buffer must not be
// altered.
func (s *Session) Display() *raster.Buffer {
	if s.sched.State() == animation.Running && s.shown != nil {
		return s.shown
	}
	return s.canvas
}

// Export returns the populated frames composited over the export
// background.
func (s *Session) Export() ([]export.Frame, error) {
	return export.Export(s.store, s.fps, s.bg)
}

// ExportFile writes the populated frames to path using enc.
func (s *Session) ExportFile(ctx context.Context, path string, enc export.Encoder) error {
	frames, err := s.Export()
	if err != nil {
		return err
	}
	return export.WriteFile(ctx, path, enc, frames, s.log)
}

// Status is a summary of the session state.
type Status struct {
	Frames  int
	Current int
	History int
	State   animation.State
	FPS     int
	Tool    Tool
}

func (s Status) String() string {
	return fmt.Sprintf("frames=%d current=%d history=%d state=%v", s.Frames, s.Current, s.History, s.State)
}

// Status returns a summary of the session state.
func (s *Session) Status() Status {
	return Status{
		Frames:  s.store.Len(),
		Current: s.store.Current(),
		History: s.hist.Len(),
		State:   s.sched.State(),
		FPS:     s.fps,
		Tool:    s.tool,
	}
}

func (s *Session) debug(msg string, attrs ...slog.Attr) {
	s.log.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}
