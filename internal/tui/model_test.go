// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tui

import (
	"bytes"
	"context"
	"flag"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/kortschak/flipbook/internal/animation"
	"github.com/kortschak/flipbook/internal/config"
	"github.com/kortschak/flipbook/internal/export"
	"github.com/kortschak/flipbook/internal/session"
	"github.com/kortschak/flipbook/internal/slogext"
)

var (
	verbose = flag.Bool("verbose_log", false, "print full logging")
	lines   = flag.Bool("show_lines", false, "log source code position")
)

func newLogger(t *testing.T) *slog.Logger {
	t.Helper()
	var logBuf bytes.Buffer
	t.Cleanup(func() {
		if *verbose && logBuf.Len() != 0 {
			t.Logf("log:\n%s\n", &logBuf)
		}
	})
	return slog.New(slogext.NewJSONHandler(&logBuf, &slogext.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: slogext.NewAtomicBool(*lines),
	}))
}

var (
	black = color.NRGBA{A: 0xff}
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// newModel returns a model over a 20×10 canvas shown in a 20×13 terminal
// so that each canvas pixel column is one cell wide and each cell row
// holds two pixel rows.
func newModel(t *testing.T, opts Options) *Model {
	t.Helper()
	log := newLogger(t)
	timer := &Timer{}
	s, err := session.New(session.Options{
		Width:        20,
		Height:       10,
		FPS:          12,
		HistoryDepth: 100,
		OnionOpacity: 0.3,
		Background:   white,
		Tool:         session.Brush,
		BrushSize:    1,
		Color:        black,
		Timer:        timer,
	}, log)
	if err != nil {
		t.Fatalf("unexpected error creating session: %v", err)
	}
	m := New(context.Background(), s, timer, opts, log)
	m.Update(tea.WindowSizeMsg{Width: 20, Height: 13})
	return m
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}
}

// run executes cmd and returns the messages it produces, expanding
// batches.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if b, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range b {
			msgs = append(msgs, run(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func TestLayout(t *testing.T) {
	m := newModel(t, Options{})
	for _, test := range []struct {
		x, y   int
		px, py int
		in     bool
	}{
		{x: 0, y: 1, px: 0, py: 0, in: true},
		{x: 19, y: 5, px: 19, py: 8, in: true},
		{x: 5, y: 3, px: 5, py: 4, in: true},
		{x: 5, y: 0, px: 5, py: -2, in: false},
		{x: 25, y: 2, px: 25, py: 2, in: false},
	} {
		px, py, in := m.pixelAt(test.x, test.y)
		if px != test.px || py != test.py || in != test.in {
			t.Errorf("unexpected pixel for cell (%d,%d): got:(%d,%d,%t) want:(%d,%d,%t)",
				test.x, test.y, px, py, in, test.px, test.py, test.in)
		}
	}
	if _, ok := m.thumbAt(0, 11); !ok {
		t.Error("expected first frame at start of timeline")
	}
	if _, ok := m.thumbAt(3, 11); ok {
		t.Error("unexpected second frame in timeline")
	}
	if _, ok := m.thumbAt(0, 10); ok {
		t.Error("unexpected frame outside timeline row")
	}
}

func TestKeys(t *testing.T) {
	m := newModel(t, Options{})
	s := m.session

	m.Update(keys("f"))
	if s.Tool() != session.Fill {
		t.Errorf("unexpected tool: got:%v want:%v", s.Tool(), session.Fill)
	}
	m.Update(keys("]"))
	if s.Size() != 2 {
		t.Errorf("unexpected size: got:%v want:2", s.Size())
	}
	m.Update(keys("3"))
	if got, want := s.Color(), (color.NRGBA{R: 0xff, A: 0xff}); got != want {
		t.Errorf("unexpected color: got:%v want:%v", got, want)
	}

	m.Update(keys("a"))
	if s.Len() != 2 || s.Current() != 1 {
		t.Errorf("unexpected frames after add: got:%d/%d want:2/1", s.Len(), s.Current())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if s.Current() != 0 {
		t.Errorf("unexpected current frame after left: got:%d want:0", s.Current())
	}
	m.Update(keys("x"))
	m.Update(keys("x"))
	if s.Len() != 1 {
		t.Errorf("unexpected frame count: got:%d want:1", s.Len())
	}
	if !strings.Contains(m.message, "cannot delete last frame") {
		t.Errorf("unexpected message: %q", m.message)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.message, "index out of range") {
		t.Errorf("unexpected message: %q", m.message)
	}

	_, cmd := m.Update(keys("q"))
	msgs := run(cmd)
	if len(msgs) != 1 {
		t.Fatalf("unexpected number of messages from quit: %d", len(msgs))
	}
	if _, ok := msgs[0].(tea.QuitMsg); !ok {
		t.Errorf("unexpected message from quit: %T", msgs[0])
	}
}

func TestMouse(t *testing.T) {
	m := newModel(t, Options{})
	s := m.session

	m.Update(keys("f"))
	m.Update(press(3, 2))
	m.Update(release(3, 2))
	if got := s.Pixel(0, 0); got != black {
		t.Errorf("unexpected pixel after fill: got:%v want:%v", got, black)
	}
	if s.History() != 2 {
		t.Errorf("unexpected history after fill: got:%d want:2", s.History())
	}

	m.Update(keys("a"))
	m.Update(keys("b"))
	m.Update(keys("2"))
	m.Update(press(2, 1))
	m.Update(tea.MouseMsg{X: 8, Y: 1, Action: tea.MouseActionMotion})
	m.Update(release(8, 1))
	for x := 3; x <= 7; x++ {
		if got := s.Pixel(x, 0); got != white {
			t.Errorf("unexpected pixel at (%d,0): got:%v want:%v", x, got, white)
		}
	}
	if s.History() != 3 {
		t.Errorf("unexpected history after stroke: got:%d want:3", s.History())
	}

	// Select the first frame from the timeline.
	m.Update(press(1, 11))
	if s.Current() != 0 {
		t.Errorf("unexpected current frame after timeline click: got:%d want:0", s.Current())
	}
}

func TestPlayback(t *testing.T) {
	m := newModel(t, Options{})
	s := m.session

	m.Update(keys("f"))
	m.Update(press(0, 1))
	m.Update(release(0, 1))

	for i := 0; i < 5; i++ {
		m.Update(keys("+"))
	}
	if s.FPS() != 17 {
		t.Errorf("unexpected fps: got:%d want:17", s.FPS())
	}

	_, cmd := m.Update(keys(" "))
	if s.State() != animation.Running {
		t.Fatalf("unexpected state after space: got:%v want:%v", s.State(), animation.Running)
	}
	msgs := run(cmd)
	if len(msgs) != 1 {
		t.Fatalf("unexpected number of messages from play: %d", len(msgs))
	}
	tick, ok := msgs[0].(tickMsg)
	if !ok {
		t.Fatalf("unexpected message from play: %T", msgs[0])
	}
	if tick.Period != animation.Period(17) {
		t.Errorf("unexpected tick period: got:%v want:%v", tick.Period, animation.Period(17))
	}
	_, cmd = m.Update(tick)
	if cmd == nil {
		t.Error("expected next tick to be scheduled")
	}
	if s.Display() == s.Canvas() {
		t.Error("expected playback frame to be displayed")
	}

	m.Update(keys(" "))
	if s.State() != animation.Stopped {
		t.Errorf("unexpected state after second space: got:%v want:%v", s.State(), animation.Stopped)
	}
	// Stale ticks are ignored.
	_, cmd = m.Update(tick)
	if run(cmd) != nil {
		t.Error("unexpected tick scheduled after stop")
	}
}

func TestYank(t *testing.T) {
	m := newModel(t, Options{})
	var got string
	m.copy = func(s string) error {
		got = s
		return nil
	}
	m.Update(keys("5"))
	m.Update(keys("y"))
	if want := "#0000ff"; got != want {
		t.Errorf("unexpected clipboard text: got:%q want:%q", got, want)
	}
	if want := "copied #0000ff"; m.message != want {
		t.Errorf("unexpected message: got:%q want:%q", m.message, want)
	}
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), export.DefaultName)
	m := newModel(t, Options{Path: path, Encoder: export.GIF{}})

	m.Update(keys("w"))
	if !strings.Contains(m.message, export.ErrNoFrames.Error()) {
		t.Errorf("unexpected message exporting empty animation: %q", m.message)
	}

	m.Update(keys("f"))
	m.Update(press(0, 1))
	m.Update(release(0, 1))
	m.Update(keys("w"))
	if want := "wrote " + path; m.message != want {
		t.Errorf("unexpected message: got:%q want:%q", m.message, want)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("unexpected error opening export: %v", err)
	}
	defer f.Close()
	info, err := export.InspectGIF(f)
	if err != nil {
		t.Fatalf("unexpected error inspecting export: %v", err)
	}
	if info.Frames != 1 || info.Width != 20 || info.Height != 10 {
		t.Errorf("unexpected export: %+v", info)
	}
}

func TestConfig(t *testing.T) {
	var level slog.LevelVar
	addSource := slogext.NewAtomicBool(false)
	m := newModel(t, Options{Level: &level, AddSource: addSource})
	s := m.session

	cfg := config.Default()
	cfg.Playback.FPS = 24
	cfg.Onion.Opacity = 0.5
	cfg.Export.Path = "out.gif"
	cfg.Log.Level = "debug"
	cfg.Log.AddSource = true
	m.Update(ConfigMsg{Config: cfg})

	got := struct {
		FPS       int
		Path      string
		Level     slog.Level
		AddSource bool
		Message   string
	}{s.FPS(), m.path, level.Level(), addSource.Load(), m.message}
	want := struct {
		FPS       int
		Path      string
		Level     slog.Level
		AddSource bool
		Message   string
	}{24, "out.gif", slog.LevelDebug, true, "config reloaded"}
	if !cmp.Equal(want, got) {
		t.Errorf("unexpected configured state:\n--- want:\n+++ got:\n%s", cmp.Diff(want, got))
	}

	cfg = config.Default()
	cfg.Log.Level = "loud"
	m.Update(ConfigMsg{Config: cfg})
	if !strings.Contains(m.message, "loud") {
		t.Errorf("unexpected message for invalid level: %q", m.message)
	}
}

func TestView(t *testing.T) {
	m := newModel(t, Options{})
	m.Update(keys("a"))

	view := m.View()
	if got, want := strings.Count(view, "\n"), 12; got != want {
		t.Errorf("unexpected number of view lines: got:%d want:%d", got+1, want+1)
	}
	for _, want := range []string{"frames=2 current=1", "tool=brush", "fps=12", "▀", "›"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m.Update(keys("?"))
	view = m.View()
	if !strings.Contains(view, "eraser") {
		t.Errorf("help view missing tools:\n%s", view)
	}
}

func TestTimerCancel(t *testing.T) {
	var timer Timer
	timer.Schedule(animation.Tick{Period: time.Millisecond})
	timer.Cancel()
	if timer.take() != nil {
		t.Error("unexpected pending tick after cancel")
	}
}
