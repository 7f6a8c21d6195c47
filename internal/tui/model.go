// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tui provides a terminal interface to an editing session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync/atomic"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kortschak/flipbook/internal/animation"
	"github.com/kortschak/flipbook/internal/config"
	"github.com/kortschak/flipbook/internal/export"
	"github.com/kortschak/flipbook/internal/raster"
	"github.com/kortschak/flipbook/internal/session"
)

// palette is the set of colours selected by the number keys.
var palette = []color.NRGBA{
	{A: 0xff},
	{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	{R: 0xff, A: 0xff},
	{G: 0xff, A: 0xff},
	{B: 0xff, A: 0xff},
	{R: 0xff, G: 0xff, A: 0xff},
	{R: 0xff, B: 0xff, A: 0xff},
	{G: 0xff, B: 0xff, A: 0xff},
}

// ConfigMsg is sent to the model to apply a configuration change.
type ConfigMsg config.Change

// Model is a bubbletea model for an editing session.
type Model struct {
	ctx     context.Context
	session *session.Session
	timer   *Timer

	path string
	enc  export.Encoder

	// level and addSource are the root logger's
	// dynamic settings.
	level     *slog.LevelVar
	addSource *atomic.Bool

	// copy writes text to the clipboard.
	copy func(string) error

	width, height int
	help          bool
	message       string

	log *slog.Logger
}

// Options are the host parameters of a Model.
type Options struct {
	// Path is the export artifact path.
	Path string
	// Encoder is the export encoder.
	Encoder export.Encoder

	// Level and AddSource, if not nil, are updated
	// by configuration changes.
	Level     *slog.LevelVar
	AddSource *atomic.Bool
}

// New returns a Model for s. The session's playback timer must be timer.
func New(ctx context.Context, s *session.Session, timer *Timer, opts Options, log *slog.Logger) *Model {
	return &Model{
		ctx:       ctx,
		session:   s,
		timer:     timer,
		path:      opts.Path,
		enc:       opts.Encoder,
		level:     opts.Level,
		addSource: opts.AddSource,
		copy:      clipboard.WriteAll,
		width:     80,
		height:    24,
		log:       log.With(slog.String("component", "tui")),
	}
}

// Init implements the tea.Model interface.
func (m *Model) Init() tea.Cmd { return nil }

// Update implements the tea.Model interface.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		cmd = m.key(msg)
	case tea.MouseMsg:
		m.mouse(msg)
	case tickMsg:
		m.session.Tick(msg.Tick)
	case ConfigMsg:
		m.configure(config.Change(msg))
	}
	return m, tea.Batch(cmd, m.timer.take())
}

func (m *Model) key(msg tea.KeyMsg) tea.Cmd {
	s := m.session
	var err error
	switch k := msg.String(); k {
	case "q", "ctrl+c":
		s.Stop()
		return tea.Quit
	case "b":
		err = s.SetTool(session.Brush)
	case "e":
		err = s.SetTool(session.Eraser)
	case "o":
		err = s.SetTool(session.Ellipse)
	case "r":
		err = s.SetTool(session.Rectangle)
	case "f":
		err = s.SetTool(session.Fill)
	case "u":
		err = s.Undo()
	case "a":
		s.AddFrame()
	case "d":
		_, err = s.Duplicate()
	case "x":
		_, err = s.Delete()
	case "c":
		s.Clear()
	case "left":
		_, err = s.Select(s.Current() - 1)
	case "right":
		_, err = s.Select(s.Current() + 1)
	case " ":
		if s.State() == animation.Running {
			s.Stop()
		} else {
			err = s.Play()
		}
	case "+", "=":
		err = s.SetFPS(s.FPS() + 1)
	case "-":
		err = s.SetFPS(s.FPS() - 1)
	case "[":
		err = s.SetSize(s.Size() - 1)
	case "]":
		err = s.SetSize(s.Size() + 1)
	case "1", "2", "3", "4", "5", "6", "7", "8":
		s.SetColor(palette[k[0]-'1'])
	case "y":
		hex := raster.Hex(s.Color())
		err = m.copy(hex)
		if err == nil {
			m.message = "copied " + hex
			return nil
		}
	case "w":
		err = s.ExportFile(m.ctx, m.path, m.enc)
		if err == nil {
			m.message = "wrote " + m.path
			return nil
		}
	case "?":
		m.help = !m.help
	default:
		return nil
	}
	m.report(err)
	return nil
}

func (m *Model) mouse(msg tea.MouseMsg) {
	s := m.session
	var err error
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if i, ok := m.thumbAt(msg.X, msg.Y); ok {
			_, err = s.Select(i)
			break
		}
		x, y, ok := m.pixelAt(msg.X, msg.Y)
		if !ok {
			return
		}
		err = s.PointerDown(x, y)
	case tea.MouseActionMotion:
		x, y, _ := m.pixelAt(msg.X, msg.Y)
		s.PointerMove(x, y)
		return
	case tea.MouseActionRelease:
		x, y, _ := m.pixelAt(msg.X, msg.Y)
		err = s.PointerUp(x, y)
	default:
		return
	}
	m.report(err)
}

// report sets the status message for the result of an operation.
func (m *Model) report(err error) {
	if err == nil {
		m.message = ""
		return
	}
	m.message = err.Error()
	m.log.LogAttrs(m.ctx, slog.LevelWarn, "operation failed", slog.Any("error", err))
}

func (m *Model) configure(c config.Change) {
	if c.Err != nil {
		m.log.LogAttrs(m.ctx, slog.LevelWarn, "config error", slog.Any("error", c.Err))
		m.message = fmt.Sprintf("config: %v", c.Err)
	}
	if c.Config == nil {
		return
	}
	cfg := c.Config
	s := m.session
	var errs []error
	if cfg.Playback.FPS != s.FPS() {
		errs = append(errs, s.SetFPS(cfg.Playback.FPS))
	}
	s.SetOnionOpacity(cfg.Onion.Opacity)
	bg, err := raster.WebColor(cfg.Export.Background)
	if err == nil {
		s.SetBackground(bg)
	}
	errs = append(errs, err)
	m.path = cfg.Export.Path
	if m.level != nil {
		level, err := cfg.LogLevel()
		if err == nil {
			m.level.Set(level)
		}
		errs = append(errs, err)
	}
	if m.addSource != nil {
		m.addSource.Store(cfg.Log.AddSource)
	}
	if err := errors.Join(errs...); err != nil {
		m.report(err)
		return
	}
	if c.Err == nil {
		m.message = "config reloaded"
	}
	m.log.LogAttrs(m.ctx, slog.LevelInfo, "applied config", slog.String("op", c.Op().String()), slog.String("sum", c.Sum.String()))
}
