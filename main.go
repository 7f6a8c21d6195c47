// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The flipbook command is a raster frame animation editor. It runs as a
// terminal application or, with the -script flag, executes a file of
// editing commands without a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kortschak/flipbook/internal/animation"
	"github.com/kortschak/flipbook/internal/config"
	"github.com/kortschak/flipbook/internal/export"
	"github.com/kortschak/flipbook/internal/raster"
	"github.com/kortschak/flipbook/internal/script"
	"github.com/kortschak/flipbook/internal/session"
	"github.com/kortschak/flipbook/internal/slogext"
	"github.com/kortschak/flipbook/internal/tui"
	"github.com/kortschak/flipbook/internal/version"
	"github.com/kortschak/flipbook/internal/xdg"
)

const app = "flipbook"

// Exit status codes.
const (
	success         = 0
	internalError   = 1
	invocationError = 2
)

func main() {
	os.Exit(Main())
}

// Main runs the flipbook command and returns its exit status.
func Main() int {
	logging := flag.String("log", "", "logging level (debug, info, warn or error) overriding the configured level")
	lines := flag.Bool("lines", false, "display source line details in logs")
	v := flag.Bool("version", false, "print version and exit")
	cfgPath := flag.String("config", "", "configuration file path (default $XDG_CONFIG_HOME/flipbook/flipbook.toml)")
	scriptPath := flag.String("script", "", "run the editing commands in the named file (- for stdin) instead of the terminal interface")
	out := flag.String("out", "", "export path overriding the configured path")
	logFile := flag.String("log_file", "", "log file for the terminal interface (default $XDG_STATE_HOME/flipbook/flipbook.log)")
	flag.Parse()
	if *v {
		err := version.Print(os.Stdout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return internalError
		}
		return success
	}
	if flag.NArg() != 0 {
		flag.Usage()
		return invocationError
	}

	if *cfgPath == "" {
		var ok bool
		*cfgPath, ok = xdg.ConfigFile(app, config.Name)
		if !ok {
			*cfgPath = ""
		}
	}
	cfg := config.Default()
	var sum config.Sum
	var cfgErr error
	if *cfgPath != "" {
		var c *config.Config
		c, sum, cfgErr = config.Load(*cfgPath)
		if c == nil {
			fmt.Fprintf(os.Stderr, "failed to read config: %v\n", cfgErr)
			return invocationError
		}
		cfg = c
	}
	if *out != "" {
		cfg.Export.Path = *out
	}

	var level slog.LevelVar
	l, err := cfg.LogLevel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return invocationError
	}
	level.Set(l)
	if *logging != "" {
		err = level.UnmarshalText([]byte(*logging))
		if err != nil {
			flag.Usage()
			return invocationError
		}
	}
	addSource := slogext.NewAtomicBool(*lines || cfg.Log.AddSource)

	logw := io.Writer(os.Stderr)
	if *scriptPath == "" {
		f, err := openLog(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			return internalError
		}
		defer f.Close()
		logw = f
	}
	// log is the root logger.
	log := slog.New(slogext.GoID{Handler: slogext.NewJSONHandler(logw, &slogext.HandlerOptions{
		Level:     &level,
		AddSource: addSource,
	})})
	// mlog is the logger for main.
	mlog := log.With(slog.String("component", "flipbook.main"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	mlog.LogAttrs(ctx, slog.LevelInfo, "config", slog.String("path", *cfgPath), slog.String("sum", sum.String()))
	if cfgErr != nil {
		mlog.LogAttrs(ctx, slog.LevelWarn, "config error", slog.Any("error", cfgErr))
	}

	if *scriptPath != "" {
		return runScript(ctx, *scriptPath, cfg, log)
	}
	return runTerminal(ctx, *cfgPath, cfg, sum, *out, &level, addSource, log)
}

// openLog opens the named log file for appending, creating it and its
// directory if necessary. If name is empty a file in the user's state
// directory is used.
func openLog(name string) (*os.File, error) {
	if name == "" {
		var ok bool
		name, ok = xdg.StateFile(app, app+".log")
		if !ok {
			return nil, errors.New("no xdg state directory")
		}
	}
	err := os.MkdirAll(filepath.Dir(name), 0o755)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
}

// sessionOptions returns the session parameters held in cfg.
func sessionOptions(cfg *config.Config, timer animation.Timer) (session.Options, error) {
	bg, err := raster.WebColor(cfg.Export.Background)
	if err != nil {
		return session.Options{}, err
	}
	col, err := raster.WebColor(cfg.Brush.Color)
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Width:        cfg.Canvas.Width,
		Height:       cfg.Canvas.Height,
		FPS:          cfg.Playback.FPS,
		HistoryDepth: cfg.History.Depth,
		OnionOpacity: cfg.Onion.Opacity,
		Background:   bg,
		Tool:         session.Brush,
		BrushSize:    cfg.Brush.Size,
		Color:        col,
		Timer:        timer,
	}, nil
}

func runScript(ctx context.Context, path string, cfg *config.Config, log *slog.Logger) int {
	src := io.Reader(os.Stdin)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return invocationError
		}
		defer f.Close()
		src = f
	}
	cmds, err := script.Parse(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		var serr *script.SyntaxError
		if errors.As(err, &serr) {
			return invocationError
		}
		return internalError
	}

	var loop animation.Loop
	opts, err := sessionOptions(cfg, &loop)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return internalError
	}
	s, err := session.New(opts, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return internalError
	}
	r := script.NewRunner(s, &loop, os.Stdout, cfg.Export.Path, export.GIF{}, log)
	err = r.Run(ctx, cmds)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return internalError
	}
	return success
}

func runTerminal(ctx context.Context, cfgPath string, cfg *config.Config, sum config.Sum, out string, level *slog.LevelVar, addSource *atomic.Bool, log *slog.Logger) int {
	mlog := log.With(slog.String("component", "flipbook.main"))

	timer := &tui.Timer{}
	opts, err := sessionOptions(cfg, timer)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return internalError
	}
	s, err := session.New(opts, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return internalError
	}
	m := tui.New(ctx, s, timer, tui.Options{
		Path:      cfg.Export.Path,
		Encoder:   export.GIF{},
		Level:     level,
		AddSource: addSource,
	}, log)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	if cfgPath != "" {
		watch(ctx, cfgPath, sum, out, p, mlog)
	}

	_, err = p.Run()
	if err != nil {
		mlog.LogAttrs(ctx, slog.LevelError, "terminal", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		return internalError
	}
	return success
}

// watch starts forwarding changes to the configuration file at path to
// p until ctx is cancelled. A non-empty out overrides the configured
// export path.
func watch(ctx context.Context, path string, sum config.Sum, out string, p *tea.Program, log *slog.Logger) {
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		log.LogAttrs(ctx, slog.LevelInfo, "not watching config", slog.Any("error", err))
		return
	}
	changes := make(chan config.Change)
	go func() {
		err := config.Watch(ctx, path, sum, changes, -1, log)
		if err != nil {
			log.LogAttrs(ctx, slog.LevelError, "config watcher", slog.Any("error", err))
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-changes:
				if c.Config != nil && out != "" {
					c.Config.Export.Path = out
				}
				p.Send(tui.ConfigMsg(c))
			}
		}
	}()
}
