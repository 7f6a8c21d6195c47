// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/kortschak/flipbook/internal/animation"
	"github.com/kortschak/flipbook/internal/export"
	"github.com/kortschak/flipbook/internal/raster"
	"github.com/kortschak/flipbook/internal/session"
)

// Runner executes script commands against a session.
type Runner struct {
	session *session.Session
	loop    *animation.Loop
	out     io.Writer

	// path is the default export path.
	path string
	enc  export.Encoder

	log *slog.Logger
}

// NewRunner returns a Runner for s, writing command output to out. The
// session's playback ticks must be delivered by loop. Exports without an
// explicit path are written to path.
func NewRunner(s *session.Session, loop *animation.Loop, out io.Writer, path string, enc export.Encoder, log *slog.Logger) *Runner {
	return &Runner{
		session: s,
		loop:    loop,
		out:     out,
		path:    path,
		enc:     enc,
		log:     log.With(slog.String("component", "script")),
	}
}

// Run executes cmds in order. Failed operations are reported on the
// runner's output and execution continues. Run returns a non-nil error
// only if ctx is cancelled or the output cannot be written.
func (r *Runner) Run(ctx context.Context, cmds []Command) error {
	for _, c := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.log.LogAttrs(ctx, slog.LevelDebug, "run", slog.Int("line", c.Line), slog.String("command", c.String()))
		err := r.exec(ctx, c)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var werr writeError
			if errors.As(err, &werr) {
				return werr.error
			}
			r.log.LogAttrs(ctx, slog.LevelWarn, "command failed", slog.Int("line", c.Line), slog.String("command", c.String()), slog.Any("error", err))
			_, err = fmt.Fprintf(r.out, "error: %v\n", err)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// writeError is a failure to write command output.
type writeError struct{ error }

func (r *Runner) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(r.out, format, args...)
	if err != nil {
		return writeError{err}
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, c Command) error {
	s := r.session
	switch c.Name {
	case "tool":
		t, err := session.ParseTool(c.Args[0])
		if err != nil {
			return err
		}
		return s.SetTool(t)
	case "color":
		col, err := raster.WebColor(c.Args[0])
		if err != nil {
			return err
		}
		s.SetColor(col)
		return nil
	case "size":
		size, err := strconv.ParseFloat(c.Args[0], 64)
		if err != nil {
			return err
		}
		return s.SetSize(size)
	case "down":
		x, y := r.point(c)
		return s.PointerDown(x, y)
	case "move":
		x, y := r.point(c)
		s.PointerMove(x, y)
		return nil
	case "up":
		x, y := r.point(c)
		return s.PointerUp(x, y)
	case "fill":
		x, y := r.point(c)
		return s.FillAt(x, y)
	case "add":
		s.AddFrame()
		return nil
	case "dup":
		_, err := s.Duplicate()
		return err
	case "delete":
		_, err := s.Delete()
		return err
	case "select":
		i, _ := strconv.Atoi(c.Args[0])
		_, err := s.Select(i)
		return err
	case "clear":
		s.Clear()
		return nil
	case "undo":
		return s.Undo()
	case "fps":
		fps, _ := strconv.Atoi(c.Args[0])
		return s.SetFPS(fps)
	case "play":
		if len(c.Args) != 0 {
			fps, _ := strconv.Atoi(c.Args[0])
			if s.State() == animation.Running {
				return s.SetFPS(fps)
			}
			err := s.SetFPS(fps)
			if err != nil {
				return err
			}
		}
		return s.Play()
	case "stop":
		s.Stop()
		return nil
	case "wait":
		d, _ := time.ParseDuration(c.Args[0])
		return r.wait(ctx, d)
	case "export":
		path := r.path
		if len(c.Args) != 0 {
			path = c.Args[0]
		}
		frames, err := s.Export()
		if err != nil {
			return err
		}
		err = export.WriteFile(ctx, path, r.enc, frames, r.log)
		if err != nil {
			return err
		}
		return r.printf("wrote %s (%d frames)\n", path, len(frames))
	case "inspect":
		f, err := os.Open(c.Args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := export.InspectGIF(f)
		if err != nil {
			return err
		}
		var delay time.Duration
		if len(info.Delay) != 0 {
			delay = info.Delay[0]
		}
		return r.printf("frames=%d size=%dx%d delay=%v loop=%d\n", info.Frames, info.Width, info.Height, delay, info.LoopCount)
	case "status":
		return r.printf("%v\n", s.Status())
	case "pixel":
		x, y := r.point(c)
		p := s.Pixel(x, y)
		return r.printf("%s%02x\n", raster.Hex(p), p.A)
	default:
		// Unreachable for parsed commands.
		return fmt.Errorf("unknown command: %q", c.Name)
	}
}

// point returns the coordinate arguments of c. Arguments have been
// checked by Parse.
func (r *Runner) point(c Command) (x, y int) {
	x, _ = strconv.Atoi(c.Args[0])
	y, _ = strconv.Atoi(c.Args[1])
	return x, y
}

// wait delivers playback ticks for d.
func (r *Runner) wait(ctx context.Context, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	var shown int
	err := r.loop.Run(ctx, func(t animation.Tick) {
		i, changed := r.session.Tick(t)
		if changed {
			shown++
			r.log.LogAttrs(ctx, slog.LevelDebug, "show frame", slog.Int("index", i))
		}
	})
	r.log.LogAttrs(ctx, slog.LevelDebug, "waited", slog.Duration("duration", d), slog.Int("shown", shown))
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
