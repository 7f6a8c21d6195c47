// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package animation

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// State is the playback state of a Scheduler.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Tick is a single scheduled playback step. Ticks are only meaningful to
// the Scheduler that created them.
type Tick struct {
	gen uint64

	// Period is the delay between scheduling
	// the tick and its delivery.
	Period time.Duration
}

// Timer delivers ticks back to a Scheduler after their period has elapsed.
// At most one tick is pending at a time.
type Timer interface {
	// Schedule arranges for t to be delivered after t.Period,
	// replacing any pending tick.
	Schedule(t Tick)
	// Cancel discards any pending tick. It is a no-op if no
	// tick is pending.
	Cancel()
}

// Period returns the tick period for the given frame rate.
func Period(fps int) time.Duration {
	return time.Second / time.Duration(fps)
}

// Scheduler is a playback state machine. While running, each tick delivered
// by its timer yields the next frame index to display, cycling through a
// sequence. Restarting playback cancels the pending tick before scheduling
// a new one, so at most one tick is ever live and ticks delivered from an
// earlier run are ignored.
//
// A Scheduler is not safe for concurrent use.
type Scheduler struct {
	timer Timer
	state State
	fps   int
	gen   uint64
	next  int

	log *slog.Logger
}

// NewScheduler returns a stopped Scheduler using timer to deliver ticks.
func NewScheduler(timer Timer, log *slog.Logger) *Scheduler {
	return &Scheduler{
		timer: timer,
		log:   log.With(slog.String("component", "animation")),
	}
}

// State returns the current playback state.
func (s *Scheduler) State() State { return s.state }

// FPS returns the frame rate of the last call to Play.
func (s *Scheduler) FPS() int { return s.fps }

// Play starts playback from the first frame at fps frames per second. If
// the scheduler is already running, it is stopped first, so the phase of
// the new run starts from the call to Play.
func (s *Scheduler) Play(fps int) error {
	if fps < 1 {
		return fmt.Errorf("invalid frame rate: %d", fps)
	}
	s.Stop()
	s.gen++
	s.fps = fps
	s.next = 0
	s.state = Running
	t := Tick{gen: s.gen, Period: Period(fps)}
	s.log.LogAttrs(context.Background(), slog.LevelDebug, "play",
		slog.Int("fps", fps),
		slog.Duration("period", t.Period),
		slog.Uint64("gen", t.gen),
	)
	s.timer.Schedule(t)
	return nil
}

// Stop stops playback and cancels any pending tick. It is a no-op if the
// scheduler is stopped. No tick scheduled before Stop returns will be
// accepted by Advance.
func (s *Scheduler) Stop() {
	if s.state == Stopped {
		return
	}
	s.gen++
	s.state = Stopped
	s.timer.Cancel()
	s.log.LogAttrs(context.Background(), slog.LevelDebug, "stop")
}

// Advance handles the delivery of t for a sequence of n frames. If t is
// the live tick of a running scheduler, Advance returns the index of the
// frame to display and true, and schedules the following tick. Otherwise
// it returns false.
func (s *Scheduler) Advance(t Tick, n int) (index int, ok bool) {
	if s.state != Running || t.gen != s.gen {
		s.log.LogAttrs(context.Background(), slog.LevelDebug, "ignore stale tick",
			slog.Uint64("gen", t.gen),
			slog.Uint64("live", s.gen),
		)
		return 0, false
	}
	if n < 1 {
		s.Stop()
		return 0, false
	}
	index = s.next
	if index >= n {
		// The sequence shrank during playback.
		index = 0
	}
	s.next = (index + 1) % n
	s.timer.Schedule(t)
	return index, true
}
