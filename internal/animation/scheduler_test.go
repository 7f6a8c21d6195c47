// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package animation

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

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

// fakeTimer records scheduled ticks and counts the ticks that are live.
type fakeTimer struct {
	pending   *Tick
	scheduled []Tick
	cancels   int
}

func (f *fakeTimer) Schedule(t Tick) {
	f.pending = &t
	f.scheduled = append(f.scheduled, t)
}

func (f *fakeTimer) Cancel() {
	if f.pending != nil {
		f.cancels++
	}
	f.pending = nil
}

// fire delivers the pending tick to s.
func (f *fakeTimer) fire(s *Scheduler, n int) (int, bool) {
	if f.pending == nil {
		return 0, false
	}
	t := *f.pending
	f.pending = nil
	return s.Advance(t, n)
}

func TestPlayCycles(t *testing.T) {
	var timer fakeTimer
	s := NewScheduler(&timer, newLogger(t))
	if s.State() != Stopped {
		t.Fatalf("unexpected initial state: %v", s.State())
	}
	err := s.Play(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State() != Running {
		t.Fatalf("unexpected state after play: %v", s.State())
	}

	var got []int
	for i := 0; i < 7; i++ {
		idx, ok := timer.fire(s, 3)
		if !ok {
			t.Fatalf("tick %d not accepted", i)
		}
		got = append(got, idx)
	}
	want := []int{0, 1, 2, 0, 1, 2, 0}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected frame sequence:\n--- want:\n+++ got:\n%s", cmp.Diff(want, got))
	}
	for _, tick := range timer.scheduled {
		if tick.Period != 100*time.Millisecond {
			t.Errorf("unexpected period: %v", tick.Period)
		}
	}
}

func TestRestartNoDoubleAdvance(t *testing.T) {
	var timer fakeTimer
	s := NewScheduler(&timer, newLogger(t))

	err := s.Play(12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stale := *timer.pending
	if want := time.Second / 12; stale.Period != want {
		t.Errorf("unexpected period at 12fps: got:%v want:%v", stale.Period, want)
	}

	err = s.Play(24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timer.cancels != 1 {
		t.Errorf("unexpected cancel count: got:%d want:1", timer.cancels)
	}
	live := *timer.pending
	if want := time.Second / 24; live.Period != want {
		t.Errorf("unexpected period at 24fps: got:%v want:%v", live.Period, want)
	}

	// A tick from the first run that raced the restart is ignored.
	if _, ok := s.Advance(stale, 4); ok {
		t.Error("stale tick accepted")
	}
	idx, ok := timer.fire(s, 4)
	if !ok || idx != 0 {
		t.Errorf("unexpected first frame: got:%d,%t want:0,true", idx, ok)
	}
	idx, ok = timer.fire(s, 4)
	if !ok || idx != 1 {
		t.Errorf("unexpected second frame: got:%d,%t want:1,true", idx, ok)
	}
}

func TestStop(t *testing.T) {
	var timer fakeTimer
	s := NewScheduler(&timer, newLogger(t))

	// Stopping a stopped scheduler is a no-op.
	s.Stop()
	if timer.cancels != 0 || s.State() != Stopped {
		t.Errorf("unexpected stop of stopped scheduler: cancels=%d state=%v", timer.cancels, s.State())
	}

	err := s.Play(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pending := *timer.pending
	s.Stop()
	s.Stop()
	if timer.cancels != 1 {
		t.Errorf("unexpected cancel count: got:%d want:1", timer.cancels)
	}
	if _, ok := s.Advance(pending, 2); ok {
		t.Error("tick accepted after stop")
	}
	if timer.pending != nil {
		t.Error("tick scheduled after stop")
	}
}

func TestShrinkingSequence(t *testing.T) {
	var timer fakeTimer
	s := NewScheduler(&timer, newLogger(t))
	err := s.Play(30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []int{0, 1, 2} {
		idx, _ := timer.fire(s, 5)
		if idx != want {
			t.Errorf("unexpected frame: got:%d want:%d", idx, want)
		}
	}
	// Next would be 3 but the sequence now has two frames.
	idx, ok := timer.fire(s, 2)
	if !ok || idx != 0 {
		t.Errorf("unexpected frame after shrink: got:%d,%t want:0,true", idx, ok)
	}
	idx, _ = timer.fire(s, 2)
	if idx != 1 {
		t.Errorf("unexpected frame: got:%d want:1", idx)
	}
}

func TestPlayInvalid(t *testing.T) {
	var timer fakeTimer
	s := NewScheduler(&timer, newLogger(t))
	for _, fps := range []int{0, -1} {
		if err := s.Play(fps); err == nil {
			t.Errorf("expected error for fps=%d", fps)
		}
	}
	if s.State() != Stopped || timer.pending != nil {
		t.Error("invalid play altered state")
	}
}

func TestLoop(t *testing.T) {
	var loop Loop
	s := NewScheduler(&loop, newLogger(t))
	err := s.Play(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []int
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err = loop.Run(ctx, func(tick Tick) {
		idx, ok := s.Advance(tick, 2)
		if !ok {
			t.Error("live tick rejected")
			return
		}
		got = append(got, idx)
		if len(got) == 4 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error: %v", err)
	}
	want := []int{0, 1, 0, 1}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected frame sequence:\n--- want:\n+++ got:\n%s", cmp.Diff(want, got))
	}
	if !loop.Pending() {
		t.Error("expected pending tick to survive cancellation")
	}

	s.Stop()
	if loop.Pending() {
		t.Error("pending tick after stop")
	}
	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = loop.Run(ctx, func(Tick) {
		t.Error("tick delivered after stop")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("unexpected error: %v", err)
	}
}
