// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package animation

import (
	"context"
	"time"
)

// Loop is a Timer backed by a [time.Timer]. Ticks are delivered by Run.
//
// A Loop is not safe for concurrent use; Schedule and Cancel must be
// called from the goroutine calling Run, or while Run is not executing.
type Loop struct {
	timer   *time.Timer
	pending *Tick
}

// Schedule implements the Timer interface.
func (l *Loop) Schedule(t Tick) {
	if l.timer == nil {
		l.timer = time.NewTimer(t.Period)
	} else {
		l.timer.Reset(t.Period)
	}
	l.pending = &t
}

// Cancel implements the Timer interface.
func (l *Loop) Cancel() {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.pending = nil
}

// Pending returns whether a tick is waiting to be delivered.
func (l *Loop) Pending() bool { return l.pending != nil }

// Run delivers ticks to fn as they fall due until ctx is done. A tick
// that is pending when ctx is done remains pending and will be delivered
// by a later call to Run.
func (l *Loop) Run(ctx context.Context, fn func(Tick)) error {
	for {
		var c <-chan time.Time
		if l.pending != nil {
			c = l.timer.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c:
			t := *l.pending
			l.pending = nil
			fn(t)
		}
	}
}
