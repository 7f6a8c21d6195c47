// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kortschak/flipbook/internal/animation"
)

// tickMsg delivers a playback tick to the model.
type tickMsg struct {
	animation.Tick
}

// Timer is an animation.Timer that schedules ticks as bubbletea commands.
// A scheduled tick is held until the model collects it at the end of an
// update. Commands that have already been issued cannot be withdrawn, so
// cancelled ticks may still be delivered; the scheduler ignores them.
type Timer struct {
	pending tea.Cmd
}

// Schedule implements the animation.Timer interface.
func (t *Timer) Schedule(tick animation.Tick) {
	t.pending = tea.Tick(tick.Period, func(time.Time) tea.Msg {
		return tickMsg{tick}
	})
}

// Cancel implements the animation.Timer interface.
func (t *Timer) Cancel() {
	t.pending = nil
}

// take returns and clears the pending command.
func (t *Timer) take() tea.Cmd {
	c := t.pending
	t.pending = nil
	return c
}
