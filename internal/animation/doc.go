// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package animation provides timer-driven frame playback.
//
// A [Scheduler] is a two state machine, [Stopped] and [Running], that
// yields the index of the next frame to display each time a [Tick] it
// scheduled is delivered back to it. The delivery of ticks is the
// responsibility of a [Timer], so the scheduler is independent of any
// particular clock. [Loop] is a Timer backed by a [time.Timer] for hosts
// without their own event loop.
package animation
