// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package frame provides the ordered frame store of an animation.
package frame

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"

	"github.com/kortschak/flipbook/internal/raster"
	"github.com/kortschak/flipbook/internal/slogext"
)

var (
	// ErrIndexOutOfRange is returned when a frame index does not
	// refer to a slot in the store.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrCannotDeleteLast is returned when deleting the only
	// remaining slot.
	ErrCannotDeleteLast = errors.New("cannot delete last frame")

	// ErrNothingToDuplicate is returned when duplicating an
	// empty slot.
	ErrNothingToDuplicate = errors.New("nothing to duplicate")
)

// Recorder records committed frame states.
type Recorder interface {
	Push(*raster.Buffer) error
}

// Store is an ordered sequence of frame slots and a cursor marking the
// current slot. A slot is either empty, rendering as fully transparent, or
// populated with a buffer owned by the store. A Store always holds at
// least one slot.
//
// Methods that change the structure of the store or its contents advance
// the store's version.
//
// A Store is not safe for concurrent use.
type Store struct {
	width   int
	height  int
	slots   []*raster.Buffer
	current int
	version uint64

	rec Recorder
	log *slog.Logger
}

// New returns a Store for width×height frames holding a single empty slot.
// Commits to the store are recorded in rec if it is not nil.
func New(width, height int, rec Recorder, log *slog.Logger) *Store {
	s := &Store{
		width:  width,
		height: height,
		rec:    rec,
		log:    log.With(slog.String("component", "frame")),
	}
	s.Append()
	return s
}

// Len returns the number of slots in the store.
func (s *Store) Len() int { return len(s.slots) }

// Current returns the index of the current slot.
func (s *Store) Current() int { return s.current }

// Version returns a counter that changes whenever the store changes.
func (s *Store) Version() uint64 { return s.version }

// Width returns the width of frames in the store.
func (s *Store) Width() int { return s.width }

// Height returns the height of frames in the store.
func (s *Store) Height() int { return s.height }

// Frame returns the buffer held in slot i, or nil if the slot is empty or
// i is out of range. The returned buffer is owned by the store and must
// not be retained or altered by the caller.
func (s *Store) Frame(i int) *raster.Buffer {
	if i < 0 || len(s.slots) <= i {
		return nil
	}
	return s.slots[i]
}

// Populated returns whether slot i holds a buffer.
func (s *Store) Populated(i int) bool {
	return s.Frame(i) != nil
}

// Append adds an empty slot at the end of the store and makes it current.
// It returns the new current index.
func (s *Store) Append() int {
	s.slots = append(s.slots, nil)
	s.current = len(s.slots) - 1
	s.changed("append")
	return s.current
}

// Duplicate inserts a deep copy of slot at immediately after it and makes
// the copy current. It returns the new current index.
func (s *Store) Duplicate(at int) (int, error) {
	if at < 0 || len(s.slots) <= at {
		return s.current, s.fail("duplicate", fmt.Errorf("duplicate %d of %d frames: %w", at, len(s.slots), ErrIndexOutOfRange))
	}
	if s.slots[at] == nil {
		return s.current, s.fail("duplicate", fmt.Errorf("duplicate frame %d: %w", at, ErrNothingToDuplicate))
	}
	s.slots = slices.Insert(s.slots, at+1, s.slots[at].Clone())
	s.current = at + 1
	s.changed("duplicate")
	return s.current, nil
}

// Delete removes slot at. The slot before at, or the first slot if at is
// zero, becomes current. It returns the new current index.
func (s *Store) Delete(at int) (int, error) {
	if at < 0 || len(s.slots) <= at {
		return s.current, s.fail("delete", fmt.Errorf("delete %d of %d frames: %w", at, len(s.slots), ErrIndexOutOfRange))
	}
	if len(s.slots) == 1 {
		return s.current, s.fail("delete", ErrCannotDeleteLast)
	}
	s.slots = slices.Delete(s.slots, at, at+1)
	s.current = max(0, at-1)
	s.changed("delete")
	return s.current, nil
}

// Select makes slot i current and returns i.
func (s *Store) Select(i int) (int, error) {
	if i < 0 || len(s.slots) <= i {
		return s.current, s.fail("select", fmt.Errorf("select %d of %d frames: %w", i, len(s.slots), ErrIndexOutOfRange))
	}
	s.current = i
	s.changed("select")
	return s.current, nil
}

// Commit replaces the current slot with a copy of b and records the new
// state. It returns the current index. If the state cannot be recorded the
// store is not altered.
func (s *Store) Commit(b *raster.Buffer) (int, error) {
	err := s.checkSize(b)
	if err != nil {
		return s.current, s.fail("commit", err)
	}
	if s.rec != nil {
		err = s.rec.Push(b)
		if err != nil {
			return s.current, s.fail("commit", err)
		}
	}
	s.slots[s.current] = b.Clone()
	s.changed("commit")
	return s.current, nil
}

// Restore replaces the current slot with a copy of b without recording
// the change. It is used to apply a state recovered from history.
func (s *Store) Restore(b *raster.Buffer) error {
	err := s.checkSize(b)
	if err != nil {
		return s.fail("restore", err)
	}
	s.slots[s.current] = b.Clone()
	s.changed("restore")
	return nil
}

func (s *Store) checkSize(b *raster.Buffer) error {
	if b == nil {
		return errors.New("nil buffer")
	}
	if b.Width() != s.width || b.Height() != s.height {
		return fmt.Errorf("buffer size %dx%d does not match frame size %dx%d", b.Width(), b.Height(), s.width, s.height)
	}
	return nil
}

func (s *Store) changed(op string) {
	s.version++
	s.log.LogAttrs(context.Background(), slog.LevelDebug, op,
		slog.Int("len", len(s.slots)),
		slog.Int("current", s.current),
		slog.Any("frame", slogext.Image{Image: s.image(s.current)}),
	)
}

// image returns the frame at i with a nil interface value for empty slots.
func (s *Store) image(i int) image.Image {
	b := s.Frame(i)
	if b == nil {
		return nil
	}
	return b
}

func (s *Store) fail(op string, err error) error {
	s.log.LogAttrs(context.Background(), slog.LevelDebug, op, slog.Any("error", err))
	return err
}
