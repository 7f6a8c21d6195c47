// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package history provides a bounded linear undo history of buffer
// snapshots.
package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"

	"github.com/kortschak/flipbook/internal/raster"
)

// ErrNothingToUndo is returned by Undo when the history is at its floor.
var ErrNothingToUndo = errors.New("nothing to undo")

// DefaultDepth is the default maximum number of snapshots held.
const DefaultDepth = 100

// Snapshot is an encoded, independent copy of a buffer's pixels.
type Snapshot struct {
	data []byte
}

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

// Encode returns a Snapshot of b. Later changes to b are not reflected in
// the snapshot.
func Encode(b *raster.Buffer) (Snapshot, error) {
	var buf bytes.Buffer
	err := encoder.Encode(&buf, b.NRGBA())
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{data: buf.Bytes()}, nil
}

// Decode returns a new buffer holding the snapshot's pixels.
func (s Snapshot) Decode() (*raster.Buffer, error) {
	if s.data == nil {
		return nil, errors.New("empty snapshot")
	}
	img, err := png.Decode(bytes.NewReader(s.data))
	if err != nil {
		return nil, err
	}
	return raster.FromImage(img), nil
}

// Size returns the encoded size of the snapshot in bytes.
func (s Snapshot) Size() int { return len(s.data) }

// Stack is a capacity-bounded stack of snapshots, oldest first. When a
// push would exceed the capacity the oldest snapshot is evicted. The
// history is a single linear timeline; it has no knowledge of which frame
// a snapshot was taken from.
//
// A Stack is not safe for concurrent use.
type Stack struct {
	depth int
	snaps []Snapshot

	log *slog.Logger
}

// New returns a new empty Stack holding at most depth snapshots. If depth
// is less than one, DefaultDepth is used.
func New(depth int, log *slog.Logger) *Stack {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &Stack{
		depth: depth,
		snaps: make([]Snapshot, 0, depth),
		log:   log.With(slog.String("component", "history")),
	}
}

// Push encodes a snapshot of b and pushes it on to the stack, evicting the
// oldest snapshot if the stack is full.
func (s *Stack) Push(b *raster.Buffer) error {
	ctx := context.Background()
	snap, err := Encode(b)
	if err != nil {
		s.log.LogAttrs(ctx, slog.LevelError, "encode snapshot", slog.Any("error", err))
		return fmt.Errorf("snapshot: %w", err)
	}
	if len(s.snaps) == s.depth {
		n := copy(s.snaps, s.snaps[1:])
		s.snaps[n] = Snapshot{}
		s.snaps = s.snaps[:n]
		s.log.LogAttrs(ctx, slog.LevelDebug, "evict oldest", slog.Int("depth", s.depth))
	}
	s.snaps = append(s.snaps, snap)
	s.log.LogAttrs(ctx, slog.LevelDebug, "push", slog.Int("len", len(s.snaps)), slog.Int("size", snap.Size()))
	return nil
}

// Undo discards the most recent snapshot and returns the state held by the
// new top of the stack. The last remaining snapshot is never discarded;
// Undo returns ErrNothingToUndo when the stack holds one or no snapshots.
// A discarded snapshot cannot be recovered.
func (s *Stack) Undo() (*raster.Buffer, error) {
	if len(s.snaps) <= 1 {
		return nil, ErrNothingToUndo
	}
	top, err := s.snaps[len(s.snaps)-2].Decode()
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}
	s.snaps[len(s.snaps)-1] = Snapshot{}
	s.snaps = s.snaps[:len(s.snaps)-1]
	s.log.LogAttrs(context.Background(), slog.LevelDebug, "undo", slog.Int("len", len(s.snaps)))
	return top, nil
}

// Top returns the most recent snapshot.
func (s *Stack) Top() (Snapshot, bool) {
	if len(s.snaps) == 0 {
		return Snapshot{}, false
	}
	return s.snaps[len(s.snaps)-1], true
}

// Len returns the number of snapshots held.
func (s *Stack) Len() int { return len(s.snaps) }

// Depth returns the maximum number of snapshots held.
func (s *Stack) Depth() int { return s.depth }
