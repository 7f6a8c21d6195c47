// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DefaultName is the default artifact file name.
const DefaultName = "animation.gif"

// WriteFile encodes frames with enc and writes the result to path. The
// write holds an exclusive lock on path+".lock" and replaces any existing
// file at path only once encoding has succeeded.
func WriteFile(ctx context.Context, path string, enc Encoder, frames []Frame, log *slog.Logger) (err error) {
	log = log.With(slog.String("component", "export"))

	lockPath := path + ".lock"
	fl := flock.New(lockPath)
	ok, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("could not lock %s", path)
	}
	defer func() {
		fl.Unlock()
		os.Remove(lockPath)
	}()

	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()
	w := bufio.NewWriter(f)
	err = enc.Encode(w, frames)
	if err != nil {
		f.Close()
		return err
	}
	err = errors.Join(w.Flush(), f.Chmod(0o644), f.Close())
	if err != nil {
		return err
	}
	err = os.Rename(f.Name(), path)
	if err != nil {
		return err
	}
	log.LogAttrs(ctx, slog.LevelInfo, "wrote animation",
		slog.String("path", path),
		slog.Int("frames", len(frames)),
	)
	return nil
}
