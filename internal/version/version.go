// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package version prints the build version.
package version

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
)

// Print prints the build version to w.
func Print(w io.Writer) error {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("no build info")
	}
	_, err := fmt.Fprintln(w, String(bi))
	return err
}

// String returns the version string for the provided build info.
func String(bi *debug.BuildInfo) string {
	var revision, modified string
	for _, bs := range bi.Settings {
		switch bs.Key {
		case "vcs.revision":
			revision = bs.Value
		case "vcs.modified":
			modified = bs.Value
		}
	}
	if revision == "" {
		return bi.Main.Version
	}
	switch modified {
	case "true":
		return fmt.Sprint(bi.Main.Version, " ", revision, " (modified)")
	case "false":
		return fmt.Sprint(bi.Main.Version, " ", revision)
	default:
		// This should never happen.
		return fmt.Sprint(bi.Main.Version, " ", revision, " ", modified)
	}
}
