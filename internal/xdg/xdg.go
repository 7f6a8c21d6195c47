// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xdg provides lookup of per-application configuration and state
// files following the XDG base directory conventions.
package xdg

import (
	"os"
	"path/filepath"
)

// ConfigFile returns the path of the named configuration file for app.
// The user's config directory is searched first, followed by the system
// config directories. If the file is not found, the path it would have in
// the user's config directory is returned. ConfigFile returns false if
// the user's config directory cannot be determined.
func ConfigFile(app, name string) (string, bool) {
	rel := filepath.Join(app, name)
	var dirs []string
	home, ok := dir(key_XDG_CONFIG_HOME, def_XDG_CONFIG_HOME, _HOME)
	if ok {
		dirs = append(dirs, home)
	}
	if global, ok := dir(key_XDG_CONFIG_DIRS, def_XDG_CONFIG_DIRS, ""); ok {
		dirs = append(dirs, filepath.SplitList(global)...)
	}
	if path, ok := first(rel, dirs); ok {
		return path, true
	}
	if !ok {
		return "", false
	}
	return filepath.Join(home, rel), true
}

// StateFile returns the path of the named state file for app in the
// user's state directory. The file and its directory may not exist.
func StateFile(app, name string) (string, bool) {
	home, ok := dir(key_XDG_STATE_HOME, def_XDG_STATE_HOME, _HOME)
	if !ok {
		return "", false
	}
	return filepath.Join(home, app, name), true
}

// first returns the first existing path to rel under dirs.
func first(rel string, dirs []string) (string, bool) {
	for _, d := range dirs {
		path := filepath.Join(d, rel)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// dir returns the directory or directory list held in the environment
// variable key, or def if key is not set. A relative def is resolved
// against the directory held in the environment variable home, unless
// home is empty.
func dir(key, def, home string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	if def == "" {
		return "", false
	}
	if home == "" || filepath.IsAbs(def) {
		return def, true
	}
	base, ok := os.LookupEnv(home)
	if !ok {
		return "", false
	}
	return filepath.Join(base, def), true
}
