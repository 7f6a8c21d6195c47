// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xdg

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

var dirTests = []struct {
	set map[string]string

	key, def, home string

	want   string
	wantOK bool
}{
	0: {
		set: map[string]string{
			"test_HOME": "testdata/home",
			"testkey":   "testdata/home/dir",
		},
		key:  "testkey",
		def:  "testdata/global_dir",
		home: "test_HOME",

		want:   "testdata/home/dir",
		wantOK: true,
	},
	1: {
		set: map[string]string{
			"test_HOME": "testdata/home",
		},
		key:  "testkey",
		def:  "testdata/global_dir",
		home: "test_HOME",

		want:   "testdata/home/testdata/global_dir",
		wantOK: true,
	},
	2: {
		set: map[string]string{
			"test_HOME": "testdata/home",
		},
		key:  "testkey",
		def:  "",
		home: "test_HOME",

		want:   "",
		wantOK: false,
	},
	3: {
		set: map[string]string{
			"test_HOME": "testdata/home",
		},
		key:  "testkey",
		def:  "testdata/global_dir",
		home: "",

		want:   "testdata/global_dir",
		wantOK: true,
	},
	4: {
		set: map[string]string{
			"test_HOME": "testdata/home",
		},
		key:  "testkey",
		def:  "testdata/global_dir",
		home: "invalid",

		want:   "",
		wantOK: false,
	},
}

func TestDir(t *testing.T) {
	for i, test := range dirTests {
		for k, v := range test.set {
			if _, ok := os.LookupEnv(k); ok {
				panic(fmt.Sprintf("already set in env: %s", k))
			}
			if k == "test_HOME" && test.home == "" {
				continue
			}
			os.Setenv(k, v)
		}

		got, gotOK := dir(test.key, test.def, test.home)
		if gotOK != test.wantOK {
			t.Errorf("unexpected ok for %d: got:%t want:%t", i, gotOK, test.wantOK)
		}
		if got != test.want {
			t.Errorf("unexpected result for %d: got:%q want:%q", i, got, test.want)
		}

		for k := range test.set {
			os.Unsetenv(k)
		}
	}
}

func TestConfigFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("config directory is not configurable by environment")
	}
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(home, "global"))

	want := filepath.Join(home, "flipbook", "flipbook.toml")
	got, ok := ConfigFile("flipbook", "flipbook.toml")
	if !ok || got != want {
		t.Errorf("unexpected path for missing file: got:%q,%t want:%q,true", got, ok, want)
	}

	global := filepath.Join(home, "global", "flipbook")
	err := os.MkdirAll(global, 0o755)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = filepath.Join(global, "flipbook.toml")
	err = os.WriteFile(want, nil, 0o644)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok = ConfigFile("flipbook", "flipbook.toml")
	if !ok || got != want {
		t.Errorf("unexpected path for global file: got:%q,%t want:%q,true", got, ok, want)
	}
}

func TestStateFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("state directory is not configurable by environment")
	}
	home := t.TempDir()
	t.Setenv("XDG_STATE_HOME", home)

	want := filepath.Join(home, "flipbook", "flipbook.log")
	got, ok := StateFile("flipbook", "flipbook.log")
	if !ok || got != want {
		t.Errorf("unexpected path: got:%q,%t want:%q,true", got, ok, want)
	}
}
