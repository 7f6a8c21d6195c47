// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package version

import (
	"runtime/debug"
	"testing"
)

func TestString(t *testing.T) {
	for _, test := range []struct {
		settings []debug.BuildSetting
		want     string
	}{
		{
			want: "v1.0.0",
		},
		{
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.modified", Value: "false"},
			},
			want: "v1.0.0 abc123",
		},
		{
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.modified", Value: "true"},
			},
			want: "v1.0.0 abc123 (modified)",
		},
	} {
		bi := &debug.BuildInfo{
			Main:     debug.Module{Version: "v1.0.0"},
			Settings: test.settings,
		}
		if got := String(bi); got != test.want {
			t.Errorf("unexpected version: got:%q want:%q", got, test.want)
		}
	}
}
