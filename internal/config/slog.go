// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"log/slog"
)

type changeValue struct {
	Change
}

func (v changeValue) LogValue() slog.Value {
	events := make([]eventValue, len(v.Event))
	for i, e := range v.Event {
		events[i] = eventValue{
			Name: e.Name,
			Op:   e.Op.String(),
			Code: int(e.Op),
		}
	}
	return slog.AnyValue(struct {
		Event  []eventValue `json:"event"`
		Config *Config      `json:"config"`
		Sum    string       `json:"sum"`
		Err    error        `json:"err"`
	}{
		Event:  events,
		Config: v.Config,
		Sum:    v.Sum.String(),
		Err:    v.Err,
	})
}

type eventValue struct {
	Name string `json:"name"`
	Op   string `json:"op"`
	Code int    `json:"op_code"`
}

type sumValue struct {
	Sum
}

func (v sumValue) LogValue() slog.Value {
	return slog.StringValue(v.String())
}
