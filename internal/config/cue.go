// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cerrors "cuelang.org/go/cue/errors"
	"golang.org/x/exp/constraints"
)

// Validate checks cfg against the CUE schema. It returns the names of the
// top-level sections of cfg holding invalid fields, in ascending order, and
// an error describing each invalid field.
func Validate(schema string, cfg *Config) (sections []string, err error) {
	ctx := cuecontext.New()

	s := ctx.CompileString(schema)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	v := ctx.Encode(cfg)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	errs := cerrors.Errors(s.Unify(v).Validate(cue.Concrete(true), cue.Final()))
	if len(errs) == 0 {
		return nil, nil
	}
	invalid := make([]error, len(errs))
	for i, e := range errs {
		invalid[i] = e
		if p := cerrors.Path(e); len(p) != 0 {
			sections = append(sections, p[0])
		}
	}
	return unique(sections), errors.Join(invalid...)
}

// unique returns s sorted in ascending order with repeated elements omitted.
// The contents of s are altered.
func unique[T constraints.Ordered](s []T) []T {
	slices.Sort(s)
	return slices.Compact(s)
}
