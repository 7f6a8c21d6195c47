// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package raster

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// WebColor returns the opaque colour described by the #rrggbb hex string
// val.
func WebColor(val string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(val, "#")
	if !ok || len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid web color: %s", val)
	}
	c, err := strconv.ParseUint(hex, 16, 24)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid web color: %s", val)
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(c))
	return color.NRGBA{R: b[1], G: b[2], B: b[3], A: 0xff}, nil
}

// Hex returns the #rrggbb representation of c, ignoring alpha.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
