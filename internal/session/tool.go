// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import "fmt"

// Tool is an editing tool.
type Tool int

const (
	Brush Tool = iota
	Eraser
	Ellipse
	Rectangle
	Fill
)

var toolNames = [...]string{
	Brush:     "brush",
	Eraser:    "eraser",
	Ellipse:   "ellipse",
	Rectangle: "rectangle",
	Fill:      "fill",
}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("Tool(%d)", int(t))
	}
	return toolNames[t]
}

// ParseTool returns the tool with the given name. The names "circle" and
// "square" are accepted as aliases for ellipse and rectangle.
func ParseTool(name string) (Tool, error) {
	switch name {
	case "circle":
		return Ellipse, nil
	case "square":
		return Rectangle, nil
	}
	for t, n := range toolNames {
		if n == name {
			return Tool(t), nil
		}
	}
	return 0, fmt.Errorf("unknown tool: %q", name)
}

// shape returns whether the tool draws a rubber-band shape.
func (t Tool) shape() bool {
	return t == Ellipse || t == Rectangle
}
