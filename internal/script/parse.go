// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package script provides a line oriented command language for driving an
// editing session without a terminal.
//
// Each line holds a command name followed by its space separated
// arguments. Blank lines and lines starting with # are ignored.
//
//	tool brush|eraser|ellipse|rectangle|fill
//	color #rrggbb
//	size <n>
//	down <x> <y>
//	move <x> <y>
//	up <x> <y>
//	fill <x> <y>
//	add
//	dup
//	delete
//	select <i>
//	clear
//	undo
//	fps <n>
//	play [<fps>]
//	stop
//	wait <duration>
//	export [<path>]
//	inspect <path>
//	status
//	pixel <x> <y>
package script

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kortschak/flipbook/internal/raster"
	"github.com/kortschak/flipbook/internal/session"
)

// Command is a parsed script command.
type Command struct {
	Line int
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// SyntaxError is an error in the text of a script.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

type argKind int

const (
	intArg argKind = iota
	floatArg
	colorArg
	toolArg
	durationArg
	pathArg
)

// grammar holds the argument kinds for each command. Commands with
// optional arguments list them after the required count.
var grammar = map[string]struct {
	required int
	args     []argKind
}{
	"tool":    {1, []argKind{toolArg}},
	"color":   {1, []argKind{colorArg}},
	"size":    {1, []argKind{floatArg}},
	"down":    {2, []argKind{intArg, intArg}},
	"move":    {2, []argKind{intArg, intArg}},
	"up":      {2, []argKind{intArg, intArg}},
	"fill":    {2, []argKind{intArg, intArg}},
	"add":     {0, nil},
	"dup":     {0, nil},
	"delete":  {0, nil},
	"select":  {1, []argKind{intArg}},
	"clear":   {0, nil},
	"undo":    {0, nil},
	"fps":     {1, []argKind{intArg}},
	"play":    {0, []argKind{intArg}},
	"stop":    {0, nil},
	"wait":    {1, []argKind{durationArg}},
	"export":  {0, []argKind{pathArg}},
	"inspect": {1, []argKind{pathArg}},
	"status":  {0, nil},
	"pixel":   {2, []argKind{intArg, intArg}},
}

// Parse returns the commands held in r. All commands are checked for
// syntax before any are returned.
func Parse(r io.Reader) ([]Command, error) {
	var cmds []Command
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		f := strings.Fields(text)
		c := Command{Line: line, Name: f[0], Args: f[1:]}
		err := check(c)
		if err != nil {
			return nil, &SyntaxError{Line: line, Err: err}
		}
		cmds = append(cmds, c)
	}
	return cmds, sc.Err()
}

func check(c Command) error {
	g, ok := grammar[c.Name]
	if !ok {
		return fmt.Errorf("unknown command: %q", c.Name)
	}
	if len(c.Args) < g.required || len(g.args) < len(c.Args) {
		if g.required == len(g.args) {
			return fmt.Errorf("%s: want %d arguments, got %d", c.Name, g.required, len(c.Args))
		}
		return fmt.Errorf("%s: want %d to %d arguments, got %d", c.Name, g.required, len(g.args), len(c.Args))
	}
	for i, a := range c.Args {
		var err error
		switch g.args[i] {
		case intArg:
			_, err = strconv.Atoi(a)
		case floatArg:
			_, err = strconv.ParseFloat(a, 64)
		case colorArg:
			_, err = raster.WebColor(a)
		case toolArg:
			_, err = session.ParseTool(a)
		case durationArg:
			_, err = time.ParseDuration(a)
		}
		if err != nil {
			return fmt.Errorf("%s: argument %d: %w", c.Name, i+1, err)
		}
	}
	return nil
}
