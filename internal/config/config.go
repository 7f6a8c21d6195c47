// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config provides flipbook configuration loading, validation and
// live reloading.
package config

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Name is the base name of the configuration file.
const Name = "flipbook.toml"

// Config is a complete flipbook configuration.
type Config struct {
	Canvas   Canvas   `json:"canvas" toml:"canvas"`
	Playback Playback `json:"playback" toml:"playback"`
	History  History  `json:"history" toml:"history"`
	Onion    Onion    `json:"onion" toml:"onion"`
	Export   Export   `json:"export" toml:"export"`
	Brush    Brush    `json:"brush" toml:"brush"`
	Log      Log      `json:"log" toml:"log"`
}

// Canvas is the frame geometry. It is only read at start up.
type Canvas struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
}

type Playback struct {
	FPS int `json:"fps" toml:"fps"`
}

type History struct {
	// Depth is the maximum number of undo snapshots held.
	Depth int `json:"depth" toml:"depth"`
}

type Onion struct {
	// Opacity is the alpha scale of the previous
	// frame in the onion skin overlay.
	Opacity float64 `json:"opacity" toml:"opacity"`
}

type Export struct {
	// Background is the web colour painted
	// behind exported frames.
	Background string `json:"background" toml:"background"`
	// Path is the default artifact path.
	Path string `json:"path" toml:"path"`
}

type Brush struct {
	Size  float64 `json:"size" toml:"size"`
	Color string  `json:"color" toml:"color"`
}

type Log struct {
	Level     string `json:"level" toml:"level"`
	AddSource bool   `json:"add_source" toml:"add_source"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas:   Canvas{Width: 450, Height: 400},
		Playback: Playback{FPS: 12},
		History:  History{Depth: 100},
		Onion:    Onion{Opacity: 0.3},
		Export:   Export{Background: "#ffffff", Path: "animation.gif"},
		Brush:    Brush{Size: 4, Color: "#000000"},
		Log:      Log{Level: "info"},
	}
}

// LogLevel returns the configured logging level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.Log.Level))
	return l, err
}

// Schema is the CUE schema for a valid configuration.
const Schema = `
{
	canvas: {
		width:  int & >0 & <=4096
		height: int & >0 & <=4096
	}
	playback: fps: int & >=1 & <=60
	history: depth: int & >=1 & <=10000
	onion: opacity: number & >=0 & <=1
	export: {
		background: _#web_color
		path:       string & !=""
	}
	brush: {
		size:  number & >=1 & <=100
		color: _#web_color
	}
	log: {
		level:      _#log_level
		add_source: bool
	}
}

_#web_color: =~"^#[0-9a-fA-F]{6}$"
_#log_level: =~"(?i)^(?:debug|info|warn|error)$"
`

// Sum is the semantic hash of a configuration.
type Sum [sha1.Size]byte

func (s Sum) String() string {
	return hex.EncodeToString(s[:])
}

// Parse returns the configuration held in the TOML data b and its semantic
// hash. Fields not present in b take their default values. Sections that
// fail validation are reset to their defaults and the validation error is
// returned with the repaired configuration. If b is not valid TOML, a nil
// configuration is returned.
func Parse(b []byte) (*Config, Sum, error) {
	cfg := Default()
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, Sum{}, err
	}
	var deferredErr error
	if undec := md.Undecoded(); len(undec) != 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		deferredErr = fmt.Errorf("unknown fields: %s", strings.Join(keys, ", "))
	}

	sections, err := Validate(Schema, cfg)
	if err != nil {
		repair(cfg, sections)
		deferredErr = errors.Join(deferredErr, err)
	}

	sum, err := hash(cfg)
	if err != nil {
		return nil, sum, err
	}
	return cfg, sum, deferredErr
}

// Load reads and parses the configuration file at path. If the file does
// not exist, the default configuration is returned without error.
func Load(path string) (*Config, Sum, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			sum, err := hash(cfg)
			return cfg, sum, err
		}
		return nil, Sum{}, err
	}
	return Parse(b)
}

func hash(cfg *Config) (Sum, error) {
	h := sha1.New()
	err := json.NewEncoder(h).Encode(cfg)
	if err != nil {
		return Sum{}, err
	}
	return Sum(h.Sum(nil)), nil
}

// repair resets the named sections of cfg to their default values.
func repair(cfg *Config, sections []string) {
	def := Default()
	for _, name := range sections {
		switch name {
		case "canvas":
			cfg.Canvas = def.Canvas
		case "playback":
			cfg.Playback = def.Playback
		case "history":
			cfg.History = def.History
		case "onion":
			cfg.Onion = def.Onion
		case "export":
			cfg.Export = def.Export
		case "brush":
			cfg.Brush = def.Brush
		case "log":
			cfg.Log = def.Log
		}
	}
}
