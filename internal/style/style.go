// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package style

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
)

var (
	// ErrUnknownLevel is returned when a severity has no registered style.
	ErrUnknownLevel = errors.New("unknown log level")
)

// Severity is one of the closed set of log levels known to the renderer.
type Severity string

const (
	Emergency Severity = "emergency"
	Alert     Severity = "alert"
	Critical  Severity = "critical"
	Error     Severity = "error"
	Warn      Severity = "warn"
	Notice    Severity = "notice"
	Info      Severity = "info"
	Debug     Severity = "debug"
)

// Severities lists every supported level, from the most to the least important.
var Severities = []Severity{Emergency, Alert, Critical, Error, Warn, Notice, Info, Debug}

// Transform decorates a piece of text for terminal display.
type Transform func(string) string

// Style is the appearance of a single severity.
type Style struct {
	Transform Transform
	Icon      string
}

type definition struct {
	attributes []color.Attribute
	icon       string
}

var definitions = map[Severity]definition{
	Emergency: {attributes: []color.Attribute{color.FgRed, color.Underline}, icon: "●"},
	Alert:     {attributes: []color.Attribute{color.FgRed, color.Underline}, icon: "◆"},
	Critical:  {attributes: []color.Attribute{color.FgRed}, icon: "✖"},
	Error:     {attributes: []color.Attribute{color.FgRed}, icon: "■"},
	Warn:      {attributes: []color.Attribute{color.FgYellow}, icon: "⚠"},
	Notice:    {attributes: []color.Attribute{color.FgCyan}, icon: "▶"},
	Info:      {attributes: []color.Attribute{color.FgBlue}, icon: "ℹ"},
	Debug:     {attributes: []color.Attribute{color.FgGreen}, icon: "★"},
}

var (
	timestampAttributes = []color.Attribute{color.FgWhite}
	filenameAttributes  = []color.Attribute{color.Underline, color.FgGreen}
)

// Registry resolves severities to styles. It is immutable once built and safe
// for concurrent use.
type Registry struct {
	styles    map[Severity]Style
	timestamp Transform
	filename  Transform
}

var (
	coloredRegistry = NewRegistry(true)
	plainRegistry   = NewRegistry(false)
)

// Default returns the shared registry, with ANSI colors when colored is true
// and identity transforms otherwise.
func Default(colored bool) *Registry {
	if colored {
		return coloredRegistry
	}
	return plainRegistry
}

// NewRegistry builds a registry holding one style for every severity.
func NewRegistry(colored bool) *Registry {
	styles := make(map[Severity]Style, len(definitions))
	for severity, def := range definitions {
		styles[severity] = Style{
			Transform: newTransform(colored, def.attributes...),
			Icon:      def.icon,
		}
	}

	return &Registry{
		styles:    styles,
		timestamp: newTransform(colored, timestampAttributes...),
		filename:  newTransform(colored, filenameAttributes...),
	}
}

// Resolve returns the style registered for level. Lookup is an exact match
// and there is no fallback style.
func (r *Registry) Resolve(level string) (Style, error) {
	style, ok := r.styles[Severity(level)]
	if !ok {
		return Style{}, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	return style, nil
}

// Timestamp returns the neutral transform used for the timestamp segment.
func (r *Registry) Timestamp() Transform {
	return r.timestamp
}

// Filename returns the transform used for the source file segment.
func (r *Registry) Filename() Transform {
	return r.filename
}

func newTransform(colored bool, attributes ...color.Attribute) Transform {
	if !colored {
		return func(s string) string { return s }
	}

	c := color.New(attributes...)
	// the global color.NoColor flag follows stdout, a colored registry must not
	c.EnableColor()
	return func(s string) string {
		return c.Sprint(s)
	}
}
