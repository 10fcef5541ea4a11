// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pretty

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/mia-platform/devlog/internal/record"
	"github.com/mia-platform/devlog/internal/style"
)

// DefaultIndent is the number of spaces used to indent the body dump.
const DefaultIndent = 2

var (
	// ErrMissingFileName is returned when the header must show the source file
	// but the record does not carry context.source.file_name.
	ErrMissingFileName = errors.New("missing context.source.file_name")

	// contextReservedKeys are already shown in the header or only useful in production.
	contextReservedKeys = []string{"runtime", record.SourceKey, "system"}
	// eventReservedKeys are dropped from the event dump.
	eventReservedKeys = []string{"http_request"}
)

// Renderer turns records into terminal text. A Renderer is immutable and safe
// for concurrent use.
type Renderer struct {
	styles *style.Registry
	indent string
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithIndent sets the number of spaces used for each nesting level of the body.
// Zero renders the body on a single line; negative values are ignored.
func WithIndent(spaces int) Option {
	return func(r *Renderer) {
		if spaces >= 0 {
			r.indent = strings.Repeat(" ", spaces)
		}
	}
}

// New returns a Renderer that takes its colors and icons from styles.
func New(styles *style.Registry, opts ...Option) *Renderer {
	renderer := &Renderer{
		styles: styles,
		indent: strings.Repeat(" ", DefaultIndent),
	}

	for _, opt := range opts {
		opt(renderer)
	}

	return renderer
}

// Render formats rec as a header line followed by the indented dump of its
// event and context fields. The returned string always ends with a newline.
func (r *Renderer) Render(rec *record.Record, opts Options) (string, error) {
	header, err := r.header(rec, opts)
	if err != nil {
		return "", err
	}

	body := ""
	if !opts.OnlyMessage {
		if body, err = r.body(rec); err != nil {
			return "", err
		}
	}

	return header + "\n" + body, nil
}

func (r *Renderer) header(rec *record.Record, opts Options) (string, error) {
	levelStyle, err := r.styles.Resolve(rec.Level)
	if err != nil {
		return "", err
	}

	date := ""
	if !opts.NoTimestamp {
		date = r.styles.Timestamp()("[" + rec.Dt + "] ")
	}

	file := ""
	if !opts.NoFilename {
		fileName, ok := rec.FileName()
		if !ok {
			return "", ErrMissingFileName
		}
		file = " " + r.styles.Filename()(fileName)
	}

	level := levelStyle.Transform(levelStyle.Icon + " " + rec.Level)
	message := levelStyle.Transform(rec.Message)

	return date + level + file + " - " + message, nil
}

// logs is the shape of the body dump; field order fixes event before context.
type logs struct {
	Event   map[string]any `json:"event,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (r *Renderer) body(rec *record.Record) (string, error) {
	event := withoutKeys(rec.Event, eventReservedKeys)
	context := withoutKeys(rec.Context, contextReservedKeys)

	if len(event) == 0 && len(context) == 0 {
		return "", nil
	}

	var err error
	dump := logs{}
	if len(event) > 0 {
		if dump.Event, err = normalizeMap(event); err != nil {
			return "", fmt.Errorf("event: %w", err)
		}
	}
	if len(context) > 0 {
		if dump.Context, err = normalizeMap(context); err != nil {
			return "", fmt.Errorf("context: %w", err)
		}
	}

	buffer := new(bytes.Buffer)
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", r.indent)
	if err := encoder.Encode(dump); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}

	return buffer.String(), nil
}

// withoutKeys returns a shallow copy of fields without the given keys; fields
// itself is left untouched.
func withoutKeys(fields map[string]any, keys []string) map[string]any {
	filtered := maps.Clone(fields)
	for _, key := range keys {
		delete(filtered, key)
	}
	return filtered
}

func normalizeMap(fields map[string]any) (map[string]any, error) {
	normalized, err := normalize(fields)
	if err != nil {
		return nil, err
	}
	return normalized.(map[string]any), nil
}
