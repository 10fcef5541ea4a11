// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package sink

import (
	"io"
	"sync"

	"github.com/mia-platform/devlog/internal/pretty"
	"github.com/mia-platform/devlog/internal/record"
)

// Sink receives decoded records.
type Sink interface {
	Write(rec *record.Record) error
}

var _ Sink = &writerSink{}

type writerSink struct {
	writer   io.Writer
	renderer *pretty.Renderer
	options  pretty.Options

	lock sync.Mutex
}

// New returns a Sink that renders every record with renderer and opts and
// writes it to w.
func New(w io.Writer, renderer *pretty.Renderer, opts pretty.Options) Sink {
	return &writerSink{
		writer:   w,
		renderer: renderer,
		options:  opts,
	}
}

func (s *writerSink) Write(rec *record.Record) error {
	output, err := s.renderer.Render(rec, s.options)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	_, err = io.WriteString(s.writer, output)
	return err
}
