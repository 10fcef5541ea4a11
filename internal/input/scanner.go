// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package input

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/mia-platform/devlog/internal/record"
)

// maxLineSize bounds a single JSON line.
const maxLineSize = 4 * 1024 * 1024

// LineError reports a line that could not be decoded as a record.
type LineError struct {
	Line int
	err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.err)
}

func (e *LineError) Unwrap() error {
	return e.err
}

// Scanner yields the records contained in a JSON lines stream.
type Scanner struct {
	scanner *bufio.Scanner
	line    int
	record  *record.Record
	err     error

	onInvalid func(*LineError)
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{scanner: scanner}
}

// OnInvalid makes the Scanner skip lines that are not valid records, passing
// each of them to fn instead of stopping.
func (s *Scanner) OnInvalid(fn func(*LineError)) {
	s.onInvalid = fn
}

// Scan advances to the next record, skipping blank lines. It returns false at
// the end of the stream or on the first error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}

	for s.scanner.Scan() {
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		rec, err := record.Parse(line)
		if err != nil {
			lineErr := &LineError{Line: s.line, err: err}
			if s.onInvalid != nil {
				s.onInvalid(lineErr)
				continue
			}
			s.err = lineErr
			return false
		}

		s.record = rec
		return true
	}

	if err := s.scanner.Err(); err != nil {
		s.err = &LineError{Line: s.line + 1, err: err}
	}
	return false
}

// Record returns the record decoded by the last call to Scan.
func (s *Scanner) Record() *record.Record {
	return s.record
}

// Err returns the first error encountered by the Scanner.
func (s *Scanner) Err() error {
	return s.err
}
