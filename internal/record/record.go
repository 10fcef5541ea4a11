// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package record

const (
	// SourceKey holds the caller location inside the record context.
	SourceKey = "source"
	// FileNameKey holds the file name inside the source object.
	FileNameKey = "file_name"
)

// Record is a single structured log event.
type Record struct {
	Level   string         `json:"level"`
	Dt      string         `json:"dt"`
	Message string         `json:"message"`
	Event   map[string]any `json:"event"`
	Context map[string]any `json:"context"`
}

// FileName returns the source file name stored under context.source.file_name.
// The boolean is false when any step of the lookup is missing.
func (r *Record) FileName() (string, bool) {
	source, ok := r.Context[SourceKey].(map[string]any)
	if !ok {
		return "", false
	}

	switch fileName := source[FileNameKey].(type) {
	case string:
		return fileName, true
	case nil:
		return "", false
	default:
		return stringify(fileName), true
	}
}
