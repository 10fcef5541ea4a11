// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pretty

// Options toggles the optional parts of a rendered record.
// The zero value renders everything.
type Options struct {
	// NoTimestamp drops the "[dt] " prefix from the header line.
	NoTimestamp bool `json:"noTimestamp,omitempty" yaml:"noTimestamp,omitempty"`
	// NoFilename drops the source file name from the header line.
	NoFilename bool `json:"noFilename,omitempty" yaml:"noFilename,omitempty"`
	// OnlyMessage drops the event and context dump.
	OnlyMessage bool `json:"onlyMessage,omitempty" yaml:"onlyMessage,omitempty"`
}
