// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package pretty renders a single log record as a colorized, human readable
// block meant for a developer terminal.
//
// The output is a header line with timestamp, level, source file and message,
// followed by an indented dump of the event and context fields that are not
// already shown in the header. Rendering never mutates the record it receives.
package pretty
