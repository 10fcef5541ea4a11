// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package sink renders records and writes them to an io.Writer.
// It is meant for terminals: each record is written as one block, so output of
// concurrent producers never interleaves.
package sink
