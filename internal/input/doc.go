// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package input reads log records from files or standard input, one JSON
// object per line, transparently decompressing gzip and zstd streams.
package input
