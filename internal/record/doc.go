// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package record defines the log record consumed by the renderer and decodes
// it from the JSON lines written by production loggers.
package record
