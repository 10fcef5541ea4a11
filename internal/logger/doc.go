// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package logger holds the diagnostics logger of the devlog commands and the
// request logging middleware of the ingest server.
// It is never used by the renderer itself: records are rendered, not logged.
package logger
