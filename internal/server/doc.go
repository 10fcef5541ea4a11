// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package server contains the development ingest server of devlog.
// It sets up the HTTP server using the Fiber framework, accepts log records on
// POST /logs and hands them to a sink that prints them on the terminal.
package server
