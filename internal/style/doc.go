// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package style maps log severities to their terminal appearance.
// Every severity has a color transform and a single glyph icon; the mapping is
// fixed at build time and never changes after a Registry is constructed.
package style
