// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/devlog/internal/pretty"
)

func TestNewRenderConfigFromPath(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		path           string
		expectedConfig *RenderConfig
		expectedError  error
	}{
		"full file": {
			path: filepath.Join("testdata", "full.yaml"),
			expectedConfig: &RenderConfig{
				Options: pretty.Options{NoTimestamp: true, NoFilename: true},
				Indent:  4,
				Color:   ColorAlways,
			},
		},
		"partial file keeps defaults": {
			path: filepath.Join("testdata", "partial.yaml"),
			expectedConfig: &RenderConfig{
				Options: pretty.Options{OnlyMessage: true},
				Indent:  pretty.DefaultIndent,
				Color:   ColorAuto,
			},
		},
		"empty file": {
			path:           filepath.Join("testdata", "empty.yaml"),
			expectedConfig: Default(),
		},
		"unknown fields are rejected": {
			path:          filepath.Join("testdata", "unknown.yaml"),
			expectedError: ErrParsing,
		},
		"invalid values": {
			path:          filepath.Join("testdata", "invalid.yaml"),
			expectedError: ErrInvalidValue,
		},
		"malformed yaml": {
			path:          filepath.Join("testdata", "malformed.yaml"),
			expectedError: ErrParsing,
		},
		"missing file": {
			path:          filepath.Join("testdata", "missing.yaml"),
			expectedError: syscall.ENOENT,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			config, err := NewRenderConfigFromPath(tc.path)
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, config)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedConfig, config)
		})
	}
}

func TestColorMode(t *testing.T) {
	t.Parallel()

	assert.True(t, ColorAlways.Colored(false))
	assert.False(t, ColorNever.Colored(true))
	assert.True(t, ColorAuto.Colored(true))
	assert.False(t, ColorAuto.Colored(false))

	mode, err := ParseColorMode("Never")
	require.NoError(t, err)
	assert.Equal(t, ColorNever, mode)

	_, err = ParseColorMode("sometimes")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.ErrorContains(t, err, "auto, always, never")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Default().Validate())

	err := (&RenderConfig{Indent: -1, Color: ColorNever}).Validate()
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.ErrorContains(t, err, "indent")

	err = (&RenderConfig{Color: ""}).Validate()
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.ErrorContains(t, err, "color")
}
