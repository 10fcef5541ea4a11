// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mia-platform/devlog/internal/pretty"
)

// ColorMode selects when ANSI colors are emitted.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

var (
	// ErrParsing reports failures that occur while decoding the configuration file.
	ErrParsing = errors.New("error parsing")
	// ErrInvalidValue reports a configuration value outside its allowed set.
	ErrInvalidValue = errors.New("invalid configuration value")

	// ColorModes lists the accepted color modes.
	ColorModes = []ColorMode{ColorAuto, ColorAlways, ColorNever}
)

// RenderConfig holds the options used to render records.
type RenderConfig struct {
	pretty.Options `yaml:",inline"`

	Indent int       `yaml:"indent" validate:"gte=0"`
	Color  ColorMode `yaml:"color" validate:"oneof=auto always never"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Default returns the configuration used when no file is provided.
func Default() *RenderConfig {
	return &RenderConfig{
		Indent: pretty.DefaultIndent,
		Color:  ColorAuto,
	}
}

// Colored reports whether colors must be enabled for an output that is, or
// is not, a terminal.
func (c ColorMode) Colored(isTerminal bool) bool {
	switch c {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal
	}
}

// ParseColorMode validates value as a ColorMode.
func ParseColorMode(value string) (ColorMode, error) {
	mode := ColorMode(strings.ToLower(value))
	for _, known := range ColorModes {
		if mode == known {
			return mode, nil
		}
	}

	return "", fmt.Errorf("%w: color %q, expected one of %s", ErrInvalidValue, value, joinModes())
}

// Validate checks the configured values.
func (c *RenderConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	errorsList := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		errorsList = append(errorsList, fmt.Sprintf("%s %s, found %v", fieldError.Field(), validationMessage(fieldError), fieldError.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidValue, strings.Join(errorsList, "; "))
}

func validationMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "gte":
		return "must be greater than or equal to " + fieldError.Param()
	case "oneof":
		return "must be one of " + joinModes()
	default:
		return "failed the " + fieldError.Tag() + " check"
	}
}

// NewRenderConfigFromPath reads the YAML file at path on top of the default configuration.
func NewRenderConfigFromPath(path string) (*RenderConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
	}

	config.Color = ColorMode(strings.ToLower(string(config.Color)))
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
	}

	return config, nil
}

func joinModes() string {
	modes := make([]string, 0, len(ColorModes))
	for _, mode := range ColorModes {
		modes = append(modes, string(mode))
	}
	return strings.Join(modes, ", ")
}
