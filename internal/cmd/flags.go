// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mia-platform/devlog/internal/config"
	"github.com/mia-platform/devlog/internal/pretty"
	"github.com/mia-platform/devlog/internal/sink"
	"github.com/mia-platform/devlog/internal/style"
)

const (
	configFlagName  = "config"
	configFlagShort = "c"
	configFlagUsage = "Path to a YAML file with the render options; command line flags take precedence"

	noTimestampFlagName  = "no-timestamp"
	noTimestampFlagUsage = "Do not print the record timestamp"

	noFilenameFlagName  = "no-filename"
	noFilenameFlagUsage = "Do not print the source file name"

	onlyMessageFlagName  = "only-message"
	onlyMessageFlagUsage = "Print only the header line, without event and context"

	colorFlagName  = "color"
	colorFlagUsage = "When to use colors (possible values: auto, always, never)"

	indentFlagName  = "indent"
	indentFlagUsage = "Number of spaces used to indent event and context, 0 prints them on one line"
)

// renderFlags collects the CLI options shared by the render and serve commands.
type renderFlags struct {
	configPath  string
	noTimestamp bool
	noFilename  bool
	onlyMessage bool
	color       string
	indent      int
}

// addFlags registers the CLI flags on cmd.
func (f *renderFlags) addFlags(cmd *cobra.Command) {
	defaults := config.Default()

	cmd.Flags().StringVarP(&f.configPath, configFlagName, configFlagShort, "", configFlagUsage)
	cmd.Flags().BoolVar(&f.noTimestamp, noTimestampFlagName, defaults.NoTimestamp, noTimestampFlagUsage)
	cmd.Flags().BoolVar(&f.noFilename, noFilenameFlagName, defaults.NoFilename, noFilenameFlagUsage)
	cmd.Flags().BoolVar(&f.onlyMessage, onlyMessageFlagName, defaults.OnlyMessage, onlyMessageFlagUsage)
	cmd.Flags().StringVar(&f.color, colorFlagName, string(defaults.Color), colorFlagUsage)
	cmd.Flags().IntVar(&f.indent, indentFlagName, defaults.Indent, indentFlagUsage)

	_ = cmd.RegisterFlagCompletionFunc(colorFlagName, cobra.FixedCompletions(colorModes(), cobra.ShellCompDirectiveNoFileComp))
}

// renderConfig merges the configuration file, if any, with the flags set on
// the command line.
func (f *renderFlags) renderConfig(cmd *cobra.Command) (*config.RenderConfig, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.NewRenderConfigFromPath(f.configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed(noTimestampFlagName) {
		cfg.NoTimestamp = f.noTimestamp
	}
	if flags.Changed(noFilenameFlagName) {
		cfg.NoFilename = f.noFilename
	}
	if flags.Changed(onlyMessageFlagName) {
		cfg.OnlyMessage = f.onlyMessage
	}
	if flags.Changed(indentFlagName) {
		cfg.Indent = f.indent
	}
	if flags.Changed(colorFlagName) {
		mode, err := config.ParseColorMode(f.color)
		if err != nil {
			return nil, err
		}
		cfg.Color = mode
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toSink builds the sink writing rendered records to the command output.
func (f *renderFlags) toSink(cmd *cobra.Command) (sink.Sink, error) {
	cfg, err := f.renderConfig(cmd)
	if err != nil {
		return nil, err
	}

	output := cmd.OutOrStdout()
	colored := cfg.Color.Colored(isTerminal(output))
	if colored {
		output = colorableOutput(output)
	}

	renderer := pretty.New(style.Default(colored), pretty.WithIndent(cfg.Indent))
	return sink.New(output, renderer, cfg.Options), nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// colorableOutput translates ANSI sequences for consoles that do not support them.
func colorableOutput(w io.Writer) io.Writer {
	if file, ok := w.(*os.File); ok {
		return colorable.NewColorable(file)
	}
	return w
}

func colorModes() []string {
	modes := make([]string, 0, len(config.ColorModes))
	for _, mode := range config.ColorModes {
		modes = append(modes, string(mode))
	}
	return modes
}
