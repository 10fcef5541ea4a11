// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"strings"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	internalcmd "github.com/mia-platform/devlog/internal/cmd"
	"github.com/mia-platform/devlog/internal/info"
	"github.com/mia-platform/devlog/internal/logger"
)

var (
	// Version is injected at build time via the Makefile.
	Version = info.Version
	// BuildDate is injected at build time via the Makefile.
	BuildDate = info.BuildDate

	appName      = info.AppName
	versionShort = "Display the " + appName + " version"
)

const (
	appShort = "devlog pretty prints structured log records for local development"
	appLong  = `devlog turns the JSON lines written by the production logger into
	colored, human friendly blocks: a header with timestamp, level, source file
	and message, followed by the indented event and context of the record.

	Its own diagnostics are written on standard error, so they never mix with
	the rendered records.`

	logLevelFlagName      = "log-level"
	logLevelShortFlagName = "v"

	logFormatFlagName = "log-format"
	logFormatText     = "text"
	logFormatJSON     = "json"

	versionCmdName = "version"
)

var (
	allLoggerLevels      = loggerLevelNames()
	logLevelDefaultValue = logger.INFO.String()
	logLevelFlagUsage    = "set the logging level (possible values: " + strings.Join(allLoggerLevels, ", ") + ")"

	allLogFormats      = []string{logFormatText, logFormatJSON}
	logFormatFlagUsage = "set the format of diagnostic messages (possible values: " + strings.Join(allLogFormats, ", ") + ")"
)

// rootFlags holds the persistent flags shared across the command tree.
type rootFlags struct {
	logLevel  string
	logFormat string
}

// addFlags registers the persistent CLI flags on cmd.
func (f *rootFlags) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&f.logLevel, logLevelFlagName, logLevelShortFlagName, logLevelDefaultValue, heredoc.Doc(logLevelFlagUsage))
	flags.StringVar(&f.logFormat, logFormatFlagName, logFormatText, heredoc.Doc(logFormatFlagUsage))

	_ = cmd.RegisterFlagCompletionFunc(logLevelFlagName, cobra.FixedCompletions(allLoggerLevels, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc(logFormatFlagName, cobra.FixedCompletions(allLogFormats, cobra.ShellCompDirectiveNoFileComp))
}

// newLogger builds the diagnostics logger described by the flags.
func (f *rootFlags) newLogger(cmd *cobra.Command) (logger.Logger, error) {
	if !slices.Contains(allLogFormats, f.logFormat) {
		return nil, fmt.Errorf("invalid %s %q, expected one of %s", logFormatFlagName, f.logFormat, strings.Join(allLogFormats, ", "))
	}

	opts := []logger.Option{}
	if f.logFormat == logFormatText {
		opts = append(opts, logger.WithTextFormat())
	}

	log := logger.NewLogger(cmd.ErrOrStderr(), opts...)
	log.SetLevel(logger.LevelFromString(f.logLevel))
	return log, nil
}

func loggerLevelNames() []string {
	names := make([]string, 0, len(logger.Levels))
	for _, level := range logger.Levels {
		names = append(names, level.String())
	}
	return names
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		exitCode = 1
	}

	stop()
	os.Exit(exitCode)
}

// rootCmd constructs the root Cobra command with shared configuration.
func rootCmd() *cobra.Command {
	flag := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: heredoc.Doc(appShort),
		Long:  heredoc.Doc(appLong),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := flag.newLogger(cmd)
			if err != nil {
				cmd.PrintErrln(err)
				return err
			}

			cmd.SetContext(logger.WithContext(cmd.Context(), log))
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.PrintErrln(err)
		_ = c.Usage()
		return err
	})

	flag.addFlags(cmd)
	cmd.AddCommand(
		internalcmd.RenderCmd(),
		internalcmd.ServeCmd(),
		versionCmd(),
	)

	return cmd
}

// versionCmd constructs the Cobra command that prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   versionCmdName,
		Short: heredoc.Doc(versionShort),

		Args: func(cmd *cobra.Command, args []string) error {
			err := cobra.NoArgs(cmd, args)
			if err != nil {
				cmd.PrintErrln(err)
				_ = cmd.Usage()
			}

			return err
		},
		ValidArgsFunction: cobra.NoFileCompletions,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString(Version, BuildDate, runtime.Version()))
		},
	}
}

// versionString formats the version metadata for display.
func versionString(version, buildDate, runtimeVersion string) string {
	outputString := appName + " " + version
	if buildDate != "" {
		outputString += " (" + buildDate + ")"
	}

	return outputString + ", Go Version: " + runtimeVersion
}
