// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/mia-platform/devlog/internal/input"
	"github.com/mia-platform/devlog/internal/logger"
	"github.com/mia-platform/devlog/internal/sink"
)

const (
	renderCmdUsage = "render [FILE...]"
	renderCmdShort = "pretty print log records read from files or standard input"
	renderCmdLong  = `Pretty print log records read from files or standard input.
	Every line of the input must be a JSON log record as written by the
	production logger. Files compressed with gzip or zstd are decompressed
	on the fly. When no file is given, or a file is "-", records are read
	from standard input.`

	renderCmdExample = `# Follow the output of a running service
	node server.js | devlog render

	# Read a rotated and compressed log file without timestamps
	devlog render --no-timestamp app.log.1.gz`

	skipInvalidFlagName  = "skip-invalid"
	skipInvalidFlagUsage = "Report records that cannot be rendered and continue with the next one"

	renderLoggerName = "devlog:render"
)

// RenderCmd returns the Cobra command that renders records from files or stdin.
func RenderCmd() *cobra.Command {
	flags := &renderFlags{}
	var skipInvalid bool

	cmd := &cobra.Command{
		Use:     renderCmdUsage,
		Short:   heredoc.Doc(renderCmdShort),
		Long:    heredoc.Doc(renderCmdLong),
		Example: heredoc.Doc(renderCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: func(cmd *cobra.Command, args []string) error {
			recordSink, err := flags.toSink(cmd)
			if err != nil {
				return handleError(cmd, err)
			}

			opts := &renderOptions{
				paths:       args,
				stdin:       cmd.InOrStdin(),
				sink:        recordSink,
				skipInvalid: skipInvalid,
			}
			if err := opts.execute(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	cmd.Flags().BoolVar(&skipInvalid, skipInvalidFlagName, false, skipInvalidFlagUsage)
	return cmd
}

// renderOptions configures a single run of the render command.
type renderOptions struct {
	paths       []string
	stdin       io.Reader
	sink        sink.Sink
	skipInvalid bool
}

// execute renders every record of every configured input, in order.
func (o *renderOptions) execute(ctx context.Context) error {
	paths := o.paths
	if len(paths) == 0 {
		paths = []string{input.StdinPath}
	}

	log := logger.FromContext(ctx).WithName(renderLoggerName)
	for _, path := range paths {
		rendered, err := o.renderPath(ctx, path)
		if err != nil {
			return err
		}
		log.Debug("input rendered", "path", path, "records", rendered)
	}

	return nil
}

func (o *renderOptions) renderPath(ctx context.Context, path string) (int, error) {
	reader, err := input.Open(path, o.stdin)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	log := logger.FromContext(ctx).WithName(renderLoggerName)
	scanner := input.NewScanner(reader)
	if o.skipInvalid {
		scanner.OnInvalid(func(err *input.LineError) {
			log.Warn("invalid line skipped", "path", path, "line", err.Line, "error", err.Error())
		})
	}
	rendered := 0
	for {
		if err := ctx.Err(); err != nil {
			return rendered, err
		}

		if !scanner.Scan() {
			break
		}

		if err := o.sink.Write(scanner.Record()); err != nil {
			if !o.skipInvalid {
				return rendered, fmt.Errorf("%s: record %d: %w", path, rendered+1, err)
			}
			log.Warn("record skipped", "path", path, "error", err.Error())
			continue
		}
		rendered++
	}

	if err := scanner.Err(); err != nil {
		return rendered, fmt.Errorf("%s: %w", path, err)
	}

	return rendered, nil
}
