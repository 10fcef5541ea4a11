// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/mia-platform/devlog/internal/logger"
	"github.com/mia-platform/devlog/internal/server"
	"github.com/mia-platform/devlog/internal/sink"
)

const (
	serveCmdUsage = "serve"
	serveCmdShort = "receive log records over HTTP and pretty print them"
	serveCmdLong  = `Start a local HTTP server that receives log records and pretty prints them.
	Records are sent with POST /logs, either one JSON object or an array of
	objects per request. The server is configured with environment variables:
	- HTTP_HOST: address to bind, default 127.0.0.1
	- HTTP_PORT: port to listen on, default 3000
	- BODY_LIMIT_BYTES: maximum request size, default 4 MiB`

	serveCmdExample = `# Listen on port 8080 and hide the timestamps
	HTTP_PORT=8080 devlog serve --no-timestamp`

	serveLoggerName = "devlog:serve"
)

// ServeCmd returns the Cobra command that starts the ingest server.
func ServeCmd() *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:     serveCmdUsage,
		Short:   heredoc.Doc(serveCmdShort),
		Long:    heredoc.Doc(serveCmdLong),
		Example: heredoc.Doc(serveCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recordSink, err := flags.toSink(cmd)
			if err != nil {
				return handleError(cmd, err)
			}

			if err := serve(cmd.Context(), recordSink); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}

// serve runs the ingest server until ctx is cancelled.
func serve(ctx context.Context, recordSink sink.Sink) error {
	srv, err := server.NewServer(ctx, recordSink)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx).WithName(serveLoggerName)
	log.Info("listening for log records", "address", srv.Addr(), "path", server.LogsPath)
	defer log.Info("server stopped")

	return srv.Run(ctx)
}
