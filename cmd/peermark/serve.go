package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/peermark/internal/config"
	"github.com/nao1215/peermark/internal/shell"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the shell that owns host opt-outs",
		Long: `Serve runs the peermark shell: a small HTTP service that holds the
disabled-host lists and answers the messages pages send while they are
being annotated.

Hosts disabled "forever" are written to the settings database. Hosts
disabled "once" live only as long as this process. Point "annotate" and
"hosts" at the shell with --shell to share its session state.

Endpoints:
  GET  /healthz
  POST /api/v1/messages
  GET  /api/v1/hosts
  GET  /api/v1/hosts/check?url=<url>
  POST /api/v1/hosts/disable
  POST /api/v1/hosts/enable

Examples:
  peermark serve
  peermark serve --listen 127.0.0.1:9000 --data-dir /tmp/peermark`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address the shell listens on")
	cmd.Flags().String("data-dir", config.XDGDataDir(),
		"Directory of the settings database")
	cmd.Flags().StringP("config", "c", "",
		"Path to config file (default: .peermark in current or home directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := cfg.ValidateService(); err != nil {
		return err
	}

	logger := loggerFor(cmd)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	gate, closeGate, err := openLocalGate(ctx, cfg.DataDir, logger)
	if err != nil {
		return err
	}
	defer closeGate()

	server := shell.NewServer(gate, shell.WithServerLogger(logger))
	return server.ListenAndServe(ctx, cfg.ListenAddress)
}
