package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/peermark/internal/config"
	"github.com/nao1215/peermark/internal/hostgate"
	"github.com/nao1215/peermark/internal/shell"
)

// hostStore is where host opt-outs are read and changed.
type hostStore interface {
	Check(ctx context.Context, url string) (shell.HostStatus, error)
	Hosts(ctx context.Context) (shell.HostList, error)
	Disable(ctx context.Context, url string, mode hostgate.Mode) error
	Enable(ctx context.Context, url string) error
	Close()
}

// localHosts changes opt-outs in the local settings database.
type localHosts struct {
	gate  *hostgate.Gate
	local *shell.Local
	close func()
}

func (l *localHosts) Check(_ context.Context, url string) (shell.HostStatus, error) {
	return l.local.Status(url), nil
}

func (l *localHosts) Hosts(_ context.Context) (shell.HostList, error) {
	return shell.HostList{Persistent: l.gate.Persistent(), Session: l.gate.Session()}, nil
}

func (l *localHosts) Disable(_ context.Context, url string, mode hostgate.Mode) error {
	l.gate.Disable(url, mode)
	return nil
}

func (l *localHosts) Enable(_ context.Context, url string) error {
	l.gate.Enable(url)
	return nil
}

func (l *localHosts) Close() { l.close() }

// remoteHosts changes opt-outs through a running shell.
type remoteHosts struct {
	client *shell.Client
}

func (r *remoteHosts) Check(ctx context.Context, url string) (shell.HostStatus, error) {
	return r.client.Check(ctx, url)
}

func (r *remoteHosts) Hosts(ctx context.Context) (shell.HostList, error) {
	return r.client.Hosts(ctx)
}

func (r *remoteHosts) Disable(ctx context.Context, url string, mode hostgate.Mode) error {
	_, err := r.client.Disable(ctx, url, mode)
	return err
}

func (r *remoteHosts) Enable(ctx context.Context, url string) error {
	_, err := r.client.Enable(ctx, url)
	return err
}

func (r *remoteHosts) Close() {}

// openHostStore returns the shell-backed store when cfg names a shell and
// the local database otherwise.
func openHostStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (hostStore, error) {
	if cfg.ShellAddress != "" {
		client, err := shell.NewClient(cfg.ShellAddress, shell.WithClientLogger(logger))
		if err != nil {
			return nil, err
		}
		return &remoteHosts{client: client}, nil
	}

	gate, closeGate, err := openLocalGate(ctx, cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}
	return &localHosts{gate: gate, local: shell.NewLocal(gate), close: closeGate}, nil
}

// NewHostsCmd creates the hosts command and its subcommands.
func NewHostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "List and change per-host annotation opt-outs",
		Long: `Hosts manages the sites on which annotation is turned off.

A host disabled "forever" is stored in the settings database and survives
restarts. A host disabled "once" is remembered only by a running shell
("peermark serve"); use --shell to reach it. Enabling a host clears both.

Host entries are normalized: the scheme, path and any leading "www." are
dropped, so "https://www.example.com/a" and "example.com" are the same host.

Examples:
  peermark hosts list
  peermark hosts disable https://www.cell.com/article/1
  peermark hosts disable --mode once --shell 127.0.0.1:7878 journals.plos.org
  peermark hosts check www.cell.com
  peermark hosts enable cell.com`,
	}

	cmd.PersistentFlags().StringP("shell", "s", "",
		"Address of a running peermark shell (default: use the local database)")
	cmd.PersistentFlags().String("data-dir", config.XDGDataDir(),
		"Directory of the settings database")

	cmd.AddCommand(newHostsListCmd())
	cmd.AddCommand(newHostsCheckCmd())
	cmd.AddCommand(newHostsDisableCmd())
	cmd.AddCommand(newHostsEnableCmd())

	return cmd
}

// withHostStore builds config and store for a hosts subcommand and runs fn.
func withHostStore(cmd *cobra.Command, fn func(ctx context.Context, store hostStore, logger *slog.Logger) error) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}

	logger := loggerFor(cmd)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	store, err := openHostStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store, logger)
}

func newHostsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List disabled hosts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHostStore(cmd, func(ctx context.Context, store hostStore, _ *slog.Logger) error {
				list, err := store.Hosts(ctx)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(list.Persistent)+len(list.Session))
				for _, h := range list.Persistent {
					rows = append(rows, []string{h, hostgate.Forever.String()})
				}
				for _, h := range list.Session {
					rows = append(rows, []string{h, hostgate.Once.String()})
				}

				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					if isTerminal(out) {
						fmt.Fprintln(out, "No hosts are disabled.")
					}
					return nil
				}
				fmt.Fprint(out, renderTable(out, []string{"Host", "Mode"}, rows))
				return nil
			})
		},
	}
}

func newHostsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>",
		Short: "Show whether annotation is disabled for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHostStore(cmd, func(ctx context.Context, store hostStore, _ *slog.Logger) error {
				status, err := store.Check(ctx, args[0])
				if err != nil {
					return err
				}
				if status.Disabled {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: disabled (%s)\n", status.Host, status.Mode)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: enabled\n", status.Host)
				}
				return nil
			})
		},
	}
}

func newHostsDisableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disable <url>",
		Short: "Turn annotation off for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modeName, err := cmd.Flags().GetString("mode")
			if err != nil {
				return err
			}
			mode, err := hostgate.ParseMode(modeName)
			if err != nil {
				return err
			}

			return withHostStore(cmd, func(ctx context.Context, store hostStore, logger *slog.Logger) error {
				if _, local := store.(*localHosts); local && mode == hostgate.Once {
					logger.Warn("a host disabled once without --shell is forgotten when this command exits")
				}
				if err := store.Disable(ctx, args[0], mode); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: disabled (%s)\n", hostgate.Normalize(args[0]), mode)
				return nil
			})
		},
	}

	cmd.Flags().String("mode", hostgate.Forever.String(),
		"How long to disable: once (this shell session) or forever")

	return cmd
}

func newHostsEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <url>",
		Short: "Turn annotation back on for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHostStore(cmd, func(ctx context.Context, store hostStore, _ *slog.Logger) error {
				if err := store.Enable(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: enabled\n", hostgate.Normalize(args[0]))
				return nil
			})
		},
	}
}
