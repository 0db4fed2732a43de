package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/peermark/internal/config"
	"github.com/nao1215/peermark/internal/database"
	"github.com/nao1215/peermark/internal/hostgate"
	"github.com/nao1215/peermark/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "Show past annotation runs",
		Long: `History lists the pages annotated so far, newest first. Every
"peermark annotate" run records one entry per page unless --no-history
is given.

Examples:
  # List the 20 most recent runs
  peermark history

  # Runs on one host
  peermark history www.cell.com

  # Show the full report of run 42
  peermark history --id 42

  # Forget runs older than 30 days
  peermark history --prune 720h`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("data-dir", config.XDGDataDir(),
		"Directory of the settings database")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().Int64("id", 0,
		"Show the full report of this run")
	cmd.Flags().BoolP("json", "j", false,
		"Print the report selected with --id as JSON")
	cmd.Flags().Duration("prune", 0,
		"Delete runs older than this duration")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	prune, err := flags.GetDuration("prune")
	if err != nil {
		return err
	}

	logger := loggerFor(cmd)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	db, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open settings database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	switch {
	case prune > 0:
		removed, err := db.PruneRuns(ctx, time.Now().Add(-prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d run(s) older than %s\n", removed, prune)
		return nil
	case id > 0:
		return showRun(ctx, cmd, db, id, cfg.JSONReport)
	}

	host := ""
	if len(args) == 1 {
		host = hostgate.Normalize(args[0])
	}

	runs, err := db.History(ctx, host, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		if isTerminal(out) {
			fmt.Fprintln(out, "No runs recorded.")
		}
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		state := r.State
		if r.Failed {
			state = "failed"
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Host,
			state,
			strconv.Itoa(r.Markers),
			strconv.Itoa(r.Publications),
			r.URL,
		})
	}

	fmt.Fprint(out, renderTable(out,
		[]string{"ID", "Time", "Host", "State", "Markers", "Publications", "URL"}, rows))
	return nil
}

// showRun prints the stored report of run id.
func showRun(ctx context.Context, cmd *cobra.Command, db *database.SettingsDB, id int64, asJSON bool) error {
	r, err := db.RunReport(ctx, id)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("run %d not found", id)
	}

	var w report.Writer
	if asJSON {
		w = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	} else {
		w = report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(true))
	}
	_, err = w.Write(r)
	return err
}
