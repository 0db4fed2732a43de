package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/nao1215/peermark/internal/annotate"
	"github.com/nao1215/peermark/internal/banner"
	"github.com/nao1215/peermark/internal/config"
	"github.com/nao1215/peermark/internal/database"
	"github.com/nao1215/peermark/internal/lifecycle"
	"github.com/nao1215/peermark/internal/lookup"
	"github.com/nao1215/peermark/internal/markup"
	"github.com/nao1215/peermark/internal/model"
	"github.com/nao1215/peermark/internal/page"
	"github.com/nao1215/peermark/internal/pipeline"
	"github.com/nao1215/peermark/internal/report"
	"github.com/nao1215/peermark/internal/shell"
)

// errNoMatch is returned when a glob matches no files.
var errNoMatch = errors.New("pattern matched no files")

// NewAnnotateCmd creates the annotate command.
func NewAnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate [url|file|glob]...",
		Short: "Annotate pages with PubPeer comment markers",
		Long: `Annotate finds DOIs in each page, looks them up on PubPeer in a single
request per page and inserts a marker after the most specific element
mentioning each commented DOI. A summary banner lists the titled
publications.

Targets may be http(s) URLs, saved HTML files, or glob patterns such as
"saved/**/*.html". Saved files take their URL from --url, or from the
page's canonical link when --url is not given.

Hosts that were opted out (see "peermark hosts") are left untouched.

Examples:
  # Annotate a live page and write the annotated copy
  peermark annotate -d out https://www.example.com/search?q=crispr

  # Annotate saved search results
  peermark annotate --url "https://duckduckgo.com/?q=crispr" results.html

  # Annotate a directory of saved pages, four at a time, as JSON
  peermark annotate -b 4 --json -d out "saved/**/*.html"

  # Announce each page to a running "peermark serve" and follow its answer
  peermark annotate --shell 127.0.0.1:7878 -d out page.html`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnnotateCmd,
	}

	cmd.Flags().StringP("url", "u", "",
		"Page URL for saved files (default: the page's canonical link)")
	cmd.Flags().StringP("output-dir", "d", "",
		"Write annotated HTML into this directory")
	cmd.Flags().StringP("shell", "s", "",
		"Address of a running peermark shell that decides whether each page is annotated")
	cmd.Flags().String("data-dir", config.XDGDataDir(),
		"Directory of the settings database")

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each lookup request and page fetch")
	cmd.Flags().IntP("batch", "b", config.DefaultConcurrency,
		"Number of pages processed concurrently")
	cmd.Flags().String("service", config.DefaultServiceURL,
		"Base URL of the comment service")
	cmd.Flags().String("client-tag", config.DefaultClientTag,
		"Client tag sent to the service and used in tracking links")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent for lookup requests and page fetches")
	cmd.Flags().StringSlice("selector", nil,
		"Candidate container selector (repeatable; replaces the built-in list)")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .peermark in current or home directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("show-empty", false,
		"List pages without comments in the text report")
	cmd.Flags().Bool("no-history", false,
		"Do not record the results in the settings database")

	return cmd
}

// runAnnotateCmd executes the annotate command.
func runAnnotateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var opts annotateOptions
	if opts.showEmpty, err = cmd.Flags().GetBool("show-empty"); err != nil {
		return err
	}
	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return err
	}
	opts.history = !noHistory

	logger := loggerFor(cmd)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runAnnotate(ctx, cfg, logger, cmd.OutOrStdout(), opts)
}

// annotateOptions holds annotate settings that are not part of Config.
type annotateOptions struct {
	showEmpty bool
	history   bool
}

// runAnnotate annotates every target and writes the report.
func runAnnotate(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer, opts annotateOptions) error {
	targets, err := expandTargets(cfg.Targets)
	if err != nil {
		return err
	}

	logger.Info("starting annotation",
		"targets", len(targets),
		"concurrency", cfg.Concurrency,
		"endpoint", cfg.Endpoint(),
	)

	deps, closeShell := openShell(ctx, cfg, logger)
	defer closeShell()

	looker, err := lookup.NewClient(cfg.Endpoint(),
		lookup.WithClientVersion(cfg.ClientVersion),
		lookup.WithClientTag(cfg.ClientTag),
		lookup.WithUserAgent(cfg.UserAgent),
		lookup.WithMaxBodySize(cfg.MaxBodySize),
		lookup.WithTimeout(cfg.Timeout),
		lookup.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create lookup client: %w", err)
	}

	tracking := markup.NewTracking(cfg.ClientTag)

	annotatorOpts := []annotate.Option{
		annotate.WithTracking(tracking),
		annotate.WithLogger(logger),
	}
	if len(cfg.Selectors) > 0 {
		annotatorOpts = append(annotatorOpts, annotate.WithSelectors(cfg.Selectors))
	}
	annotator := annotate.New(annotatorOpts...)

	renderer := banner.New(
		banner.WithServiceURL(cfg.ServiceBase()),
		banner.WithTracking(tracking),
		banner.WithShims(cfg.ShimTable()),
		banner.WithLogger(logger),
	)

	fetcher := &http.Client{Timeout: cfg.Timeout, Transport: userAgentTransport{ua: cfg.UserAgent}}

	process := func(ctx context.Context, r *model.PageReport) error {
		p, err := loadPage(ctx, fetcher, r.Source, cfg.PageURL)
		if err != nil {
			return err
		}

		pageDeps := deps
		pageDeps.Lookup = looker
		pageDeps.Annotator = annotator
		pageDeps.Banner = renderer

		ctrl, err := lifecycle.New(p, pageDeps, lifecycle.WithLogger(logger.With("run_id", r.ID)))
		if err != nil {
			return err
		}

		startErr := ctrl.Announce(ctx)
		ctrl.Fill(r)

		if cfg.OutputDir != "" {
			path, err := writeAnnotated(cfg.OutputDir, r.Source, p)
			if err != nil {
				return errors.Join(startErr, err)
			}
			r.OutputPath = path
		}

		return startErr
	}

	bp := pipeline.NewBatchProcessor(process,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	reports, batchErr := bp.ProcessBatch(ctx, targets)

	if opts.history {
		recordHistory(ctx, cfg.DataDir, reports, logger)
	}

	if err := outputReport(cfg, stdout, reports, opts.showEmpty); err != nil {
		return errors.Join(batchErr, fmt.Errorf("failed to write report: %w", err))
	}

	return batchErr
}

// openShell returns the shell-facing dependencies for cfg. With
// ShellAddress set, each page announces itself to the running shell and
// applies its answer. Otherwise opt-outs come from the local settings
// database. When neither is usable every host is permitted.
func openShell(ctx context.Context, cfg *config.Config, logger *slog.Logger) (lifecycle.Deps, func()) {
	if cfg.ShellAddress != "" {
		client, err := shell.NewClient(cfg.ShellAddress, shell.WithClientLogger(logger))
		if err != nil {
			logger.Warn("ignoring shell address, annotating every host", "error", err)
			return lifecycle.Deps{}, func() {}
		}
		return lifecycle.Deps{Shell: client, Port: client}, func() {}
	}

	gate, closeGate, err := openLocalGate(ctx, cfg.DataDir, logger)
	if err != nil {
		logger.Warn("host opt-outs unavailable, annotating every host", "error", err)
		return lifecycle.Deps{}, func() {}
	}
	return lifecycle.Deps{Permission: shell.NewLocal(gate)}, closeGate
}

// recordHistory stores every finished report in the settings database.
// Failures are logged only.
func recordHistory(ctx context.Context, dir string, reports []*model.PageReport, logger *slog.Logger) {
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		return
	}
	defer db.Close()

	saved := 0
	for _, r := range reports {
		if r == nil {
			continue
		}
		if _, err := db.SaveRun(ctx, r); err != nil {
			logger.Warn("failed to record run", "run_id", r.ID, "error", err)
			continue
		}
		saved++
	}
	logger.Debug("recorded run history", "runs", saved, "path", db.Path())
}

// isRemote reports whether target is an http(s) URL.
func isRemote(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// expandTargets resolves glob patterns to files and removes duplicates,
// keeping the order in which targets were given.
func expandTargets(targets []string) ([]string, error) {
	out := make([]string, 0, len(targets))
	seen := make(map[string]struct{}, len(targets))
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if isRemote(t) || !strings.ContainsAny(t, "*?[{") {
			add(t)
			continue
		}

		matches, err := doublestar.FilepathGlob(t, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", t, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %s", errNoMatch, t)
		}
		for _, m := range matches {
			add(m)
		}
	}

	if len(out) == 0 {
		return nil, config.ErrNoTarget
	}
	return out, nil
}

// loadPage fetches a URL target or reads a file target.
func loadPage(ctx context.Context, client *http.Client, source, pageURL string) (*page.Page, error) {
	if isRemote(source) {
		return page.Fetch(ctx, client, source)
	}
	return page.ParseFile(source, pageURL)
}

// unsafeNameChars matches characters replaced in output file names.
var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// outputName derives the annotated file name for source.
func outputName(source string) string {
	name := source
	if isRemote(source) {
		name = name[strings.Index(name, "://")+3:]
	} else {
		name = filepath.ToSlash(filepath.Clean(name))
		name = strings.TrimLeft(name, "./")
	}

	name = strings.Trim(unsafeNameChars.ReplaceAllString(name, "_"), "_")
	if name == "" {
		name = "page"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".html") && !strings.HasSuffix(strings.ToLower(name), ".htm") {
		name += ".html"
	}
	return name
}

// writeAnnotated renders p into dir and returns the written path.
func writeAnnotated(dir, source string, p *page.Page) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	rendered, err := p.HTML()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, outputName(source))
	if err := os.WriteFile(path, []byte(rendered), 0600); err != nil {
		return "", fmt.Errorf("failed to write annotated page: %w", err)
	}
	return path, nil
}

// outputReport writes the reports in the requested format.
func outputReport(cfg *config.Config, stdout io.Writer, reports []*model.PageReport, showEmpty bool) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose), report.WithShowEmpty(showEmpty))
	}

	if len(reports) == 1 && reports[0] != nil {
		_, err := w.Write(reports[0])
		return err
	}
	_, err := w.WriteBatch(reports)
	return err
}

// userAgentTransport sets the User-Agent on page fetches.
type userAgentTransport struct {
	ua   string
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.ua != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.ua)
	}
	return base.RoundTrip(req)
}
