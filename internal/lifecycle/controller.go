package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nao1215/peermark/internal/annotate"
	"github.com/nao1215/peermark/internal/banner"
	"github.com/nao1215/peermark/internal/hostgate"
	"github.com/nao1215/peermark/internal/message"
	"github.com/nao1215/peermark/internal/model"
	"github.com/nao1215/peermark/internal/page"
	"github.com/nao1215/peermark/internal/pipeline"
)

// Permission answers whether annotation is disabled for a page URL.
// Implementations may fail; the controller then annotates anyway.
type Permission interface {
	IsDisabled(ctx context.Context, url string) (bool, error)
}

// Shell answers a PageReady announcement with the message the page should
// apply, or nil when the host is opted out.
type Shell interface {
	Ready(ctx context.Context, url string) (message.Message, error)
}

// Deps are the collaborators of a Controller.
type Deps struct {
	// Permission decides whether the page's host is opted out.
	// Nil permits every host.
	Permission Permission

	// Lookup queries the review service. Required.
	Lookup pipeline.Looker

	// Annotator places markers. Nil uses annotate.New().
	Annotator *annotate.Annotator

	// Banner renders the summary. Nil uses banner.New().
	Banner *banner.Renderer

	// Port carries messages to the shell. Only PageLoaded needs it.
	Port message.Port

	// Shell answers PageReady for Announce. Nil makes Announce fall back
	// to Start.
	Shell Shell
}

// Controller drives the annotation lifecycle of one page.
type Controller struct {
	// mu serializes every operation on the page.
	mu sync.Mutex

	page   *page.Page
	deps   Deps
	logger *slog.Logger

	state        State
	identifiers  []string
	feedbacks    []model.Feedback
	publications []model.Publication

	// optedOut records that the host was found disabled before any
	// annotation ran. The page itself stays Idle.
	optedOut bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a Controller for p in the Idle state.
func New(p *page.Page, deps Deps, opts ...Option) (*Controller, error) {
	if p == nil || p.Doc == nil {
		return nil, ErrNilPage
	}
	if deps.Lookup == nil {
		return nil, ErrNoLookup
	}

	c := &Controller{
		page:         p,
		deps:         deps,
		state:        Idle,
		identifiers:  make([]string, 0),
		feedbacks:    make([]model.Feedback, 0),
		publications: make([]model.Publication, 0),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("url", p.URL)

	if c.deps.Annotator == nil {
		c.deps.Annotator = annotate.New(annotate.WithLogger(c.logger))
	}
	if c.deps.Banner == nil {
		c.deps.Banner = banner.New(banner.WithLogger(c.logger))
	}

	return c, nil
}

// PageLoaded announces the page to the shell with a PageReady message.
// The shell answers through Handle.
func (c *Controller) PageLoaded(ctx context.Context) error {
	if c.deps.Port == nil {
		return ErrNoPort
	}
	if err := c.deps.Port.Send(ctx, message.PageReady{URL: c.page.URL}); err != nil {
		return fmt.Errorf("failed to announce page: %w", err)
	}
	return nil
}

// Announce sends PageReady to the shell and applies its answer.
// A nil answer leaves the page Idle. A shell that cannot be reached is
// logged and the page is annotated anyway.
func (c *Controller) Announce(ctx context.Context) error {
	if c.deps.Shell == nil {
		return c.Start(ctx)
	}

	reply, err := c.deps.Shell.Ready(ctx, c.page.URL)
	if err != nil {
		c.logger.Warn("shell unavailable, annotating anyway", "error", err)
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.annotate(ctx)
	}
	if reply == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.logger.Info("annotation disabled for host", "host", c.page.Host)
		c.optedOut = true
		return nil
	}
	return c.Handle(ctx, reply)
}

// Start checks the host permission and annotates the page when allowed.
// A failing permission check is logged and treated as "not disabled".
// An opted-out host leaves the page Idle. The returned error is a lookup
// failure; the page is left Idle.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deps.Permission != nil {
		disabled, err := c.deps.Permission.IsDisabled(ctx, c.page.URL)
		if err != nil {
			c.logger.Warn("permission check failed, annotating anyway", "error", err)
		} else if disabled {
			c.logger.Info("annotation disabled for host", "host", c.page.Host)
			c.optedOut = true
			return nil
		}
	}

	return c.annotate(ctx)
}

// Handle applies a message from the shell.
// EnableAnnotations rescans and annotates; DisableAnnotations removes every
// annotation and reverts layout shims.
func (c *Controller) Handle(ctx context.Context, m message.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch m.(type) {
	case message.EnableAnnotations:
		return c.annotate(ctx)
	case message.DisableAnnotations:
		c.disable()
		return nil
	case message.PageReady:
		return fmt.Errorf("%w: %s", ErrWrongDirection, m.Kind())
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedMessage, m)
	}
}

// DismissBanner removes the summary banner and reverts shims, leaving
// markers in place. It reports whether a banner was removed.
func (c *Controller) DismissBanner() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.deps.Banner.Dismiss(c.page.Doc, c.page.Host)
}

// annotate runs the pipeline. The caller must hold mu.
func (c *Controller) annotate(ctx context.Context) error {
	c.page.MarkExtensionPresent()
	c.optedOut = false

	run := pipeline.NewRun(c.page, c.publications)

	p := pipeline.New(
		pipeline.WithLogger(c.logger),
		pipeline.WithBeforeStep(func(s pipeline.Step) {
			switch s.Name() {
			case pipeline.ScanStepName:
				c.state = Scanning
			case pipeline.LookupStepName:
				c.state = AwaitingLookup
			}
		}),
	)
	p.AddSteps(pipeline.DefaultSteps(c.deps.Lookup, c.deps.Annotator, c.deps.Banner, c.logger)...)

	err := p.Execute(ctx, run)

	c.identifiers = run.Identifiers
	c.feedbacks = run.Feedbacks

	switch {
	case err == nil:
		c.publications = run.Publications
		c.state = Annotated
		c.logger.Debug("page annotated",
			"identifiers", len(run.Identifiers),
			"markers", run.Markers,
			"banner", run.Banner,
		)
		return nil
	case pipeline.IsHalt(err):
		c.state = Idle
		return nil
	default:
		c.state = Idle
		return err
	}
}

// disable strips every annotation. The caller must hold mu.
func (c *Controller) disable() {
	removed := annotate.Remove(c.page.Doc)
	dismissed := c.deps.Banner.Dismiss(c.page.Doc, c.page.Host)

	c.publications = make([]model.Publication, 0)
	c.state = Disabled

	c.logger.Debug("annotations removed", "markers", removed, "banner", dismissed)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identifiers returns the identifiers found by the last scan.
func (c *Controller) Identifiers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.identifiers...)
}

// Publications returns the titled publications currently listed.
func (c *Controller) Publications() []model.Publication {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Publication{}, c.publications...)
}

// Page returns the controlled page.
func (c *Controller) Page() *page.Page {
	return c.page
}

// Fill copies the controller's outcome into report.
func (c *Controller) Fill(report *model.PageReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report.URL = c.page.URL
	report.Host = hostgate.Normalize(c.page.URL)
	report.State = c.state.String()
	report.Disabled = c.state == Disabled || c.optedOut
	report.Identifiers = append([]string{}, c.identifiers...)
	report.Feedbacks = append([]model.Feedback{}, c.feedbacks...)
	report.Publications = append([]model.Publication{}, c.publications...)
	report.Markers = annotate.Count(c.page.Doc)
	report.Banner = banner.Present(c.page.Doc)
}
