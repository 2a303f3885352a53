// Package board implements the activity board's view controller.
//
// The Controller owns the committed directory snapshot, the load state, the
// message area and any optimistic patches. Fetch results and patches are
// ordered by numbers drawn from a single monotonic sequence:
//
//   - a fetch commits only if its generation is the latest one issued, so a
//     slow earlier fetch can never overwrite a newer one;
//   - a successful signup applies a patch tagged with a fresh request id, and
//     the patch is dropped once a fetch issued after it commits.
//
// The state mutex is never held across calls to the API.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nomis52/activityboard/clients/activityclient"
	"github.com/nomis52/activityboard/directory"
	"github.com/nomis52/activityboard/metrics"
	"github.com/nomis52/activityboard/notice"
	"github.com/nomis52/activityboard/view"
)

// Messages shown in the message area.
const (
	ValidationText = "Please enter your email and select an activity."

	SignupAPIErrorText       = "Failed to sign up."
	SignupTransportErrorText = "An error occurred while signing up."
	SignupSuccessText        = "Signed up successfully!"

	UnregisterAPIErrorText       = "Failed to unregister."
	UnregisterTransportErrorText = "An error occurred while unregistering."
	UnregisterSuccessText        = "Unregistered successfully!"
)

var (
	// ErrValidation is returned when a signup is missing the email or activity.
	ErrValidation = errors.New("email and activity are required")
	// ErrCancelled is returned when an unregister was not confirmed.
	ErrCancelled = errors.New("unregister cancelled")
	// ErrStale is returned by Load when a newer fetch was issued while it ran.
	ErrStale = errors.New("fetch superseded by a newer fetch")
)

// API is the subset of the activities API the controller needs.
// *activityclient.Client satisfies it.
type API interface {
	Activities(ctx context.Context) (directory.Directory, error)
	Signup(ctx context.Context, activity, email string) (string, error)
	Unregister(ctx context.Context, activity, email string) (string, error)
}

// Confirmer asks whether email should really be removed from activity.
type Confirmer func(activity, email string) bool

// Result describes the outcome of a mutation for the caller's form.
type Result struct {
	Message notice.Message
	// ClearEmail is true when the email input should be emptied.
	ClearEmail bool
}

// Status summarizes the controller state.
type Status struct {
	State          view.LoadState `json:"state"`
	Version        uint64         `json:"version"`
	FetchedAt      *time.Time     `json:"fetched_at,omitempty"`
	Activities     int            `json:"activities"`
	PendingPatches int            `json:"pending_patches"`
}

type rosterRequest struct {
	Activity string `validate:"required"`
	Email    string `validate:"required"`
}

// patch is an optimistic roster addition.
type patch struct {
	id       uint64
	activity string
	email    string
}

// Controller coordinates loading, signing up and unregistering.
// It is safe for concurrent use.
type Controller struct {
	api      API
	logger   *slog.Logger
	notices  *notice.Board
	registry metrics.Registry
	metrics  *boardMetrics
	validate *validator.Validate
	now      func() time.Time

	mu          sync.Mutex
	seq         uint64
	latestFetch uint64
	snapshot    *directory.Snapshot
	state       view.LoadState
	patches     []patch
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithNotices sets the message area.
func WithNotices(b *notice.Board) Option {
	return func(c *Controller) {
		c.notices = b
	}
}

// WithRegistry sets the metrics registry.
func WithRegistry(reg metrics.Registry) Option {
	return func(c *Controller) {
		c.registry = reg
	}
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New creates a Controller backed by api. Without WithRegistry the metrics
// go to a private scrape registry.
func New(api API, opts ...Option) (*Controller, error) {
	c := &Controller{
		api:      api,
		logger:   slog.Default(),
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.notices == nil {
		c.notices = notice.New()
	}
	if c.registry == nil {
		reg, err := metrics.NewScrapeRegistry()
		if err != nil {
			return nil, err
		}
		c.registry = reg
	}

	m, err := newBoardMetrics(c.registry)
	if err != nil {
		return nil, err
	}
	c.metrics = m
	c.logger = c.logger.With("component", "board")
	return c, nil
}

// Load fetches the directory and commits it if no newer fetch was issued in
// the meantime. It returns ErrStale when the result was discarded.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	gen := c.seq
	c.latestFetch = gen
	c.state = view.StateLoading
	c.mu.Unlock()

	d, fetchErr := c.api.Activities(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.latestFetch {
		c.metrics.staleFetches.Inc()
		c.logger.DebugContext(ctx, "discarding stale fetch", "generation", gen, "latest", c.latestFetch)
		return ErrStale
	}

	if fetchErr != nil {
		c.state = view.StateError
		c.metrics.fetches.With(outcomeLabels(errorOutcome(fetchErr))).Inc()
		c.logger.WarnContext(ctx, "failed to load activities", "generation", gen, "error", fetchErr)
		return fmt.Errorf("loading activities: %w", fetchErr)
	}

	c.snapshot = &directory.Snapshot{
		Version:   gen,
		FetchedAt: c.now(),
		Directory: d,
	}
	c.state = view.StateRendered

	kept := c.patches[:0]
	for _, p := range c.patches {
		if p.id < gen {
			c.metrics.discardedPatches.Inc()
			continue
		}
		kept = append(kept, p)
	}
	c.patches = kept

	c.metrics.fetches.With(outcomeLabels(outcomeOK)).Inc()
	c.metrics.snapshotVersion.Set(float64(gen))
	c.metrics.activities.Set(float64(d.Len()))
	c.logger.DebugContext(ctx, "committed snapshot", "version", gen, "activities", d.Len())
	return nil
}

// Signup registers email for activity. On success the participant is shown
// optimistically and the directory is re-fetched.
func (c *Controller) Signup(ctx context.Context, activity, email string) (Result, error) {
	req := rosterRequest{Activity: activity, Email: strings.TrimSpace(email)}
	if err := c.validate.Struct(req); err != nil {
		c.metrics.signups.With(outcomeLabels(outcomeInvalid)).Inc()
		msg := c.notices.Show(ValidationText, notice.KindError)
		return Result{Message: msg}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	text, err := c.api.Signup(ctx, req.Activity, req.Email)
	if err != nil {
		c.metrics.signups.With(outcomeLabels(errorOutcome(err))).Inc()
		c.logger.WarnContext(ctx, "signup failed", "activity", req.Activity, "email", req.Email, "error", err)
		msg := c.notices.Show(failureText(err, SignupAPIErrorText, SignupTransportErrorText), notice.KindError)
		return Result{Message: msg}, fmt.Errorf("signing up: %w", err)
	}

	c.metrics.signups.With(outcomeLabels(outcomeOK)).Inc()
	if text == "" {
		text = SignupSuccessText
	}
	msg := c.notices.Show(text, notice.KindSuccess)
	c.applyPatch(req.Activity, req.Email)

	c.reconcile(ctx)
	return Result{Message: msg, ClearEmail: true}, nil
}

// Unregister removes email from activity once confirm agrees, then re-fetches
// the directory. A nil confirm is treated as confirmed. Blank fields fail with
// ErrValidation before confirm is asked.
func (c *Controller) Unregister(ctx context.Context, activity, email string, confirm Confirmer) (Result, error) {
	req := rosterRequest{Activity: activity, Email: strings.TrimSpace(email)}
	if err := c.validate.Struct(req); err != nil {
		c.metrics.unregisters.With(outcomeLabels(outcomeInvalid)).Inc()
		msg := c.notices.Show(ValidationText, notice.KindError)
		return Result{Message: msg}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	activity, email = req.Activity, req.Email

	if confirm != nil && !confirm(activity, email) {
		c.metrics.unregisters.With(outcomeLabels(outcomeCancelled)).Inc()
		return Result{}, ErrCancelled
	}

	text, err := c.api.Unregister(ctx, activity, email)
	if err != nil {
		c.metrics.unregisters.With(outcomeLabels(errorOutcome(err))).Inc()
		c.logger.WarnContext(ctx, "unregister failed", "activity", activity, "email", email, "error", err)
		msg := c.notices.Show(failureText(err, UnregisterAPIErrorText, UnregisterTransportErrorText), notice.KindError)
		return Result{Message: msg}, fmt.Errorf("unregistering: %w", err)
	}

	c.metrics.unregisters.With(outcomeLabels(outcomeOK)).Inc()
	if text == "" {
		text = UnregisterSuccessText
	}
	msg := c.notices.Show(text, notice.KindSuccess)

	c.reconcile(ctx)
	return Result{Message: msg}, nil
}

// View renders the committed snapshot with surviving patches applied.
func (c *Controller) View(sel view.Selection) view.Page {
	c.mu.Lock()
	in := view.Input{
		State:     c.state,
		Selection: sel,
	}
	if c.snapshot != nil {
		d := c.snapshot.Directory
		for _, p := range c.patches {
			a, ok := d.Get(p.activity)
			if !ok || a.HasParticipant(p.email) {
				continue
			}
			d = d.WithParticipant(p.activity, p.email)
			in.Pending = append(in.Pending, view.Participant{Activity: p.activity, Email: p.email})
		}
		in.Directory = &d
		in.Version = c.snapshot.Version
	}
	c.mu.Unlock()

	in.Message = c.notices.Current()
	return view.Render(in)
}

// Snapshot returns the committed snapshot, if any.
func (c *Controller) Snapshot() (directory.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return directory.Snapshot{}, false
	}
	return directory.Snapshot{
		Version:   c.snapshot.Version,
		FetchedAt: c.snapshot.FetchedAt,
		Directory: c.snapshot.Directory.Clone(),
	}, true
}

// Status returns a summary of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		State:          c.state,
		PendingPatches: len(c.patches),
	}
	if c.snapshot != nil {
		fetchedAt := c.snapshot.FetchedAt
		st.Version = c.snapshot.Version
		st.FetchedAt = &fetchedAt
		st.Activities = c.snapshot.Directory.Len()
	}
	return st
}

// Message returns the message area state.
func (c *Controller) Message() notice.Message {
	return c.notices.Current()
}

// applyPatch records an optimistic addition tagged with the next request id.
func (c *Controller) applyPatch(activity, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.patches = append(c.patches, patch{id: c.seq, activity: activity, email: email})
}

// reconcile re-fetches after a mutation. Failures only affect the load state.
func (c *Controller) reconcile(ctx context.Context) {
	if err := c.Load(ctx); err != nil && !errors.Is(err, ErrStale) {
		c.logger.WarnContext(ctx, "reconciling fetch failed", "error", err)
	}
}

func errorOutcome(err error) string {
	var apiErr *activityclient.APIError
	if errors.As(err, &apiErr) {
		return outcomeAPIError
	}
	return outcomeTransport
}

// failureText picks the message for a failed mutation: the server's detail
// when there is one, apiText for other API errors, transportText otherwise.
func failureText(err error, apiText, transportText string) string {
	var apiErr *activityclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return apiText
	}
	return transportText
}
