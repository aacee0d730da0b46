package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/common"
	"github.com/mahesh-hegde/visualize/app/configurator"
	"github.com/mahesh-hegde/visualize/app/cube"
	"github.com/mahesh-hegde/visualize/app/filtering"
)

// Outcome is what a dispatch did to a session.
type Outcome struct {
	State   configurator.State
	Changed bool
	// Redirect is the route the session moved to, if any.
	Redirect     string
	PublishedKey string
	PublishErr   error
}

// Session is the state container of one chart being edited. Dispatches
// are serialized. After Close, Start and Dispatch fail with
// ErrSessionClosed and results of loads still in flight are dropped.
type Session struct {
	ID     string
	bridge *Bridge
	locale common.Locale

	mu      sync.Mutex
	chartID string
	state   configurator.State
	closed  bool
}

func (b *Bridge) NewSession(locale common.Locale) *Session {
	return &Session{
		ID:      NewChartID(),
		bridge:  b,
		locale:  locale,
		chartID: NewChartSession,
		state:   &configurator.Initial{},
	}
}

// Start loads the first state. The load runs without holding the session.
func (s *Session) Start(ctx context.Context, opts InitOptions) (Outcome, error) {
	if opts.ChartID == "" {
		opts.ChartID = NewChartSession
	}
	opts.Locale = s.locale
	state, redirect := s.bridge.Initialize(ctx, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		slog.Debug("dropping state loaded for closed session", "session", s.ID)
		return Outcome{}, ErrSessionClosed
	}
	s.chartID = opts.ChartID
	s.state = state
	out := Outcome{State: state, Changed: true, Redirect: redirect}
	s.afterChange(ctx, &out)
	return out, nil
}

// Snapshot returns the current state and chart id.
func (s *Session) Snapshot() (configurator.State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.chartID
}

func (s *Session) Locale() common.Locale {
	return s.locale
}

// Metadata resolves the cube of the current state, or returns nil when no
// dataset is selected.
func (s *Session) Metadata(ctx context.Context) (*cube.Metadata, error) {
	st, _ := s.Snapshot()
	return s.metadataOf(ctx, st)
}

func (s *Session) metadataOf(ctx context.Context, st configurator.State) (*cube.Metadata, error) {
	iri := datasetOf(st)
	if iri == "" {
		return nil, nil
	}
	return s.bridge.Metadata(ctx, iri, s.locale)
}

func datasetOf(st configurator.State) string {
	if sel, ok := st.(*configurator.SelectingDataset); ok {
		return sel.DataSet
	}
	if d, ok := configurator.DocumentOf(st); ok {
		return d.DataSet
	}
	return ""
}

// Dispatch applies an action. Actions that need metadata, and multi filter
// actions without the list of all values, are completed from the cube of
// the current state first.
func (s *Session) Dispatch(ctx context.Context, action configurator.Action) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Outcome{}, ErrSessionClosed
	}
	return s.dispatchLocked(ctx, action)
}

// dispatchLocked must be called with s.mu held.
func (s *Session) dispatchLocked(ctx context.Context, action configurator.Action) (Outcome, error) {
	action, err := s.complete(ctx, action)
	if err != nil {
		return Outcome{State: s.state}, err
	}

	next := configurator.Reduce(s.state, action)
	if next == s.state {
		slog.Debug("action had no effect", "session", s.ID, "type", action.Type(), "stage", s.state.Stage())
		return Outcome{State: s.state}, nil
	}
	s.state = next
	out := Outcome{State: next, Changed: true}
	s.afterChange(ctx, &out)
	return out, nil
}

// MoveFilter moves a filter by delta positions and dispatches the result
// as a filters update.
func (s *Session) MoveFilter(ctx context.Context, dimensionIri string, delta int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Outcome{}, ErrSessionClosed
	}
	d, ok := configurator.DocumentOf(s.state)
	if !ok {
		return Outcome{State: s.state}, nil
	}
	meta, err := s.metadataOf(ctx, s.state)
	if err != nil {
		return Outcome{State: s.state}, err
	}
	var possible []string
	if dim, ok := meta.Dimension(dimensionIri); ok {
		possible = dim.ValueStrings()
	}
	filters := d.ChartConfig.Base().Filters.Clone()
	if !filtering.MoveFilterField(&filters, dimensionIri, delta, possible) {
		return Outcome{State: s.state}, nil
	}
	return s.dispatchLocked(ctx, configurator.FiltersUpdate{Filters: filters})
}

func (s *Session) complete(ctx context.Context, action configurator.Action) (configurator.Action, error) {
	needsValues := false
	switch a := action.(type) {
	case configurator.FilterAddMulti:
		needsValues = a.AllValues == nil
	case configurator.FilterRemoveMulti:
		needsValues = a.AllValues == nil
	}
	if !configurator.NeedsMetadata(action) && !needsValues {
		return action, nil
	}
	meta, err := s.metadataOf(ctx, s.state)
	if err != nil {
		return nil, fmt.Errorf("error while loading metadata: %w", err)
	}
	if meta == nil {
		return action, nil
	}
	switch a := action.(type) {
	case configurator.MetadataAction:
		return a.WithMetadata(meta), nil
	case configurator.FilterAddMulti:
		a.AllValues = allValues(meta, a.DimensionIri)
		return a, nil
	case configurator.FilterRemoveMulti:
		a.AllValues = allValues(meta, a.DimensionIri)
		return a, nil
	}
	return action, nil
}

func allValues(meta *cube.Metadata, iri string) []string {
	if dim, ok := meta.Dimension(iri); ok {
		return dim.ValueStrings()
	}
	return nil
}

// afterChange runs the storage side effects of entering s.state.
// Must be called with s.mu held.
func (s *Session) afterChange(ctx context.Context, out *Outcome) {
	switch st := s.state.(type) {
	case *configurator.ConfiguringChart, *configurator.DescribingChart:
		if s.chartID == NewChartSession {
			s.chartID = NewChartID()
			out.Redirect = ChartRoute(s.chartID)
		}
		s.store(ctx)
	case *configurator.Publishing:
		key, err := s.bridge.Publish(ctx, st)
		if err != nil {
			slog.Error("publishing failed", "session", s.ID, "chart", s.chartID, "err", err)
			s.state = configurator.Reduce(s.state, configurator.PublishFailed{})
			out.PublishErr = err
			s.store(ctx)
		} else {
			s.state = configurator.Reduce(s.state, configurator.Published{Key: key})
			out.PublishedKey = key
			out.Redirect = PublishedRoute(key)
			slog.Info("chart published", "session", s.ID, "key", key, "dataset", st.DataSet)
		}
	}
	out.State = s.state
}

func (s *Session) store(ctx context.Context) {
	if err := s.bridge.Store(ctx, s.chartID, s.state); err != nil {
		slog.Error("cannot store state", "session", s.ID, "chart", s.chartID, "err", err)
	}
}

// Close detaches the session. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FiltersOf splits the filters of a document state by whether their
// dimension is bound to a field.
func FiltersOf(st configurator.State) (mapped, unmapped chartconfig.Filters, ok bool) {
	d, ok := configurator.DocumentOf(st)
	if !ok || d.ChartConfig == nil {
		return chartconfig.Filters{}, chartconfig.Filters{}, false
	}
	mapped, unmapped = filtering.ByMappingStatus(d.ChartConfig)
	return mapped, unmapped, true
}
