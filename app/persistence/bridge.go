package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mahesh-hegde/visualize/app/common"
	"github.com/mahesh-hegde/visualize/app/configurator"
	"github.com/mahesh-hegde/visualize/app/cube"
	"github.com/mahesh-hegde/visualize/app/filtering"
)

// NewChartRoute is where sessions are sent when their stored state is gone.
const NewChartRoute = "/create/" + NewChartSession

func ChartRoute(chartID string) string {
	return "/create/" + chartID
}

func PublishedRoute(key string) string {
	return "/v/" + key + "?publishSuccess=true"
}

// Bridge moves configurator states between the reducer and storage.
type Bridge struct {
	sessions      SessionStore
	charts        ChartStore
	metadata      cube.MetadataSource
	allowRedirect bool
}

func NewBridge(sessions SessionStore, charts ChartStore, metadata cube.MetadataSource, allowRedirect bool) *Bridge {
	return &Bridge{sessions: sessions, charts: charts, metadata: metadata, allowRedirect: allowRedirect}
}

type InitOptions struct {
	ChartID string
	// From is the key of a published chart to start from.
	From string
	// Cube is a dataset IRI to start from.
	Cube   string
	Locale common.Locale
}

// Initialize builds the first state of a session. For a new chart it
// clones From, else bootstraps Cube, else starts empty. A named chart is
// loaded from session storage; when nothing usable is stored the returned
// redirect points at a fresh session, if redirects are allowed.
func (b *Bridge) Initialize(ctx context.Context, opts InitOptions) (state configurator.State, redirect string) {
	var loaded configurator.State
	if opts.ChartID == NewChartSession || opts.ChartID == "" {
		switch {
		case opts.From != "":
			loaded = b.InitFromChart(ctx, opts.From, opts.Locale)
		case opts.Cube != "":
			loaded = b.InitFromCube(ctx, opts.Cube, opts.Locale)
		}
	} else {
		loaded = b.InitFromSessionStore(ctx, opts.ChartID)
		if loaded == nil && b.allowRedirect {
			redirect = NewChartRoute
		}
	}
	if loaded == nil {
		loaded = &configurator.Initial{}
	}
	return configurator.Reduce(&configurator.Initial{}, configurator.Initialized{Value: loaded}), redirect
}

// InitFromChart starts configuring a copy of a published chart. Single
// filter values the cube no longer has are replaced by its first value.
func (b *Bridge) InitFromChart(ctx context.Context, key string, locale common.Locale) configurator.State {
	chart, err := b.charts.Fetch(ctx, key)
	if err != nil {
		slog.Warn("cannot load published chart", "key", key, "err", err)
		return nil
	}
	if meta, err := b.metadata.Metadata(ctx, chart.DataSet, locale); err == nil {
		filtering.EnsureValuesCorrect(&chart.ChartConfig.Base().Filters, meta.Dimensions)
	} else {
		slog.Warn("cannot load metadata of published chart", "key", key, "dataset", chart.DataSet, "err", err)
	}
	return &configurator.ConfiguringChart{Document: configurator.Document{
		DataSet:     chart.DataSet,
		Meta:        chart.Meta,
		ChartConfig: chart.ChartConfig,
	}}
}

// InitFromCube selects the dataset and steps into configuring it.
func (b *Bridge) InitFromCube(ctx context.Context, iri string, locale common.Locale) configurator.State {
	meta, err := b.metadata.Metadata(ctx, iri, locale)
	if err != nil {
		slog.Warn("cannot load metadata of dataset", "dataset", iri, "err", err)
		return nil
	}
	sel := &configurator.SelectingDataset{DataSet: iri}
	return configurator.Reduce(sel, configurator.StepNext{Metadata: meta})
}

// InitFromSessionStore loads the stored state of a chart. A stored value
// that does not decode is removed.
func (b *Bridge) InitFromSessionStore(ctx context.Context, chartID string) configurator.State {
	key := StorageKey(chartID)
	raw, ok, err := b.sessions.Get(ctx, key)
	if err != nil {
		slog.Error("cannot read session storage", "key", key, "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	s, err := configurator.Decode([]byte(raw))
	if err != nil {
		slog.Warn("discarding invalid stored state", "key", key, "err", err)
		if err := b.sessions.Remove(ctx, key); err != nil {
			slog.Error("cannot remove invalid stored state", "key", key, "err", err)
		}
		return nil
	}
	return s
}

// Store writes s under the key of chartID.
func (b *Bridge) Store(ctx context.Context, chartID string, s configurator.State) error {
	raw, err := configurator.Encode(s)
	if err != nil {
		return fmt.Errorf("error while encoding state: %w", err)
	}
	if err := b.sessions.Set(ctx, StorageKey(chartID), string(raw)); err != nil {
		return fmt.Errorf("error while storing state of chart %s: %w", chartID, err)
	}
	return nil
}

func (b *Bridge) Forget(ctx context.Context, chartID string) error {
	return b.sessions.Remove(ctx, StorageKey(chartID))
}

// Publish saves the document of a publishing state.
func (b *Bridge) Publish(ctx context.Context, s *configurator.Publishing) (string, error) {
	key, err := b.charts.Save(ctx, s.Saved())
	if err != nil {
		return "", fmt.Errorf("error while publishing chart: %w", err)
	}
	return key, nil
}

func (b *Bridge) Metadata(ctx context.Context, iri string, locale common.Locale) (*cube.Metadata, error) {
	return b.metadata.Metadata(ctx, iri, locale)
}
