// Package persistence loads configurator states when a session starts,
// mirrors them to session storage while the chart is edited and saves the
// chart when it is published.
package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mahesh-hegde/visualize/app/chartconfig"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrSessionClosed = errors.New("session closed")
)

// NewChartSession is the chart id of a session that has not been stored
// yet.
const NewChartSession = "new"

const storageKeyPrefix = "vizualize-configurator-state"

// StorageKey is the session storage key of a chart id.
func StorageKey(chartID string) string {
	return storageKeyPrefix + ":" + chartID
}

// SessionStore keeps serialized configurator states. It behaves like
// browser local storage: a single owner, last writer wins.
type SessionStore interface {
	// Get returns the stored value, or false when there is none.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}

// ChartStore keeps published charts.
type ChartStore interface {
	// Save stores a chart and returns the key it is published under.
	Save(ctx context.Context, chart chartconfig.SavedChart) (string, error)
	// Fetch returns ErrNotFound for unknown keys, and an error wrapping
	// chartconfig.ErrInvalidDocument when the stored document no longer
	// decodes.
	Fetch(ctx context.Context, key string) (*chartconfig.SavedChart, error)
}

// NewChartID returns a fresh persistent chart id.
func NewChartID() string {
	return uuid.NewString()
}
