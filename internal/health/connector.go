package health

import (
	"context"
	"time"
)

// Connector abstracts a third-party data source (Oura, Garmin, Strava, ...).
// Fetch returns normalized per-day records for the inclusive [from, to]
// window; an empty window yields an empty slice, not an error.
type Connector interface {
	Source() Source
	Fetch(ctx context.Context, from, to time.Time) ([]AppRecord, error)
}

// LocalStore is the contract the on-disk dataset store must satisfy.
type LocalStore interface {
	Load() ([]DailyRecord, error)
	Save([]DailyRecord) error
}

// RemoteStore moves named dataset files between local disk and a cloud
// bucket. Download reports false when the object does not exist remotely.
type RemoteStore interface {
	Download(ctx context.Context, name string) (bool, error)
	Upload(ctx context.Context, name string) error
}

// Exporter writes the merged table to a secondary format (CSV).
type Exporter interface {
	Export([]DailyRecord) error
}

// Registry holds the configured connectors in canonical source order.
type Registry struct {
	connectors []Connector
}

// NewRegistry builds a registry from the given connectors, keeping their
// order. Nil entries (unconfigured connectors) are dropped.
func NewRegistry(connectors ...Connector) *Registry {
	r := &Registry{}
	for _, c := range connectors {
		if c != nil {
			r.connectors = append(r.connectors, c)
		}
	}
	return r
}

// Connectors returns all registered connectors.
func (r *Registry) Connectors() []Connector {
	return r.connectors
}

// SourceNames returns the registered source names in order.
func (r *Registry) SourceNames() []string {
	names := make([]string, 0, len(r.connectors))
	for _, c := range r.connectors {
		names = append(names, string(c.Source()))
	}
	return names
}
