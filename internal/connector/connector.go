package connector

import (
	"context"

	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/storage"
)

// Connector defines the interface all log document sources must implement.
type Connector interface {
	// Fetch resolves target (a path, glob, URL or stored name, depending on
	// the provider) into whole log documents.
	Fetch(ctx context.Context, cfg ConnectorConfig, target string) ([]model.RawLog, error)
}

// ConnectorConfig holds provider-specific connection settings.
type ConnectorConfig struct {
	Provider string
	APIKey   string        // bearer token for the http provider
	Endpoint string        // base URL joined with relative http targets
	Store    storage.Store // backing store for the store provider
	MaxBytes int64         // per-document size cap; 0 means unlimited
}
