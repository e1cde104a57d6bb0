package store

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hejijunhao/sawmill/internal/connector"
	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/storage"
)

func init() {
	connector.Register("store", func() connector.Connector {
		return &Connector{}
	})
}

// Connector reads previously uploaded documents from the configured store.
// The target is a document name or a glob over names.
type Connector struct{}

func (c *Connector) Fetch(ctx context.Context, cfg connector.ConnectorConfig, target string) ([]model.RawLog, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store connector: no store configured")
	}
	if !doublestar.ValidatePattern(target) {
		return nil, fmt.Errorf("store connector: bad pattern %q", target)
	}

	objs, err := cfg.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("store connector: %w", err)
	}

	var results []model.RawLog
	for _, o := range objs {
		if ok, _ := doublestar.Match(target, o.Name); !ok {
			continue
		}
		if cfg.MaxBytes > 0 && o.Size > cfg.MaxBytes {
			return nil, fmt.Errorf("store connector: %s exceeds %d bytes", o.Name, cfg.MaxBytes)
		}
		data, err := read(ctx, cfg.Store, o.Name)
		if err != nil {
			return nil, err
		}
		results = append(results, model.RawLog{
			Name:      o.Name,
			Provider:  "store",
			Data:      data,
			FetchedAt: time.Now(),
		})
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("store connector: %w: %s", storage.ErrNotFound, target)
	}
	return results, nil
}

func read(ctx context.Context, s storage.Store, name string) ([]byte, error) {
	rc, _, err := s.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("store connector: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("store connector: read %s: %w", name, err)
	}
	return data, nil
}
