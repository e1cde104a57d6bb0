package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/hejijunhao/sawmill/internal/connector"
	"github.com/hejijunhao/sawmill/internal/connector/httpclient"
	"github.com/hejijunhao/sawmill/internal/model"
)

func init() {
	connector.Register("http", func() connector.Connector {
		return &Connector{}
	})
}

// Connector downloads one log document per target URL. Relative targets
// are resolved against cfg.Endpoint.
type Connector struct{}

func (c *Connector) Fetch(ctx context.Context, cfg connector.ConnectorConfig, target string) ([]model.RawLog, error) {
	full, err := resolve(cfg.Endpoint, target)
	if err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(full); err != nil {
		return nil, fmt.Errorf("http connector: %w", err)
	}

	client := httpclient.New(cfg.APIKey, httpclient.WithMaxBytes(cfg.MaxBytes))
	doc, err := client.Download(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("http connector: %w", err)
	}
	slog.Debug("downloaded document", "url", full, "bytes", len(doc.Body), "content_type", doc.ContentType)
	return []model.RawLog{{
		Name:      full,
		Provider:  "http",
		Data:      doc.Body,
		FetchedAt: time.Now(),
	}}, nil
}

func resolve(endpoint, target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("http connector: empty target")
	}
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target, nil
	}
	if endpoint == "" {
		return "", fmt.Errorf("http connector: relative target %q needs an endpoint", target)
	}
	return strings.TrimRight(endpoint, "/") + "/" + strings.TrimLeft(target, "/"), nil
}
