package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hejijunhao/sawmill/internal/connector"
	"github.com/hejijunhao/sawmill/internal/model"
)

func init() {
	connector.Register("file", func() connector.Connector {
		return &Connector{}
	})
}

// Connector reads log documents from the local filesystem. Targets may be
// plain paths or doublestar globs such as "logs/**/*.log".
type Connector struct{}

func (c *Connector) Fetch(ctx context.Context, cfg connector.ConnectorConfig, target string) ([]model.RawLog, error) {
	paths, err := resolve(target)
	if err != nil {
		return nil, err
	}

	results := make([]model.RawLog, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := readFile(p, cfg.MaxBytes)
		if err != nil {
			return nil, err
		}
		results = append(results, model.RawLog{
			Name:      p,
			Provider:  "file",
			Data:      data,
			FetchedAt: time.Now(),
		})
	}
	return results, nil
}

func resolve(target string) ([]string, error) {
	if target == "" {
		return nil, fmt.Errorf("file connector: empty target")
	}
	pattern := filepath.Clean(target)
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("file connector: bad pattern %q: %w", target, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("file connector: no files match %q", target)
	}
	sort.Strings(matches)
	return matches, nil
}

func readFile(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file connector: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("file connector: read %s: %w", path, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file connector: %s exceeds %d bytes", path, maxBytes)
	}
	return data, nil
}
