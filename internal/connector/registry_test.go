package connector

import (
	"context"
	"slices"
	"testing"

	"github.com/hejijunhao/sawmill/internal/model"
)

type stubConnector struct{}

func (stubConnector) Fetch(context.Context, ConnectorConfig, string) ([]model.RawLog, error) {
	return []model.RawLog{{Name: "stub"}}, nil
}

func TestRegistry(t *testing.T) {
	Register("stub-test", func() Connector { return stubConnector{} })

	ctor, err := Get("stub-test")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	logs, err := ctor().Fetch(context.Background(), ConnectorConfig{}, "x")
	if err != nil || len(logs) != 1 || logs[0].Name != "stub" {
		t.Fatalf("Fetch = %+v, %v", logs, err)
	}
	if !slices.Contains(Providers(), "stub-test") {
		t.Fatalf("Providers() = %v", Providers())
	}
	if !slices.IsSorted(Providers()) {
		t.Fatalf("Providers() not sorted: %v", Providers())
	}
}

func TestGetUnknown(t *testing.T) {
	if _, err := Get("nope"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
