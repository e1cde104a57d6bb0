package summary

import (
	"testing"

	"github.com/hejijunhao/sawmill/internal/model"
)

func entries(src ...model.Dialect) []model.Entry {
	out := make([]model.Entry, len(src))
	for i, d := range src {
		out[i] = model.Entry{Source: d}
	}
	return out
}

func TestBuild(t *testing.T) {
	s := Build(
		entries(model.DialectWebLogic, model.DialectJava),
		entries(model.DialectJava),
		entries(model.DialectWebLogic, model.DialectWebLogic, model.DialectUnknown),
	)

	if s.TotalExceptions != 2 || s.TotalErrors != 1 || s.TotalWarns != 3 {
		t.Fatalf("totals = %d/%d/%d, want 2/1/3", s.TotalExceptions, s.TotalErrors, s.TotalWarns)
	}
	want := map[string]int{"weblogic": 3, "liferay": 0, "java": 2}
	if len(s.BySource) != len(want) {
		t.Fatalf("BySource = %v, want %v", s.BySource, want)
	}
	for k, v := range want {
		if s.BySource[k] != v {
			t.Errorf("BySource[%s] = %d, want %d", k, s.BySource[k], v)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	s := Build(nil, nil, nil)
	if s.TotalExceptions+s.TotalErrors+s.TotalWarns != 0 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	for _, d := range model.Dialects() {
		if v, ok := s.BySource[d.String()]; !ok || v != 0 {
			t.Errorf("BySource[%s] = %d (present=%v), want 0", d, v, ok)
		}
	}
}
