package summary

import "github.com/hejijunhao/sawmill/internal/model"

// Build counts entries per category and per source dialect. Every supported
// dialect appears in BySource, with zero when nothing came from it.
func Build(exceptions, errors, warns []model.Entry) model.Summary {
	s := model.Summary{
		TotalExceptions: len(exceptions),
		TotalErrors:     len(errors),
		TotalWarns:      len(warns),
		BySource:        make(map[string]int),
	}
	for _, d := range model.Dialects() {
		s.BySource[d.String()] = 0
	}
	for _, list := range [][]model.Entry{exceptions, errors, warns} {
		for _, e := range list {
			if _, ok := s.BySource[e.Source.String()]; ok {
				s.BySource[e.Source.String()]++
			}
		}
	}
	return s
}
