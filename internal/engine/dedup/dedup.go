// Package dedup collapses repeated incident entries into groups keyed by a
// per-category signature.
package dedup

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/hejijunhao/sawmill/internal/model"
)

// Signature is the grouping key of an entry.
type Signature struct {
	Category  model.Category
	Primary   string // exception type, or short description for errors and warns
	Source    model.Dialect
	Subsystem string
}

// Fingerprint returns a stable hex digest of the signature.
func (s Signature) Fingerprint() string {
	key := strings.Join([]string{string(s.Category), s.Primary, s.Source.String(), s.Subsystem}, "\x00")
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// SignatureOf returns the grouping key for an entry: (type, source, subsystem)
// for exceptions, (short description, source, subsystem) otherwise.
func SignatureOf(e model.Entry) Signature {
	primary := e.ShortDescription
	if e.Category == model.CategoryException {
		primary = e.Type
	}
	return Signature{
		Category:  e.Category,
		Primary:   primary,
		Source:    e.Source,
		Subsystem: e.Subsystem,
	}
}

// Group folds entries into groups in first-seen order of their signature.
// The first entry of a signature supplies the display fields; later ones add
// their lines, one to the count and their stack text. Lines in each group are
// sorted and unique. The input is not modified.
func Group(entries []model.Entry) []model.Group {
	groups := make([]model.Group, 0)
	index := make(map[Signature]int)

	for _, e := range entries {
		sig := SignatureOf(e)
		i, exists := index[sig]
		if !exists {
			index[sig] = len(groups)
			groups = append(groups, model.Group{
				Fingerprint:      sig.Fingerprint(),
				Type:             e.Type,
				ShortDescription: e.ShortDescription,
				Location:         e.Location,
				Source:           e.Source,
				Subsystem:        e.Subsystem,
				MessageID:        e.MessageID,
				Lines:            slices.Clone(e.Lines),
				Count:            1,
				StackTraces:      []string{stackText(e.StackTrace)},
			})
			continue
		}

		g := &groups[i]
		g.Lines = append(g.Lines, e.Lines...)
		g.Count++
		g.StackTraces = append(g.StackTraces, stackText(e.StackTrace))
	}

	for i := range groups {
		slices.Sort(groups[i].Lines)
		groups[i].Lines = slices.Compact(groups[i].Lines)
	}
	return groups
}

// stackText joins stack lines, or returns the placeholder when there are none.
func stackText(lines []string) string {
	if len(lines) == 0 {
		return model.Placeholder
	}
	return strings.Join(lines, "\n")
}
