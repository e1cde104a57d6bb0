package dedup

import (
	"reflect"
	"testing"

	"github.com/hejijunhao/sawmill/internal/model"
)

func exception(typ string, src model.Dialect, subsystem string, lines ...int) model.Entry {
	return model.Entry{
		Category:         model.CategoryException,
		Type:             typ,
		ShortDescription: "desc of " + typ,
		Location:         "-",
		Lines:            lines,
		Count:            1,
		StackTrace:       []string{},
		Source:           src,
		Subsystem:        subsystem,
		MessageID:        "-",
	}
}

func errorEntry(desc string, src model.Dialect, lines ...int) model.Entry {
	return model.Entry{
		Category:         model.CategoryError,
		Type:             model.GenericErrorType,
		ShortDescription: desc,
		Location:         "-",
		Lines:            lines,
		Count:            1,
		StackTrace:       []string{},
		Source:           src,
		Subsystem:        "-",
		MessageID:        "-",
	}
}

func TestGroupEmpty(t *testing.T) {
	got := Group(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestGroupNoDuplicates(t *testing.T) {
	got := Group([]model.Entry{
		exception("a.AException", model.DialectJava, "-", 1),
		exception("b.BException", model.DialectJava, "-", 2),
		exception("a.AException", model.DialectLiferay, "-", 3),
		exception("a.AException", model.DialectJava, "Other", 4),
	})
	if len(got) != 4 {
		t.Fatalf("expected 4 groups, got %d", len(got))
	}
	for _, g := range got {
		if g.Count != 1 {
			t.Fatalf("expected Count=1, got %d", g.Count)
		}
	}
}

func TestGroupMergesExceptions(t *testing.T) {
	first := exception("java.lang.NullPointerException", model.DialectWebLogic, "EJB", 10)
	first.StackTrace = []string{"at a.B.c(B.java:1)", "at d.E.f(E.java:2)"}
	first.Location = "at a.B.c(B.java:1)"
	second := exception("java.lang.NullPointerException", model.DialectWebLogic, "EJB", 3, 4)
	second.ShortDescription = "different text, same type"

	got := Group([]model.Entry{first, second})
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %d", len(got))
	}
	g := got[0]
	if g.Count != 2 {
		t.Errorf("Count = %d, want 2", g.Count)
	}
	if !reflect.DeepEqual(g.Lines, []int{3, 4, 10}) {
		t.Errorf("Lines = %v, want [3 4 10]", g.Lines)
	}
	if want := []string{"at a.B.c(B.java:1)\nat d.E.f(E.java:2)", "-"}; !reflect.DeepEqual(g.StackTraces, want) {
		t.Errorf("StackTraces = %q, want %q", g.StackTraces, want)
	}
	// Display fields come from the first entry.
	if g.ShortDescription != "desc of java.lang.NullPointerException" || g.Location != "at a.B.c(B.java:1)" {
		t.Errorf("display fields not seeded from first entry: %+v", g)
	}
}

func TestGroupErrorsByShortDescription(t *testing.T) {
	got := Group([]model.Entry{
		errorEntry("Failed to process request", model.DialectLiferay, 5),
		errorEntry("Job FAILED due to timeout", model.DialectJava, 7),
		errorEntry("Failed to process request", model.DialectLiferay, 5, 6),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	if got[0].ShortDescription != "Failed to process request" || got[0].Count != 2 {
		t.Errorf("first group = %+v", got[0])
	}
	if !reflect.DeepEqual(got[0].Lines, []int{5, 6}) {
		t.Errorf("Lines = %v, want deduplicated [5 6]", got[0].Lines)
	}
	if got[1].ShortDescription != "Job FAILED due to timeout" {
		t.Errorf("groups not in first-seen order: %+v", got)
	}
}

func TestGroupDoesNotMutateInput(t *testing.T) {
	entries := []model.Entry{
		errorEntry("x", model.DialectJava, 9),
		errorEntry("x", model.DialectJava, 1),
	}
	Group(entries)
	if !reflect.DeepEqual(entries[0].Lines, []int{9}) || !reflect.DeepEqual(entries[1].Lines, []int{1}) {
		t.Fatalf("input entries mutated: %+v", entries)
	}
}

func TestFingerprint(t *testing.T) {
	a := SignatureOf(errorEntry("x", model.DialectJava, 1))
	b := SignatureOf(errorEntry("x", model.DialectJava, 2))
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("same signature produced different fingerprints")
	}
	if len(a.Fingerprint()) != 16 {
		t.Fatalf("fingerprint %q not 16 hex chars", a.Fingerprint())
	}

	w := errorEntry("x", model.DialectJava, 1)
	w.Category = model.CategoryWarn
	if SignatureOf(w).Fingerprint() == a.Fingerprint() {
		t.Fatal("categories must not share fingerprints")
	}
}
