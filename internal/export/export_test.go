package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"

	"github.com/hejijunhao/sawmill/internal/engine"
	"github.com/hejijunhao/sawmill/internal/model"
)

func analyze(lines ...string) model.Report {
	return engine.New().Analyze(lines)
}

func TestRowsOrderAndPlaceholders(t *testing.T) {
	r := analyze(
		"10:17:00.500 [WARN] Slow query detected",
		"2025-06-03 10:16:00,123 ERROR [ctx][SomeClass] Failed to process request",
		"####<Jun 3, 2025 10:15:30 AM BRT> <Error> <EJB> <BEA-010061> <javax.ejb.CreateException: Could not create bean>",
		"    at com.example.Foo.bar(Foo.java:10)",
	)
	rows := Rows(r)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	// Exceptions first, then errors, then warns.
	if rows[0].Type != "javax.ejb.CreateException" || rows[1].Type != model.GenericErrorType || rows[2].Type != model.WarnType {
		t.Fatalf("unexpected row order: %+v", rows)
	}
	if rows[0].Line != 3 || rows[0].StackTrace != "at com.example.Foo.bar(Foo.java:10)" {
		t.Errorf("exception row = %+v", rows[0])
	}
	if rows[0].Source != "weblogic" || rows[0].MessageID != "BEA-010061" {
		t.Errorf("exception row = %+v", rows[0])
	}
	if rows[1].StackTrace != model.Placeholder || rows[1].Location != model.Placeholder {
		t.Errorf("error row placeholders = %q/%q", rows[1].StackTrace, rows[1].Location)
	}
	if rows[2].Subsystem != model.Placeholder || rows[2].MessageID != model.Placeholder {
		t.Errorf("warn row placeholders = %q/%q", rows[2].Subsystem, rows[2].MessageID)
	}
}

func TestRowsEmpty(t *testing.T) {
	if rows := Rows(analyze()); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestWriteCSV(t *testing.T) {
	r := analyze("2025-06-03 10:18:00 - INFO - Job FAILED due to timeout")
	var buf bytes.Buffer
	if err := WriteCSV(&buf, r, false); err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if !reflect.DeepEqual(records[0], Columns) {
		t.Fatalf("header = %v", records[0])
	}
	want := []string{
		model.GenericErrorType, "java", "-", "-", "2025-06-03 10:18:00",
		"Job FAILED due to timeout", "Job FAILED due to timeout", "-", "1", "-",
	}
	if !reflect.DeepEqual(records[1], want) {
		t.Fatalf("row = %q, want %q", records[1], want)
	}
}

func TestWriteCSVGrouped(t *testing.T) {
	line := "####<Jun 3, 2025 10:15:30 AM BRT> <Error> <EJB> <BEA-010061> <javax.ejb.CreateException: Could not create bean>"
	r := analyze(line, "noise", line)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, r, true); err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !reflect.DeepEqual(records[0], GroupColumns) {
		t.Fatalf("header = %v", records[0])
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	got := records[1]
	if got[0] != "exception" || got[5] != "2" || got[8] != "1,3" || got[9] != "-\n\n-" {
		t.Fatalf("group row = %q", got)
	}
}
