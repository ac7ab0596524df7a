package queryplan

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, time.July, 20, 15, 30, 0, 0, time.UTC)

func findFilter(filters []Filter, key string, op string) (Filter, bool) {
	for _, f := range filters {
		if f.Key == key && f.Op == op {
			return f, true
		}
	}
	return Filter{}, false
}

func TestBuild_AfterDate(t *testing.T) {
	plan := Build("meeting notes after July 10", testNow)

	f, ok := findFilter(plan.Filters, "modified_time", OpGte)
	if !ok {
		t.Fatalf("expected a >= modified_time filter, got %+v", plan.Filters)
	}
	if f.Value != "2025-07-10T00:00:00Z" {
		t.Errorf("lower bound got %s, want 2025-07-10T00:00:00Z", f.Value)
	}
	if plan.Cleaned != "meeting notes" {
		t.Errorf("cleaned got %q, want %q", plan.Cleaned, "meeting notes")
	}
	if plan.MetadataOnly {
		t.Error("plan with residual text must stay semantic")
	}
}

func TestBuild_BetweenMonths(t *testing.T) {
	plan := Build("invoices between January and March 2024", testNow)

	lower, okL := findFilter(plan.Filters, "modified_time", OpGte)
	upper, okU := findFilter(plan.Filters, "modified_time", OpLt)
	if !okL || !okU {
		t.Fatalf("expected range filters, got %+v", plan.Filters)
	}
	//the first month borrows the year from the second, the range is
	//half-open at the start of the end month
	if lower.Value != "2024-01-01T00:00:00Z" {
		t.Errorf("lower bound got %s, want 2024-01-01T00:00:00Z", lower.Value)
	}
	if upper.Value != "2024-03-01T00:00:00Z" {
		t.Errorf("upper bound got %s, want 2024-03-01T00:00:00Z", upper.Value)
	}
	if plan.Cleaned != "invoices" {
		t.Errorf("cleaned got %q, want %q", plan.Cleaned, "invoices")
	}
}

func TestBuild_BeforeISODate(t *testing.T) {
	plan := Build("reports before 2024-05-01", testNow)

	f, ok := findFilter(plan.Filters, "modified_time", OpLt)
	if !ok {
		t.Fatalf("expected a < modified_time filter, got %+v", plan.Filters)
	}
	if f.Value != "2024-05-01T00:00:00Z" {
		t.Errorf("bound got %s, want 2024-05-01T00:00:00Z", f.Value)
	}
}

func TestBuild_RelativeWindows(t *testing.T) {
	tests := []struct {
		name  string
		query string
		lower string
		upper string
	}{
		{"yesterday", "files modified yesterday", "2025-07-19T00:00:00Z", "2025-07-20T00:00:00Z"},
		{"last week", "files from last week", "2025-07-13T00:00:00Z", "2025-07-20T00:00:00Z"},
		{"this month", "files from this month", "2025-07-01T00:00:00Z", "2025-08-01T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Build(tt.query, testNow)

			lower, okL := findFilter(plan.Filters, "modified_time", OpGte)
			upper, okU := findFilter(plan.Filters, "modified_time", OpLt)
			if !okL || !okU {
				t.Fatalf("expected window filters, got %+v", plan.Filters)
			}
			if lower.Value != tt.lower {
				t.Errorf("lower got %s, want %s", lower.Value, tt.lower)
			}
			if upper.Value != tt.upper {
				t.Errorf("upper got %s, want %s", upper.Value, tt.upper)
			}
			if !plan.MetadataOnly {
				t.Errorf("nothing semantic remains in %q, plan should be metadata-only, cleaned=%q", tt.query, plan.Cleaned)
			}
		})
	}
}

func TestBuild_FieldFilters(t *testing.T) {
	plan := Build("file_name~=report size>1000 budget summary", testNow)

	if len(plan.Filters) != 2 {
		t.Fatalf("expected 2 filters, got %+v", plan.Filters)
	}
	if f, ok := findFilter(plan.Filters, "file_name", OpContains); !ok || f.Value != "report" {
		t.Errorf("file_name filter wrong: %+v", plan.Filters)
	}
	if f, ok := findFilter(plan.Filters, "size", OpGt); !ok || f.Value != "1000" {
		t.Errorf("size filter wrong: %+v", plan.Filters)
	}
	if plan.Cleaned != "budget summary" {
		t.Errorf("cleaned got %q, want %q", plan.Cleaned, "budget summary")
	}
}

func TestBuild_FieldAliasAndOrphanedPreposition(t *testing.T) {
	plan := Build("file_type: image, after last week", testNow)

	if f, ok := findFilter(plan.Filters, "file_type_category", OpEq); !ok || f.Value != "image" {
		t.Fatalf("file_type must alias onto file_type_category, got %+v", plan.Filters)
	}
	lower, okL := findFilter(plan.Filters, "modified_time", OpGte)
	upper, okU := findFilter(plan.Filters, "modified_time", OpLt)
	if !okL || !okU {
		t.Fatalf("expected the relative window filters, got %+v", plan.Filters)
	}
	if lower.Value != "2025-07-13T00:00:00Z" || upper.Value != "2025-07-20T00:00:00Z" {
		t.Errorf("window got [%s, %s)", lower.Value, upper.Value)
	}
	if len(plan.Dropped) != 0 {
		t.Errorf("nothing should be dropped, got %+v", plan.Dropped)
	}
	//the "after" left behind by window extraction carries nothing semantic
	if !plan.MetadataOnly {
		t.Errorf("only the orphaned preposition remains, plan should be metadata-only, cleaned=%q", plan.Cleaned)
	}
}

func TestBuild_UnknownKeyIsDropped(t *testing.T) {
	plan := Build("owner:alice quarterly results", testNow)

	if len(plan.Filters) != 0 {
		t.Errorf("unknown key must not produce a filter, got %+v", plan.Filters)
	}
	if len(plan.Dropped) != 1 {
		t.Fatalf("expected 1 dropped constraint, got %+v", plan.Dropped)
	}
	if plan.Cleaned != "quarterly results" {
		t.Errorf("cleaned got %q, want %q", plan.Cleaned, "quarterly results")
	}
}

func TestBuild_CategoryKeywords(t *testing.T) {
	plan := Build("show me all photos taken last week", testNow)

	if f, ok := findFilter(plan.Filters, "file_type_category", OpEq); !ok || f.Value != "image" {
		t.Fatalf("expected category=image filter, got %+v", plan.Filters)
	}
	if _, ok := findFilter(plan.Filters, "modified_time", OpGte); !ok {
		t.Errorf("expected the relative window to survive alongside the category, got %+v", plan.Filters)
	}
	if !plan.MetadataOnly {
		t.Errorf("only filler remains, plan should be metadata-only, cleaned=%q", plan.Cleaned)
	}
}

func TestBuild_CategoryKeywordNotDuplicated(t *testing.T) {
	plan := Build("pictures and photos", testNow)

	count := 0
	for _, f := range plan.Filters {
		if f.Key == "file_type_category" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected one category filter, got %d", count)
	}
}

func TestBuild_PlainQuestionHasNoFilters(t *testing.T) {
	plan := Build("what are the project deadlines", testNow)

	if len(plan.Filters) != 0 || len(plan.Dropped) != 0 {
		t.Errorf("plain question produced constraints: %+v %+v", plan.Filters, plan.Dropped)
	}
	if plan.MetadataOnly {
		t.Error("plain question must be semantic")
	}
	if plan.Cleaned != "what are the project deadlines" {
		t.Errorf("cleaned got %q", plan.Cleaned)
	}
}
