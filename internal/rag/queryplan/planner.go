package queryplan

import (
	"regexp"
	"strings"
	"time"
)

// Filter operators, matched against the flat string payload on every node.
const (
	OpEq       = "="
	OpGt       = ">"
	OpLt       = "<"
	OpGte      = ">="
	OpLte      = "<="
	OpContains = "~="
)

// Filter is one structured constraint extracted from the raw question.
type Filter struct {
	Key   string `json:"key"`
	Op    string `json:"op"`
	Value string `json:"value"`
}

// Plan is the parsed form of a question: the residual semantic text plus the
// structured constraints pulled out of it. When nothing semantic remains the
// plan is metadata-only and retrieval skips the vector search entirely.
type Plan struct {
	Cleaned      string   `json:"cleaned"`
	Filters      []Filter `json:"filters,omitempty"`
	Dropped      []string `json:"dropped,omitempty"`
	MetadataOnly bool     `json:"metadata_only"`
}

// keys a filter may target; anything else is dropped, never an error
var allowedKeys = map[string]bool{
	"file_name":          true,
	"file_id":            true,
	"mime_type":          true,
	"file_extension":     true,
	"file_type_category": true,
	"size":               true,
	"created_time":       true,
	"modified_time":      true,
	"capture_time":       true,
	"camera_make":        true,
	"camera_model":       true,
	"width":              true,
	"height":             true,
	"duration_millis":    true,
	"word_count":         true,
	"line_count":         true,
}

// spellings users naturally reach for, folded onto the canonical payload keys
var keyAliases = map[string]string{
	"file_type": "file_type_category",
	"type":      "file_type_category",
	"category":  "file_type_category",
	"name":      "file_name",
	"extension": "file_extension",
}

// plain-language words that imply a file type category
var categoryKeywords = map[string]string{
	"photo": "image", "photos": "image",
	"picture": "image", "pictures": "image",
	"image": "image", "images": "image",
	"video": "video", "videos": "video",
	"audio": "audio", "music": "audio",
	"spreadsheet": "document", "spreadsheets": "document",
	"excel": "document", "csv": "document",
	"pdf": "document", "pdfs": "document",
	"document": "document", "documents": "document",
}

// words that carry no semantic content on their own; a question reduced to
// these after extraction has nothing left for the vector search
var fillerWords = map[string]bool{
	"show": true, "me": true, "find": true, "list": true, "get": true,
	"all": true, "any": true, "my": true, "the": true, "a": true, "an": true,
	"of": true, "in": true, "on": true, "from": true, "with": true,
	"file": true, "files": true, "that": true, "which": true, "are": true,
	"were": true, "was": true, "is": true, "taken": true, "modified": true,
	"created": true, "uploaded": true, "and": true, "or": true,
	//temporal prepositions left orphaned once their window is extracted
	"after": true, "before": true, "since": true, "until": true, "between": true,
}

var (
	betweenRe = regexp.MustCompile(`(?i)\bbetween\s+(` + datePattern + `)\s+and\s+(` + datePattern + `)`)
	afterRe   = regexp.MustCompile(`(?i)\b(?:after|since)\s+(` + datePattern + `)`)
	beforeRe  = regexp.MustCompile(`(?i)\b(?:before|until)\s+(` + datePattern + `)`)
	fieldRe   = regexp.MustCompile(`(?i)\b([a-z_]+)\s*(>=|<=|~=|:|=|>|<)\s*("[^"]*"|\S+)`)
	spacesRe  = regexp.MustCompile(`\s+`)
)

// Build parses a raw question into a Plan. Extraction is destructive: every
// recognized constraint is removed from the text it came from. now anchors
// relative vocabulary like "last week".
func Build(raw string, now time.Time) Plan {
	plan := Plan{}
	text := raw

	//ranges first, "between X and Y" would otherwise half-match the
	//after/before patterns
	text = betweenRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := betweenRe.FindStringSubmatch(match)
		end, endOK := parseDateStart(parts[2], now, 0)
		start, startOK := parseDateStart(parts[1], now, end.Year())
		if !startOK || !endOK {
			plan.Dropped = append(plan.Dropped, match)
			return ""
		}
		plan.Filters = append(plan.Filters,
			timeFilter(OpGte, start),
			timeFilter(OpLt, end),
		)
		return ""
	})

	text = afterRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := afterRe.FindStringSubmatch(match)
		start, ok := parseDateStart(parts[1], now, 0)
		if !ok {
			plan.Dropped = append(plan.Dropped, match)
			return ""
		}
		plan.Filters = append(plan.Filters, timeFilter(OpGte, start))
		return ""
	})

	text = beforeRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := beforeRe.FindStringSubmatch(match)
		bound, ok := parseDateStart(parts[1], now, 0)
		if !ok {
			plan.Dropped = append(plan.Dropped, match)
			return ""
		}
		plan.Filters = append(plan.Filters, timeFilter(OpLt, bound))
		return ""
	})

	text = extractRelativeWindows(text, now, &plan)

	text = fieldRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := fieldRe.FindStringSubmatch(match)
		key := strings.ToLower(parts[1])
		op := parts[2]
		value := parts[3]
		if strings.HasPrefix(value, `"`) {
			value = strings.Trim(value, `"`)
		} else {
			value = strings.Trim(value, ".,!?;:")
		}

		if canonical, ok := keyAliases[key]; ok {
			key = canonical
		}
		if !allowedKeys[key] {
			plan.Dropped = append(plan.Dropped, match)
			return ""
		}
		if op == ":" {
			op = OpEq
		}
		plan.Filters = append(plan.Filters, Filter{Key: key, Op: op, Value: value})
		return ""
	})

	//category vocabulary last, so "csv" inside file_extension:csv above is
	//already consumed
	var kept []string
	for _, word := range strings.Fields(text) {
		normalized := strings.ToLower(strings.Trim(word, ".,!?;:"))
		if category, ok := categoryKeywords[normalized]; ok {
			plan.Filters = appendCategoryFilter(plan.Filters, category)
			continue
		}
		kept = append(kept, word)
	}
	text = strings.Join(kept, " ")

	plan.Cleaned = strings.TrimSpace(spacesRe.ReplaceAllString(text, " "))
	plan.MetadataOnly = isMetadataOnly(plan.Cleaned) && len(plan.Filters) > 0
	return plan
}

func timeFilter(op string, t time.Time) Filter {
	return Filter{Key: "modified_time", Op: op, Value: t.UTC().Format(time.RFC3339)}
}

// a second "photos of images" style mention must not duplicate the filter
func appendCategoryFilter(filters []Filter, category string) []Filter {
	for _, f := range filters {
		if f.Key == "file_type_category" && f.Value == category {
			return filters
		}
	}
	return append(filters, Filter{Key: "file_type_category", Op: OpEq, Value: category})
}

func isMetadataOnly(cleaned string) bool {
	for _, word := range strings.Fields(cleaned) {
		normalized := strings.ToLower(strings.Trim(word, ".,!?;:"))
		if normalized == "" {
			continue
		}
		if !fillerWords[normalized] {
			return false
		}
	}
	return true
}
