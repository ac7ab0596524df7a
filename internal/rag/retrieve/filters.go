package retrieve

import (
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/rag/queryplan"
)

// ApplyFilters keeps the nodes whose payload satisfies every filter. A node
// missing a filtered key, or holding a value the operator cannot interpret,
// simply does not match; filtering never raises.
func ApplyFilters(nodes []commonModels.ScoredNode, filters []queryplan.Filter) []commonModels.ScoredNode {
	if len(filters) == 0 {
		return nodes
	}

	var matched []commonModels.ScoredNode
	for _, node := range nodes {
		if matchesAll(node.Payload, filters) {
			matched = append(matched, node)
		}
	}
	return matched
}

func matchesAll(payload map[string]string, filters []queryplan.Filter) bool {
	for _, f := range filters {
		if !matches(payload, f) {
			return false
		}
	}
	return true
}

func matches(payload map[string]string, f queryplan.Filter) bool {
	actual, ok := payload[f.Key]
	if !ok {
		return false
	}

	switch f.Op {
	case queryplan.OpEq:
		return strings.EqualFold(actual, f.Value)
	case queryplan.OpContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(f.Value))
	case queryplan.OpGt, queryplan.OpLt, queryplan.OpGte, queryplan.OpLte:
		return compareOrdered(actual, f.Op, f.Value)
	default:
		return false
	}
}

// compareOrdered tries numbers first, then timestamps. Values that parse as
// neither fail the comparison quietly.
func compareOrdered(actual string, op string, expected string) bool {
	if a, errA := strconv.ParseFloat(actual, 64); errA == nil {
		if e, errE := strconv.ParseFloat(expected, 64); errE == nil {
			return ordered(op, a < e, a > e, a == e)
		}
		return false
	}

	aT, errA := parseAnyTime(actual)
	eT, errE := parseAnyTime(expected)
	if errA != nil || errE != nil {
		return false
	}
	return ordered(op, aT.Before(eT), aT.After(eT), aT.Equal(eT))
}

func ordered(op string, less bool, greater bool, equal bool) bool {
	switch op {
	case queryplan.OpGt:
		return greater
	case queryplan.OpLt:
		return less
	case queryplan.OpGte:
		return greater || equal
	case queryplan.OpLte:
		return less || equal
	default:
		return false
	}
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

func parseAnyTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
