package tasklist

import (
	"fmt"
	"strings"

	"authdemo/internal/service"
)

// Filter is a client-side display mode. It never affects remote queries.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the modes in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter parses a filter name. The empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive:
		return FilterActive, nil
	case FilterCompleted:
		return FilterCompleted, nil
	}
	return FilterAll, fmt.Errorf("invalid filter: %s", s)
}

// Match reports whether t is shown under the filter.
func (f Filter) Match(t service.Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Label returns the capitalized filter name.
func (f Filter) Label() string {
	s := string(f)
	if s == "" {
		return "All"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
