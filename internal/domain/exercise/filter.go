package exercise

import "fmt"

// Filter is the active type filter of the collection view.
// FilterAll is the zero value; any other value wraps a Type.
type Filter struct {
	t Type
}

var FilterAll = Filter{}

// FilterBy restricts to a single exercise type.
func FilterBy(t Type) Filter {
	return Filter{t: t}
}

// ParseFilter accepts "", "all", or anything ParseType accepts.
func ParseFilter(s string) (Filter, error) {
	if s == "" || s == "all" || s == "All" {
		return FilterAll, nil
	}
	t, err := ParseType(s)
	if err != nil {
		return FilterAll, fmt.Errorf("invalid filter: %w", err)
	}
	return FilterBy(t), nil
}

func (f Filter) IsAll() bool { return f.t == 0 }

// Type returns the wrapped type; ok is false for FilterAll.
func (f Filter) Type() (Type, bool) {
	return f.t, f.t != 0
}

// Slug is the query-string form ("all" for FilterAll).
func (f Filter) Slug() string {
	if f.IsAll() {
		return "all"
	}
	return f.t.Slug()
}

func (f Filter) Label() string {
	if f.IsAll() {
		return "All"
	}
	return f.t.Label()
}

// Filters lists every filter in the order the toolbar renders them.
func Filters() []Filter {
	out := []Filter{FilterAll}
	for _, t := range Types() {
		out = append(out, FilterBy(t))
	}
	return out
}

// Apply returns the subset of items matching f, keeping relative order.
// items is never modified; FilterAll returns items itself.
func Apply(items []Exercise, f Filter) []Exercise {
	if f.IsAll() {
		return items
	}
	out := make([]Exercise, 0, len(items))
	for _, ex := range items {
		if ex.Type == f.t {
			out = append(out, ex)
		}
	}
	return out
}

// Progress is the completion aggregate shown above the exercise grid.
type Progress struct {
	Completed int
	Total     int
}

// Ratio is Completed/Total, or 0 when there is nothing to complete.
func (p Progress) Ratio() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// Percent is Ratio scaled to 0..100.
func (p Progress) Percent() float64 {
	return p.Ratio() * 100
}
