package pattern

import (
	"fmt"
)

// Matcher selects names by include and exclude patterns. A name is
// selected if it matches at least one include pattern (or there are
// none) and no exclude pattern. The zero value selects everything.
type Matcher struct {
	Include []Pattern
	Exclude []Pattern
}

// NewMatcher parses include and exclude patterns. An invalid
// pattern is an error, rather than matching everything.
func NewMatcher(include, exclude []string) (Matcher, error) {
	var m Matcher
	for _, s := range include {
		p := New(s)
		if !p.Valid() {
			return Matcher{}, fmt.Errorf("invalid include pattern %q", s)
		}
		m.Include = append(m.Include, p)
	}
	for _, s := range exclude {
		p := New(s)
		if !p.Valid() {
			return Matcher{}, fmt.Errorf("invalid exclude pattern %q", s)
		}
		m.Exclude = append(m.Exclude, p)
	}
	return m, nil
}

func (m Matcher) Matches(name string) bool {
	for _, p := range m.Exclude {
		if p.Matches(name) {
			return false
		}
	}
	if len(m.Include) == 0 {
		return true
	}
	for _, p := range m.Include {
		if p.Matches(name) {
			return true
		}
	}
	return false
}
