package htmlsync

import (
	"fmt"
	"slices"
	"strings"
)

// Selector matches elements. Every non-empty criterion must hold.
//
// A single class matches any element carrying that class; several classes
// must equal the element's whole class attribute (whitespace-normalized).
// An empty Attrs value only requires the attribute to be present. Within
// requires some ancestor to match.
type Selector struct {
	Tag    string
	ID     string
	Class  string
	Attrs  map[string]string
	Within *Selector
}

func (s Selector) String() string {
	var sb strings.Builder
	if s.Within != nil {
		sb.WriteString(s.Within.String())
		sb.WriteString(" ")
	}
	sb.WriteString(s.Tag)
	if s.ID != "" {
		sb.WriteString("#" + s.ID)
	}
	for _, c := range strings.Fields(s.Class) {
		sb.WriteString("." + c)
	}
	keys := make([]string, 0, len(s.Attrs))
	for k := range s.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if v := s.Attrs[k]; v != "" {
			fmt.Fprintf(&sb, "[%s=%q]", k, v)
		} else {
			fmt.Fprintf(&sb, "[%s]", k)
		}
	}
	return sb.String()
}

// IsZero reports whether the selector has no criteria.
func (s Selector) IsZero() bool {
	return s.Tag == "" && s.ID == "" && s.Class == "" && len(s.Attrs) == 0 && s.Within == nil
}

// matchesSelf checks the element's own tag and attributes.
func (s Selector) matchesSelf(e *element) bool {
	if s.Tag != "" && e.tag != strings.ToLower(s.Tag) {
		return false
	}
	if s.ID != "" {
		if id, ok := e.attr("id"); !ok || id != s.ID {
			return false
		}
	}
	if s.Class != "" {
		class, ok := e.attr("class")
		if !ok || !classMatches(class, s.Class) {
			return false
		}
	}
	for k, want := range s.Attrs {
		got, ok := e.attr(strings.ToLower(k))
		if !ok || (want != "" && got != want) {
			return false
		}
	}
	return true
}

func (s Selector) matches(e *element) bool {
	if !s.matchesSelf(e) {
		return false
	}
	if s.Within == nil {
		return true
	}
	for p := e.parent; p != nil; p = p.parent {
		if s.Within.matches(p) {
			return true
		}
	}
	return false
}

func classMatches(have, want string) bool {
	wantFields := strings.Fields(want)
	haveFields := strings.Fields(have)
	if len(wantFields) == 1 {
		return slices.Contains(haveFields, wantFields[0])
	}
	return slices.Equal(haveFields, wantFields)
}
