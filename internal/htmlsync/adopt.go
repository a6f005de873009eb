package htmlsync

import (
	"bytes"
	"fmt"
	"slices"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// AdoptResult reports what Adopt did for one anchor.
type AdoptResult struct {
	Anchor        Anchor `json:"anchor"`
	Adopted       bool   `json:"adopted"`
	AlreadyMarked bool   `json:"already_marked"`
	Selector      string `json:"selector"`
}

type insertion struct {
	at   int
	text []byte
}

// Adopt adds marker attributes to a document whose anchors are only
// identifiable by their legacy presentational selectors. For each anchor the
// first legacy match is marked, the way the legacy lookup resolved it.
// Anchors that already carry a marker are left alone. Only start tags change.
func Adopt(source []byte) ([]byte, []AdoptResult, error) {
	elements, err := scan(source)
	if err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryDocument, "failed to tokenize document").Build()
	}

	legacy := LegacySelectors()
	marked := make(map[*element]bool)
	var (
		results []AdoptResult
		inserts []insertion
	)
	for _, a := range Anchors() {
		sel := legacy[a]
		res := AdoptResult{Anchor: a, Selector: sel.String()}

		if findFirst(DefaultSelector(a), elements) != nil {
			res.AlreadyMarked = true
			results = append(results, res)
			continue
		}
		e := findFirst(sel, elements)
		if e == nil || marked[e] {
			results = append(results, res)
			continue
		}
		if _, has := e.attr(MarkerAttr); has {
			// Already claimed by another anchor name.
			results = append(results, res)
			continue
		}

		at, err := markerOffset(source, e)
		if err != nil {
			return nil, nil, err
		}
		inserts = append(inserts, insertion{at: at, text: fmt.Appendf(nil, ` %s="%s"`, MarkerAttr, a)})
		marked[e] = true
		res.Adopted = true
		results = append(results, res)
	}

	return applyInsertions(source, inserts), results, nil
}

// findFirst resolves sel the way a first-match lookup does: the first element
// matching Within, then the first matching element inside it.
func findFirst(sel Selector, elements []*element) *element {
	if sel.Within == nil {
		for _, e := range elements {
			if sel.matchesSelf(e) {
				return e
			}
		}
		return nil
	}
	scope := findFirst(*sel.Within, elements)
	if scope == nil {
		return nil
	}
	for _, e := range elements {
		if e != scope && isDescendant(e, scope) && sel.matchesSelf(e) {
			return e
		}
	}
	return nil
}

func isDescendant(e, ancestor *element) bool {
	for p := e.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// markerOffset returns where a new attribute goes in e's start tag: before
// the closing '>' or '/>'.
func markerOffset(source []byte, e *element) (int, error) {
	tag := source[e.start:e.innerStart]
	if !bytes.HasSuffix(tag, []byte(">")) {
		return 0, errors.DocumentError("malformed start tag").
			WithContext("offset", e.start).
			Build()
	}
	at := e.innerStart - 1
	if bytes.HasSuffix(tag, []byte("/>")) {
		at--
	}
	return at, nil
}

func applyInsertions(src []byte, inserts []insertion) []byte {
	sorted := slices.Clone(inserts)
	slices.SortFunc(sorted, func(a, b insertion) int { return a.at - b.at })
	out := make([]byte, 0, len(src)+64*len(inserts))
	prev := 0
	for _, ins := range sorted {
		out = append(out, src[prev:ins.at]...)
		out = append(out, ins.text...)
		prev = ins.at
	}
	return append(out, src[prev:]...)
}
