package htmlsync

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/render"
	"git.home.luguber.info/inful/sitekeeper/internal/storage"
)

// DefaultPrimaryReviews is how many reviews the primary region shows.
const DefaultPrimaryReviews = 3

// SkipReason explains why an anchor was not synchronized.
type SkipReason string

const (
	SkipNotFound  SkipReason = "anchor_not_found"
	SkipAmbiguous SkipReason = "anchor_ambiguous"
	SkipUnclosed  SkipReason = "anchor_unclosed"
	SkipOverlap   SkipReason = "anchor_overlap"
	SkipVoid      SkipReason = "anchor_void"
)

// AnchorResult is the outcome for one anchor.
type AnchorResult struct {
	Anchor  Anchor     `json:"anchor"`
	Applied bool       `json:"applied"`
	Records int        `json:"records"`
	Matches int        `json:"matches"`
	Skipped SkipReason `json:"skipped,omitempty"`
	Err     error      `json:"-"`
}

// Report describes what a sync did.
type Report struct {
	Kind    content.Kind   `json:"kind"`
	Anchors []AnchorResult `json:"anchors"`
	Changed bool           `json:"changed"`
}

// Skipped returns the anchors that were not synchronized.
func (r Report) Skipped() []AnchorResult {
	var out []AnchorResult
	for _, a := range r.Anchors {
		if a.Skipped != "" {
			out = append(out, a)
		}
	}
	return out
}

// Partial reports whether any anchor of the kind was skipped.
func (r Report) Partial() bool { return len(r.Skipped()) > 0 }

// Warnings returns the classified warnings of skipped anchors.
func (r Report) Warnings() []error {
	var out []error
	for _, a := range r.Skipped() {
		if a.Err != nil {
			out = append(out, a.Err)
		}
	}
	return out
}

// Synchronizer projects collections into a document.
type Synchronizer struct {
	renderer  *render.Renderer
	selectors map[Anchor]Selector
	primary   int
	logger    *slog.Logger
	docLocks  storage.Locks
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithSelectors overrides the selectors of the given anchors.
func WithSelectors(overrides map[Anchor]Selector) Option {
	return func(s *Synchronizer) {
		for a, sel := range overrides {
			if !sel.IsZero() {
				s.selectors[a] = sel
			}
		}
	}
}

// WithPrimaryReviews sets how many reviews go to the primary region.
func WithPrimaryReviews(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.primary = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Synchronizer that renders with r.
func New(r *render.Renderer, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		renderer:  r,
		selectors: make(map[Anchor]Selector),
		primary:   DefaultPrimaryReviews,
		logger:    slog.Default(),
	}
	for _, a := range Anchors() {
		s.selectors[a] = DefaultSelector(a)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Selector returns the selector used for an anchor.
func (s *Synchronizer) Selector(a Anchor) Selector { return s.selectors[a] }

// partition returns the records an anchor receives.
func (s *Synchronizer) partition(a Anchor, seq []content.Record) []content.Record {
	switch a {
	case ReviewsPrimary:
		return seq[:min(s.primary, len(seq))]
	case ReviewsSecondary:
		if len(seq) <= s.primary {
			return nil
		}
		return seq[s.primary:]
	default:
		return seq
	}
}

type edit struct {
	anchor     Anchor
	start, end int
	text       []byte
}

// Sync replaces the managed regions of kind's anchors in source with the
// rendered records of seq. Anchors that are missing, ambiguous, void or
// unclosed are skipped and recorded in the report; the rest of the document is untouched.
func (s *Synchronizer) Sync(source []byte, kind content.Kind, seq []content.Record) ([]byte, Report, error) {
	anchors := AnchorsFor(kind)
	if anchors == nil {
		return nil, Report{}, errors.ValidationError(fmt.Sprintf("no anchors for collection %s", kind)).
			WithContext("kind", string(kind)).
			Build()
	}

	elements, err := scan(source)
	if err != nil {
		return nil, Report{}, errors.WrapError(err, errors.CategoryDocument, "failed to tokenize document").Build()
	}

	report := Report{Kind: kind}
	var edits []edit
	for _, a := range anchors {
		res := AnchorResult{Anchor: a}
		matches := s.match(a, elements)
		res.Matches = len(matches)

		switch {
		case len(matches) == 0:
			res.Skipped = SkipNotFound
		case len(matches) > 1:
			res.Skipped = SkipAmbiguous
		case matches[0].void:
			res.Skipped = SkipVoid
		case !matches[0].closed():
			res.Skipped = SkipUnclosed
		}
		if res.Skipped != "" {
			res.Err = s.skipWarning(a, res)
			report.Anchors = append(report.Anchors, res)
			continue
		}

		records := s.partition(a, seq)
		frags, err := s.renderer.RenderAll(records, a.Variant())
		if err != nil {
			return nil, Report{}, err
		}
		e := matches[0]
		edits = append(edits, edit{anchor: a, start: e.innerStart, end: e.innerEnd, text: regionContent(frags)})
		res.Applied = true
		res.Records = len(records)
		report.Anchors = append(report.Anchors, res)
	}

	edits = s.dropOverlaps(edits, &report)
	updated := splice(source, edits)
	report.Changed = !bytes.Equal(updated, source)
	return updated, report, nil
}

func (s *Synchronizer) match(a Anchor, elements []*element) []*element {
	sel := s.selectors[a]
	var out []*element
	for _, e := range elements {
		if sel.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Synchronizer) skipWarning(a Anchor, res AnchorResult) error {
	err := errors.DocumentError(fmt.Sprintf("anchor %s skipped: %s", a, res.Skipped)).
		Warning().
		WithContext("anchor", string(a)).
		WithContext("selector", s.selectors[a].String()).
		WithContext("matches", res.Matches).
		Build()
	s.logger.Warn("Anchor skipped",
		logfields.Anchor(string(a)),
		slog.String("reason", string(res.Skipped)),
		logfields.Count(res.Matches))
	return err
}

// dropOverlaps removes edits whose region intersects an earlier one.
func (s *Synchronizer) dropOverlaps(edits []edit, report *Report) []edit {
	var kept []edit
	for _, e := range edits {
		if !overlapsAny(e, kept) {
			kept = append(kept, e)
			continue
		}
		for j := range report.Anchors {
			res := &report.Anchors[j]
			if res.Anchor != e.anchor {
				continue
			}
			res.Applied = false
			res.Records = 0
			res.Skipped = SkipOverlap
			res.Err = s.skipWarning(res.Anchor, *res)
		}
	}
	return kept
}

func overlapsAny(e edit, others []edit) bool {
	for _, o := range others {
		if e.start < o.end && o.start < e.end {
			return true
		}
	}
	return false
}

// regionContent is the canonical managed-region body: a newline, then every
// fragment followed by a newline.
func regionContent(frags []template.HTML) []byte {
	var sb strings.Builder
	sb.WriteString("\n")
	for _, f := range frags {
		sb.WriteString(string(f))
		sb.WriteString("\n")
	}
	return []byte(sb.String())
}

// splice applies non-overlapping edits from the last to the first so earlier
// offsets stay valid.
func splice(src []byte, edits []edit) []byte {
	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, func(a, b edit) int { return b.start - a.start })
	out := slices.Clone(src)
	for _, e := range sorted {
		tail := slices.Clone(out[e.end:])
		out = append(append(out[:e.start], e.text...), tail...)
	}
	return out
}

// Inspect counts how many elements each anchor's selector matches in source.
func (s *Synchronizer) Inspect(source []byte) (map[Anchor]int, error) {
	elements, err := scan(source)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDocument, "failed to tokenize document").Build()
	}
	out := make(map[Anchor]int, len(s.selectors))
	for _, a := range slices.Sorted(maps.Keys(s.selectors)) {
		out[a] = len(s.match(a, elements))
	}
	return out, nil
}
