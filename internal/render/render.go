// Package render turns collection records into HTML fragments.
//
// Every record-derived value passes through html/template contextual escaping.
// The only content marked safe is Markdown FAQ answers, and only after
// goldmark (raw HTML disabled) and a bluemonday UGC policy have processed it.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Variant names a fragment template.
type Variant string

const (
	ReviewPrimary Variant = "review.primary"
	ReviewCompact Variant = "review.compact"
	FAQItem       Variant = "faq.item"
	GalleryItem   Variant = "gallery.item"
	ReelEmbed     Variant = "reel.embed"
)

// Star rating bounds.
const (
	MinStars     = 1
	MaxStars     = 5
	DefaultStars = 5
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Options tunes rendering.
type Options struct {
	// FAQMarkdown renders FAQ answers as sanitized Markdown instead of plain text.
	FAQMarkdown bool
}

// Renderer renders records. It is safe for concurrent use.
type Renderer struct {
	tmpl   *template.Template
	opts   Options
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New parses the embedded fragment templates.
func New(opts Options) (*Renderer, error) {
	tmpl, err := template.New("fragments").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to parse fragment templates").Build()
	}
	return &Renderer{
		tmpl:   tmpl,
		opts:   opts,
		md:     goldmark.New(),
		policy: bluemonday.UGCPolicy(),
	}, nil
}

// Render produces the fragment for rec in the given variant.
func (r *Renderer) Render(rec content.Record, v Variant) (template.HTML, error) {
	var data any
	switch v {
	case ReviewPrimary, ReviewCompact:
		data = newReviewView(rec)
	case FAQItem:
		view, err := r.newFAQView(rec)
		if err != nil {
			return "", err
		}
		data = view
	case GalleryItem:
		data = galleryView{ID: rec.ID, URL: rec.String("url"), Category: rec.String("category"), Alt: rec.String("alt")}
	case ReelEmbed:
		data = reelView{ID: rec.ID, EmbedURL: rec.String("embed_url"), Title: rec.String("title")}
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown fragment variant: %s", v)).
			WithContext("variant", string(v)).
			Build()
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, string(v), data); err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to render fragment").
			WithContext("variant", string(v)).
			WithContext("id", rec.ID).
			Build()
	}
	// #nosec G203 -- output of html/template
	return template.HTML(strings.TrimSpace(buf.String())), nil
}

// RenderAll renders each record of seq in order.
func (r *Renderer) RenderAll(seq []content.Record, v Variant) ([]template.HTML, error) {
	out := make([]template.HTML, 0, len(seq))
	for _, rec := range seq {
		frag, err := r.Render(rec, v)
		if err != nil {
			return nil, err
		}
		out = append(out, frag)
	}
	return out, nil
}

// StarCount returns the number of stars shown for rec's rating, clamped to
// [MinStars, MaxStars]. Missing or non-numeric ratings count as DefaultStars.
func StarCount(rec content.Record) int {
	n, ok := rec.Int("rating")
	if !ok {
		return DefaultStars
	}
	return min(max(n, MinStars), MaxStars)
}

type reviewView struct {
	ID      int
	Name    string
	Initial string
	Time    string
	Title   string
	Content string
	Badge   string
	Stars   []struct{}
}

func newReviewView(rec content.Record) reviewView {
	name := rec.String("name")
	if strings.TrimSpace(name) == "" {
		name = "Anonymous"
	}
	initial := rec.String("initial")
	if initial == "" {
		initial = strings.ToUpper(string([]rune(name)[:1]))
	}
	return reviewView{
		ID:      rec.ID,
		Name:    name,
		Initial: initial,
		Time:    rec.String("time"),
		Title:   rec.String("title"),
		Content: rec.String("content"),
		Badge:   rec.String("badge"),
		Stars:   make([]struct{}, StarCount(rec)),
	}
}

type faqView struct {
	ID         int
	Question   string
	Answer     string
	AnswerHTML template.HTML
}

func (r *Renderer) newFAQView(rec content.Record) (faqView, error) {
	view := faqView{ID: rec.ID, Question: rec.String("question"), Answer: rec.String("answer")}
	if !r.opts.FAQMarkdown || view.Answer == "" {
		return view, nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(view.Answer), &buf); err != nil {
		return faqView{}, errors.WrapError(err, errors.CategoryInternal, "failed to render markdown answer").
			WithContext("id", rec.ID).
			Build()
	}
	sanitized := r.policy.SanitizeBytes(buf.Bytes())
	// #nosec G203 -- goldmark without raw HTML, then bluemonday UGC policy
	view.AnswerHTML = template.HTML(strings.TrimSpace(string(sanitized)))
	return view, nil
}

type galleryView struct {
	ID       int
	URL      string
	Category string
	Alt      string
}

type reelView struct {
	ID       int
	EmbedURL string
	Title    string
}
