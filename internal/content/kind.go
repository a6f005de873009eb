package content

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Kind identifies a collection.
type Kind string

const (
	KindReviews Kind = "reviews"
	KindFAQs    Kind = "faqs"
	KindGallery Kind = "gallery"
	KindReels   Kind = "reels"
)

// Kinds returns every collection kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindReviews, KindFAQs, KindGallery, KindReels}
}

// ParseKind resolves a collection name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schemas[k]; !ok {
		return "", errors.NotFoundError(fmt.Sprintf("unknown collection: %s", s)).
			WithContext("kind", s).
			Build()
	}
	return k, nil
}

func (k Kind) String() string { return string(k) }

// field describes one named field of a kind and how its default is derived.
type field struct {
	name string
	def  func(fields map[string]any) any
}

func constant(v any) func(map[string]any) any {
	return func(map[string]any) any { return v }
}

var schemas = map[Kind][]field{
	KindReviews: {
		{"name", constant("")},
		{"initial", initialFromName},
		{"rating", constant(5)},
		{"time", constant("3 months ago")},
		{"title", constant("")},
		{"content", constant("")},
		{"badge", constant("")},
	},
	KindFAQs: {
		{"question", constant("")},
		{"answer", constant("")},
	},
	KindGallery: {
		{"url", constant("")},
		{"category", constant("weddings")},
		{"alt", constant("Gallery image")},
	},
	KindReels: {
		{"embed_url", constant("")},
		{"title", constant("Instagram Reel")},
	},
}

// Fields returns the field names known for the kind, in schema order.
func (k Kind) Fields() []string {
	specs := schemas[k]
	names := make([]string, 0, len(specs))
	for _, f := range specs {
		names = append(names, f.name)
	}
	return names
}

func (k Kind) known(name string) bool {
	for _, f := range schemas[k] {
		if f.name == name {
			return true
		}
	}
	return false
}

func initialFromName(fields map[string]any) any {
	name, _ := fields["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
