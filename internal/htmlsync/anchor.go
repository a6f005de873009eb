package htmlsync

import (
	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/render"
)

// MarkerAttr is the attribute that identifies anchors in a document.
const MarkerAttr = "data-sync-anchor"

// Anchor names a (section, variant) region of the document.
type Anchor string

const (
	ReviewsPrimary   Anchor = "reviews-primary"
	ReviewsSecondary Anchor = "reviews-secondary"
	FAQsList         Anchor = "faqs-list"
	GalleryGrid      Anchor = "gallery-grid"
	ReelsList        Anchor = "reels-list"
)

// Anchors returns every anchor in document-independent, stable order.
func Anchors() []Anchor {
	return []Anchor{ReviewsPrimary, ReviewsSecondary, FAQsList, GalleryGrid, ReelsList}
}

// AnchorsFor returns the anchors fed by a collection.
func AnchorsFor(kind content.Kind) []Anchor {
	switch kind {
	case content.KindReviews:
		return []Anchor{ReviewsPrimary, ReviewsSecondary}
	case content.KindFAQs:
		return []Anchor{FAQsList}
	case content.KindGallery:
		return []Anchor{GalleryGrid}
	case content.KindReels:
		return []Anchor{ReelsList}
	}
	return nil
}

// Variant returns the fragment variant rendered into the anchor.
func (a Anchor) Variant() render.Variant {
	switch a {
	case ReviewsPrimary:
		return render.ReviewPrimary
	case ReviewsSecondary:
		return render.ReviewCompact
	case FAQsList:
		return render.FAQItem
	case GalleryGrid:
		return render.GalleryItem
	case ReelsList:
		return render.ReelEmbed
	}
	return ""
}

// DefaultSelector locates an anchor by its marker attribute.
func DefaultSelector(a Anchor) Selector {
	return Selector{Attrs: map[string]string{MarkerAttr: string(a)}}
}

// LegacySelectors locate anchors in documents that predate marker attributes.
// They are used by Adopt only.
func LegacySelectors() map[Anchor]Selector {
	return map[Anchor]Selector{
		ReviewsPrimary: {
			Tag:   "div",
			Class: "grid grid-cols-1 md:grid-cols-3 gap-8",
			Within: &Selector{
				Tag:   "section",
				Class: "py-20 bg-gradient-to-b from-gray-50 to-white",
			},
		},
		ReviewsSecondary: {
			Tag:   "div",
			Class: "grid grid-cols-1 md:grid-cols-2 lg:grid-cols-4 gap-6",
		},
		FAQsList: {
			Tag:    "div",
			Class:  "space-y-4",
			Within: &Selector{Tag: "section", Class: "bg-white"},
		},
		GalleryGrid: {Tag: "div", ID: "gallery-grid"},
		ReelsList:   {Tag: "section", ID: "instagram-posts"},
	}
}
