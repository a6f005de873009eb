package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/sitekeeper/internal/content"
)

func newRenderer(t *testing.T, opts Options) *Renderer {
	t.Helper()
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func record(id int, fields map[string]any) content.Record {
	return content.Record{ID: id, Fields: fields}
}

// parseFragment parses rendered output the way a browser would inside <body>.
func parseFragment(t *testing.T, frag string) []*html.Node {
	t.Helper()
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(frag), body)
	require.NoError(t, err)
	return nodes
}

func walk(nodes []*html.Node, fn func(*html.Node)) {
	for _, n := range nodes {
		fn(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk([]*html.Node{c}, fn)
		}
	}
}

func textContent(nodes []*html.Node) string {
	var sb strings.Builder
	walk(nodes, func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
	})
	return sb.String()
}

func countStars(frag string) int {
	return strings.Count(frag, "★")
}

func TestRender_ReviewPrimary(t *testing.T) {
	r := newRenderer(t, Options{})
	rec := record(1, map[string]any{
		"name": "Ana", "initial": "A", "rating": 5, "time": "3 months ago",
		"title": "Great", "content": "Loved it", "badge": "",
	})

	frag, err := r.Render(rec, ReviewPrimary)
	require.NoError(t, err)

	s := string(frag)
	require.Contains(t, s, ">Ana</h3>")
	require.Contains(t, s, `"Great"`)
	require.Contains(t, s, ">Loved it</p>")
	require.Equal(t, 5, countStars(s))
	require.NotContains(t, s, "bg-green-100", "empty badge must not render")
	require.False(t, strings.HasPrefix(s, "\n") || strings.HasSuffix(s, "\n"))
}

func TestRender_ReviewCompactWithBadge(t *testing.T) {
	r := newRenderer(t, Options{})
	rec := record(4, map[string]any{"name": "bo", "rating": 2, "content": "Nice", "badge": "Verified"})

	compact, err := r.Render(rec, ReviewCompact)
	require.NoError(t, err)
	require.Equal(t, 2, countStars(string(compact)))
	require.Contains(t, string(compact), ">B</div>", "initial falls back to the name")

	primary, err := r.Render(rec, ReviewPrimary)
	require.NoError(t, err)
	require.Contains(t, string(primary), "Verified</span>")
}

func TestStarCount(t *testing.T) {
	cases := []struct {
		name   string
		rating any
		want   int
	}{
		{"in range", 3, 3},
		{"json number", json.Number("4"), 4},
		{"numeric string", "2", 2},
		{"zero clamps up", 0, 1},
		{"negative clamps up", -7, 1},
		{"large clamps down", 99, 5},
		{"non numeric", "lots", 5},
		{"missing", nil, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := map[string]any{}
			if tc.rating != nil {
				fields["rating"] = tc.rating
			}
			require.Equal(t, tc.want, StarCount(record(1, fields)))
		})
	}
}

func TestRender_MarkupIsLiteralText(t *testing.T) {
	r := newRenderer(t, Options{})
	payload := `"><script>alert(1)</script><img src=x onerror=alert(2)>`
	rec := record(9, map[string]any{
		"name": payload, "title": payload, "content": payload, "badge": payload, "time": payload,
	})

	for _, v := range []Variant{ReviewPrimary, ReviewCompact} {
		frag, err := r.Render(rec, v)
		require.NoError(t, err)

		nodes := parseFragment(t, string(frag))
		walk(nodes, func(n *html.Node) {
			if n.Type != html.ElementNode {
				return
			}
			require.NotEqual(t, atom.Script, n.DataAtom, "variant %s produced a script element", v)
			for _, a := range n.Attr {
				require.NotEqual(t, "onerror", a.Key, "variant %s produced an event handler", v)
			}
		})
		require.Contains(t, textContent(nodes), "<script>alert(1)</script>")
	}
}

func TestRender_AttributeAndURLEscaping(t *testing.T) {
	r := newRenderer(t, Options{})

	img, err := r.Render(record(1, map[string]any{
		"url": "javascript:alert(1)", "alt": `x" onload="alert(1)`, "category": "a'b",
	}), GalleryItem)
	require.NoError(t, err)

	nodes := parseFragment(t, string(img))
	var sawImg bool
	walk(nodes, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Img {
			return
		}
		sawImg = true
		for _, a := range n.Attr {
			require.NotEqual(t, "onload", a.Key)
			if a.Key == "src" {
				require.False(t, strings.HasPrefix(a.Val, "javascript:"))
			}
			if a.Key == "alt" {
				require.Equal(t, `x" onload="alert(1)`, a.Val)
			}
		}
	})
	require.True(t, sawImg)

	reel, err := r.Render(record(2, map[string]any{"embed_url": `https://instagram.com/reel/abc"><script>`, "title": "Reel"}), ReelEmbed)
	require.NoError(t, err)
	walk(parseFragment(t, string(reel)), func(n *html.Node) {
		require.False(t, n.Type == html.ElementNode && n.DataAtom == atom.Script)
	})
}

func TestRender_FAQMarkdown(t *testing.T) {
	rec := record(3, map[string]any{
		"question": "Pricing?",
		"answer":   "**Packages** start at [our page](https://example.com).\n\n<script>alert(1)</script>",
	})

	plain := newRenderer(t, Options{})
	frag, err := plain.Render(rec, FAQItem)
	require.NoError(t, err)
	require.Contains(t, string(frag), "**Packages**")
	require.NotContains(t, string(frag), "<strong>")

	md := newRenderer(t, Options{FAQMarkdown: true})
	frag, err = md.Render(rec, FAQItem)
	require.NoError(t, err)
	s := string(frag)
	require.Contains(t, s, "<strong>Packages</strong>")
	require.Contains(t, s, `href="https://example.com"`)
	require.NotContains(t, s, "<script>")
	walk(parseFragment(t, s), func(n *html.Node) {
		require.False(t, n.Type == html.ElementNode && n.DataAtom == atom.Script)
	})
}

func TestRender_UnknownVariant(t *testing.T) {
	r := newRenderer(t, Options{})
	_, err := r.Render(record(1, nil), Variant("hero.banner"))
	require.Error(t, err)
}

func TestRender_Deterministic(t *testing.T) {
	r := newRenderer(t, Options{})
	rec := record(5, map[string]any{"question": "Q", "answer": "A"})
	a, err := r.Render(rec, FAQItem)
	require.NoError(t, err)
	b, err := r.Render(rec, FAQItem)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestRenderAll_PreservesOrder(t *testing.T) {
	r := newRenderer(t, Options{})
	seq := []content.Record{
		record(3, map[string]any{"embed_url": "https://instagram.com/reel/c", "title": "C"}),
		record(1, map[string]any{"embed_url": "https://instagram.com/reel/a", "title": "A"}),
	}
	frags, err := r.RenderAll(seq, ReelEmbed)
	require.NoError(t, err)
	require.Len(t, frags, 2)
	require.Contains(t, string(frags[0]), `data-record-id="3"`)
	require.Contains(t, string(frags[1]), `data-record-id="1"`)
}

func TestRender_Golden(t *testing.T) {
	r := newRenderer(t, Options{})
	g := goldie.New(t)

	gallery, err := r.Render(record(7, map[string]any{
		"url": "https://example.com/a.jpg", "category": "weddings", "alt": "Bride & groom",
	}), GalleryItem)
	require.NoError(t, err)
	g.Assert(t, "gallery_item", []byte(gallery))

	faq, err := r.Render(record(2, map[string]any{
		"question": "Do you travel for <b>weddings</b>?", "answer": "Yes & we love it",
	}), FAQItem)
	require.NoError(t, err)
	g.Assert(t, "faq_item", []byte(faq))
}
