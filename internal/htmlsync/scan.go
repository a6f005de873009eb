package htmlsync

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/net/html"
)

// element is a tag located in the source by byte offsets.
type element struct {
	tag        string
	attrs      []html.Attribute
	start      int // offset of '<' of the start tag
	innerStart int // offset just past the start tag
	innerEnd   int // offset of '<' of the end tag, -1 when never closed
	parent     *element
	void       bool // cannot hold content: a void element or a self-closing foreign one
	implicit   bool // ended by an ancestor's end tag rather than its own
}

func (e *element) attr(key string) (string, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (e *element) closed() bool { return e.innerEnd >= 0 && !e.implicit }

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// foreignRoots switch the tokenizer into foreign content, where "/>" really
// ends an element.
var foreignRoots = map[string]bool{"svg": true, "math": true}

// scan tokenizes src and returns every element in document order. Offsets are
// tracked by summing raw token lengths, so they index into src exactly.
func scan(src []byte) ([]*element, error) {
	z := html.NewTokenizer(bytes.NewReader(src))
	var (
		elements []*element
		stack    []*element
		offset   int
	)
	top := func() *element {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}
	foreign := func() bool {
		for _, e := range stack {
			if foreignRoots[e.tag] {
				return true
			}
		}
		return false
	}

	for {
		tt := z.Next()
		tokStart := offset
		offset += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return elements, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			e := &element{
				tag:        string(name),
				start:      tokStart,
				innerStart: offset,
				innerEnd:   -1,
				parent:     top(),
			}
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = z.TagAttr()
				e.attrs = append(e.attrs, html.Attribute{Key: string(k), Val: string(v)})
			}
			elements = append(elements, e)
			// Outside foreign content "/>" on a normal element is ignored
			// and the element stays open until its end tag.
			selfClosed := tt == html.SelfClosingTagToken && (foreignRoots[e.tag] || foreign())
			if voidElements[e.tag] || selfClosed {
				e.void = true
				continue
			}
			stack = append(stack, e)

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].tag != tag {
					continue
				}
				// Elements left open inside the matched one end where it ends.
				for _, open := range stack[i+1:] {
					open.innerEnd = tokStart
					open.implicit = true
				}
				stack[i].innerEnd = tokStart
				stack = stack[:i]
				break
			}
		}
	}
}
