package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const blankPage = "<!DOCTYPE html><html><head></head><body></body></html>"

// Document owns an HTML tree and the *Element wrappers of its nodes.
type Document struct {
	root     *html.Node
	elements map[*html.Node]*Element
}

// NewDocument returns an empty HTML document.
func NewDocument() *Document {
	doc, err := ParseDocument(strings.NewReader(blankPage))
	if err != nil {
		// The blank page is a constant; parsing it cannot fail.
		panic(err)
	}
	return doc
}

// ParseDocument parses a complete HTML page.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	return &Document{
		root:     root,
		elements: make(map[*html.Node]*Element),
	}, nil
}

// ParseDocumentString parses a complete HTML page from a string.
func ParseDocumentString(page string) (*Document, error) {
	return ParseDocument(strings.NewReader(page))
}

// wrap returns the unique *Element for n.
func (d *Document) wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{node: n, doc: d}
	d.elements[n] = el
	return el
}

// Wrap returns the element for an html.Node belonging to this document,
// or nil for non-element nodes.
func (d *Document) Wrap(n *html.Node) *Element {
	return d.wrap(n)
}

// Lookup returns the existing element for n without creating one.
func (d *Document) Lookup(n *html.Node) *Element {
	return d.elements[n]
}

// Len returns the number of element wrappers the document holds.
func (d *Document) Len() int {
	return len(d.elements)
}

// adopt moves the wrappers of el's subtree from its document into d, so
// the subtree keeps its identity and listeners once inserted in d's tree.
func (d *Document) adopt(el *Element) {
	src := el.doc
	if src == d {
		return
	}
	walk(el.node, func(n *html.Node) bool {
		if w, ok := src.elements[n]; ok {
			delete(src.elements, n)
			w.doc = d
			d.elements[n] = w
		}
		return true
	})
}

// Release drops the wrappers of the detached subtree rooted at n and
// returns how many were dropped. Elements for which keep returns true are
// left alone together with their subtrees. Attached nodes are ignored.
// A released wrapper must not be used again: wrapping its node creates a
// new element.
func (d *Document) Release(n *html.Node, keep func(*Element) bool) int {
	if n == nil || n.Parent != nil || n == d.root {
		return 0
	}
	released := 0
	walk(n, func(c *html.Node) bool {
		w, ok := d.elements[c]
		if !ok {
			return true
		}
		if keep != nil && keep(w) {
			return false
		}
		delete(d.elements, c)
		released++
		return true
	})
	return released
}

// walk visits n and its descendants in document order. Returning false
// skips the children of the visited node.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.wrap(c)
		}
	}
	return nil
}

// Body returns the <body> element.
func (d *Document) Body() *Element {
	docEl := d.DocumentElement()
	if docEl == nil {
		return nil
	}
	for _, c := range docEl.Children() {
		if c.node.DataAtom == atom.Body {
			return c
		}
	}
	return nil
}

// QuerySelector returns the first element in the document matching
// selector, or nil.
func (d *Document) QuerySelector(selector string) *Element {
	matches := d.QuerySelectorAll(selector)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// QuerySelectorAll returns every element in the document matching
// selector, in document order. Invalid selectors match nothing.
func (d *Document) QuerySelectorAll(selector string) []*Element {
	sel, ok := compile(selector)
	if !ok {
		return nil
	}
	return d.wrapAll(sel.MatchAll(d.root))
}

// CreateElement returns a new detached element.
func (d *Document) CreateElement(tag string) *Element {
	tag = strings.ToLower(tag)
	return d.wrap(&html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	})
}

// Parse parses markup as a fragment in a <body> context and returns the
// top-level nodes. Whitespace-only text and comments are dropped so that
// callers can count top-level elements.
func (d *Document) Parse(markup string) ([]*html.Node, error) {
	nodes, err := parseFragment(markup)
	if err != nil {
		return nil, err
	}
	out := nodes[:0]
	for _, n := range nodes {
		switch {
		case n.Type == html.CommentNode:
			continue
		case n.Type == html.TextNode && strings.TrimSpace(n.Data) == "":
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseElement parses markup that must consist of exactly one top-level
// element. el is nil when markup holds zero nodes, several nodes, or a
// single non-element node; count reports how many top-level nodes were
// found.
func (d *Document) ParseElement(markup string) (el *Element, count int, err error) {
	nodes, err := d.Parse(markup)
	if err != nil {
		return nil, 0, err
	}
	if len(nodes) != 1 || nodes[0].Type != html.ElementNode {
		return nil, len(nodes), nil
	}
	return d.wrap(nodes[0]), 1, nil
}

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// HTML returns the whole document as HTML.
func (d *Document) HTML() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) wrapAll(nodes []*html.Node) []*Element {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if el := d.wrap(n); el != nil {
			out = append(out, el)
		}
	}
	return out
}

var bodyContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "body",
	DataAtom: atom.Body,
}

func parseFragment(markup string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), bodyContext)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}
