package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Element is an element node of a Document.
type Element struct {
	node      *html.Node
	doc       *Document
	listeners map[string][]*Listener
}

// Node returns the underlying html.Node.
func (el *Element) Node() *html.Node {
	return el.node
}

// Document returns the document el belongs to.
func (el *Element) Document() *Document {
	return el.doc
}

// Tag returns the lower-case tag name.
func (el *Element) Tag() string {
	return el.node.Data
}

// ID returns the id attribute.
func (el *Element) ID() string {
	return el.Attr("id")
}

// Attr returns the value of the named attribute, or "".
func (el *Element) Attr(name string) string {
	v, _ := el.GetAttribute(name)
	return v
}

// GetAttribute returns the named attribute and whether it is present.
func (el *Element) GetAttribute(name string) (string, bool) {
	for _, a := range el.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttribute reports whether the named attribute is present.
func (el *Element) HasAttribute(name string) bool {
	_, ok := el.GetAttribute(name)
	return ok
}

// SetAttribute sets the named attribute.
func (el *Element) SetAttribute(name, value string) {
	for i, a := range el.node.Attr {
		if a.Namespace == "" && a.Key == name {
			el.node.Attr[i].Val = value
			return
		}
	}
	el.node.Attr = append(el.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttribute removes the named attribute.
func (el *Element) RemoveAttribute(name string) {
	attrs := el.node.Attr[:0]
	for _, a := range el.node.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		attrs = append(attrs, a)
	}
	el.node.Attr = attrs
}

// Attributes returns a copy of the element's attributes.
func (el *Element) Attributes() []html.Attribute {
	return append([]html.Attribute(nil), el.node.Attr...)
}

// Parent returns the parent element, or nil when el is detached or is
// the document element.
func (el *Element) Parent() *Element {
	if el == nil || el.node.Parent == nil {
		return nil
	}
	return el.doc.wrap(el.node.Parent)
}

// Attached reports whether el has a parent node.
func (el *Element) Attached() bool {
	return el != nil && el.node.Parent != nil
}

// Connected reports whether el is part of its document's tree.
func (el *Element) Connected() bool {
	if el == nil {
		return false
	}
	for n := el.node; n != nil; n = n.Parent {
		if n == el.doc.root {
			return true
		}
	}
	return false
}

// Contains reports whether other is el or one of its descendants.
func (el *Element) Contains(other *Element) bool {
	if el == nil || other == nil {
		return false
	}
	for n := other.node; n != nil; n = n.Parent {
		if n == el.node {
			return true
		}
	}
	return false
}

// Children returns the element children of el.
func (el *Element) Children() []*Element {
	var out []*Element
	for c := el.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, el.doc.wrap(c))
		}
	}
	return out
}

// AppendChild appends child to el, detaching it from its current parent.
// A child from another document moves into el's document with its
// listeners.
func (el *Element) AppendChild(child *Element) {
	if child == nil {
		return
	}
	child.Remove()
	el.doc.adopt(child)
	el.node.AppendChild(child.node)
}

// InsertBefore inserts child before ref. A nil ref appends.
func (el *Element) InsertBefore(child, ref *Element) {
	if child == nil {
		return
	}
	if ref == nil || ref.node.Parent != el.node {
		el.AppendChild(child)
		return
	}
	child.Remove()
	el.doc.adopt(child)
	el.node.InsertBefore(child.node, ref.node)
}

// RemoveChild detaches child when it is a child of el.
func (el *Element) RemoveChild(child *Element) {
	if child == nil || child.node.Parent != el.node {
		return
	}
	el.node.RemoveChild(child.node)
}

// Remove detaches el from its parent. Detached elements are left as is.
func (el *Element) Remove() {
	if el == nil || el.node.Parent == nil {
		return
	}
	el.node.Parent.RemoveChild(el.node)
}

// ReplaceWith puts replacement where el is and detaches el. It is a no-op
// when el is detached or replacement is el.
func (el *Element) ReplaceWith(replacement *Element) {
	if el == nil || replacement == nil || replacement == el {
		return
	}
	parent := el.node.Parent
	if parent == nil {
		return
	}
	replacement.Remove()
	el.doc.adopt(replacement)
	parent.InsertBefore(replacement.node, el.node)
	parent.RemoveChild(el.node)
}

// InnerHTML serializes the children of el.
func (el *Element) InnerHTML() string {
	var buf bytes.Buffer
	for c := el.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// SetInnerHTML replaces the children of el with parsed markup.
func (el *Element) SetInnerHTML(markup string) error {
	nodes, err := parseFragment(markup)
	if err != nil {
		return err
	}
	for c := el.node.FirstChild; c != nil; {
		next := c.NextSibling
		el.node.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		el.node.AppendChild(n)
	}
	return nil
}

// OuterHTML serializes el including itself.
func (el *Element) OuterHTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, el.node); err != nil {
		return ""
	}
	return buf.String()
}

// TextContent returns the concatenated text of el's subtree.
func (el *Element) TextContent() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el.node)
	return b.String()
}

// SetTextContent replaces the children of el with a single text node.
func (el *Element) SetTextContent(text string) {
	for c := el.node.FirstChild; c != nil; {
		next := c.NextSibling
		el.node.RemoveChild(c)
		c = next
	}
	if text != "" {
		el.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// Clone returns a detached copy of el. Listeners are not copied.
func (el *Element) Clone(deep bool) *Element {
	return el.doc.wrap(cloneNode(el.node, deep))
}

// String returns a short description such as div#main.card.
func (el *Element) String() string {
	if el == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(el.node.Data)
	if id := el.ID(); id != "" {
		b.WriteString("#")
		b.WriteString(id)
	}
	for _, c := range strings.Fields(el.Attr("class")) {
		b.WriteString(".")
		b.WriteString(c)
	}
	return b.String()
}

func cloneNode(n *html.Node, deep bool) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	if deep {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.AppendChild(cloneNode(child, true))
		}
	}
	return c
}
