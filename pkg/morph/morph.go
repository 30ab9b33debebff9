// Package morph reconciles a live element against a target element in
// place.
//
// Patch walks both trees and mutates the live tree with the fewest
// structural changes it can find: elements with the same tag (and the
// same id, when either side has one) are updated in place, so their
// identity, listeners and cached references survive. Elements with an id
// are matched by id among their siblings and moved instead of recreated.
// Everything else is inserted or removed. Nodes reported by
// Options.Frozen are never matched; they are detached untouched so that
// their owner can put them back.
//
// The target tree is consumed: nodes that have no counterpart in the live
// tree are moved out of it.
package morph

import (
	"golang.org/x/net/html"

	"github.com/figura-dev/figura/pkg/dom"
)

// Options configures a patch.
type Options struct {
	// OnElementUpdated is called once with the live root after patching
	// completes.
	OnElementUpdated func(el *dom.Element)

	// ChildrenOnly leaves the live root's own attributes untouched and
	// only reconciles its children.
	ChildrenOnly bool

	// Frozen reports live nodes that must never be updated in place or
	// reused. A frozen node is detached from its position as is, with its
	// attributes and subtree intact, and the target node is inserted in
	// its place.
	Frozen func(n *html.Node) bool

	// OnNodeDiscarded is called for each live node the patch detached.
	OnNodeDiscarded func(n *html.Node)
}

// Stats counts the mutations a patch performed.
type Stats struct {
	Updated  int // nodes kept and updated in place
	Inserted int // nodes moved in from the target tree
	Removed  int // live nodes discarded
	Moved    int // live nodes reordered by id
	Attrs    int // attribute writes and removals
}

// Total returns the number of mutations.
func (s Stats) Total() int {
	return s.Inserted + s.Removed + s.Moved + s.Attrs
}

// Patcher is a reusable patch function. The zero value is ready to use.
type Patcher struct{}

// Patch implements the diff-patch collaborator contract.
func (Patcher) Patch(from, to *dom.Element, opts Options) Stats {
	return Patch(from, to, opts)
}

// Patch mutates from so that it matches to and returns the work done.
// Nil arguments are a no-op.
func Patch(from, to *dom.Element, opts Options) Stats {
	var st Stats
	if from == nil || to == nil || from == to {
		return st
	}
	m := &morpher{stats: &st, frozen: opts.Frozen, discarded: opts.OnNodeDiscarded}
	if !opts.ChildrenOnly {
		m.attrs(from.Node(), to.Node())
	}
	m.children(from.Node(), to.Node())
	if opts.OnElementUpdated != nil {
		opts.OnElementUpdated(from)
	}
	return st
}

type morpher struct {
	stats     *Stats
	frozen    func(*html.Node) bool
	discarded func(*html.Node)
}

func (m *morpher) isFrozen(n *html.Node) bool {
	return m.frozen != nil && n.Type == html.ElementNode && m.frozen(n)
}

// discard detaches n from parent.
func (m *morpher) discard(parent, n *html.Node) {
	parent.RemoveChild(n)
	m.stats.Removed++
	if m.discarded != nil {
		m.discarded(n)
	}
}

// node updates from in place to match to. Callers guarantee the pair is
// compatible.
func (m *morpher) node(from, to *html.Node) {
	m.stats.Updated++
	switch from.Type {
	case html.ElementNode:
		m.attrs(from, to)
		m.children(from, to)
	case html.TextNode, html.CommentNode:
		if from.Data != to.Data {
			from.Data = to.Data
		}
	}
}

func (m *morpher) attrs(from, to *html.Node) {
	want := make(map[string]string, len(to.Attr))
	for _, a := range to.Attr {
		want[attrKey(a)] = a.Val
	}

	kept := from.Attr[:0]
	have := make(map[string]bool, len(from.Attr))
	for _, a := range from.Attr {
		k := attrKey(a)
		v, ok := want[k]
		if !ok {
			m.stats.Attrs++
			continue
		}
		if a.Val != v {
			a.Val = v
			m.stats.Attrs++
		}
		have[k] = true
		kept = append(kept, a)
	}
	for _, a := range to.Attr {
		if !have[attrKey(a)] {
			kept = append(kept, a)
			m.stats.Attrs++
		}
	}
	from.Attr = kept
}

func (m *morpher) children(fromParent, toParent *html.Node) {
	cur := fromParent.FirstChild

	for toChild := toParent.FirstChild; toChild != nil; {
		nextTo := toChild.NextSibling

		for cur != nil && m.isFrozen(cur) {
			next := cur.NextSibling
			m.discard(fromParent, cur)
			cur = next
		}

		switch {
		case cur != nil && compatible(cur, toChild):
			m.node(cur, toChild)
			cur = cur.NextSibling

		default:
			if match := m.findKeyed(cur, key(toChild)); match != nil && compatible(match, toChild) {
				fromParent.RemoveChild(match)
				insertBefore(fromParent, match, cur)
				m.stats.Moved++
				m.node(match, toChild)
				break
			}
			toParent.RemoveChild(toChild)
			insertBefore(fromParent, toChild, cur)
			m.stats.Inserted++
		}

		toChild = nextTo
	}

	for cur != nil {
		next := cur.NextSibling
		m.discard(fromParent, cur)
		cur = next
	}
}

func insertBefore(parent, child, ref *html.Node) {
	if ref == nil {
		parent.AppendChild(child)
		return
	}
	parent.InsertBefore(child, ref)
}

// compatible reports whether from can be updated in place to become to.
func compatible(from, to *html.Node) bool {
	if from.Type != to.Type {
		return false
	}
	if from.Type != html.ElementNode {
		return true
	}
	return from.Data == to.Data && from.Namespace == to.Namespace && key(from) == key(to)
}

// findKeyed searches start and its following siblings for an unfrozen
// element whose id is k.
func (m *morpher) findKeyed(start *html.Node, k string) *html.Node {
	if k == "" {
		return nil
	}
	for n := start; n != nil; n = n.NextSibling {
		if key(n) == k && !m.isFrozen(n) {
			return n
		}
	}
	return nil
}

func key(n *html.Node) string {
	if n.Type != html.ElementNode {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "id" {
			return a.Val
		}
	}
	return ""
}

func attrKey(a html.Attribute) string {
	if a.Namespace == "" {
		return a.Key
	}
	return a.Namespace + ":" + a.Key
}
