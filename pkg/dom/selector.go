package dom

import (
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
)

// selectorCache memoizes compiled selectors. Invalid selectors are cached
// as nil so they are not recompiled on every lookup.
var selectorCache = struct {
	sync.Mutex
	m map[string]cascadia.Selector
}{m: make(map[string]cascadia.Selector)}

// compile returns the compiled form of selector. ok is false for empty or
// invalid selectors.
func compile(selector string) (cascadia.Selector, bool) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, false
	}

	selectorCache.Lock()
	defer selectorCache.Unlock()

	if sel, found := selectorCache.m[selector]; found {
		return sel, sel != nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		selectorCache.m[selector] = nil
		return nil, false
	}
	selectorCache.m[selector] = sel
	return sel, true
}

// ValidSelector reports whether selector compiles.
func ValidSelector(selector string) bool {
	_, ok := compile(selector)
	return ok
}

// Query returns the descendants of root matching selector.
//
// Selectors are evaluated against the full document, the way
// querySelectorAll does, so ancestors outside root may satisfy the left
// part of a compound selector. Matches are then filtered so that only
// strict descendants of root are returned. A nil root yields nothing.
func Query(selector string, root *Element) []*Element {
	if root == nil {
		return nil
	}
	sel, ok := compile(selector)
	if !ok {
		return nil
	}
	nodes := cascadia.QueryAll(root.node, sel)
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		el := root.doc.wrap(n)
		if el == nil || el == root || !root.Contains(el) {
			continue
		}
		out = append(out, el)
	}
	return out
}

// Query returns the descendants of el matching selector.
func (el *Element) Query(selector string) []*Element {
	return Query(selector, el)
}

// QueryOne returns the first descendant of el matching selector, or nil.
func (el *Element) QueryOne(selector string) *Element {
	if matches := Query(selector, el); len(matches) > 0 {
		return matches[0]
	}
	return nil
}

// Matches reports whether el satisfies selector.
func (el *Element) Matches(selector string) bool {
	if el == nil {
		return false
	}
	sel, ok := compile(selector)
	if !ok {
		return false
	}
	return sel.Match(el.node)
}

// Closest returns el or its nearest ancestor matching selector, or nil.
func (el *Element) Closest(selector string) *Element {
	sel, ok := compile(selector)
	if !ok {
		return nil
	}
	for cur := el; cur != nil; cur = cur.Parent() {
		if sel.Match(cur.node) {
			return cur
		}
	}
	return nil
}
