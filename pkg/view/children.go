package view

import (
	"strings"

	"github.com/figura-dev/figura/pkg/dom"
)

// ListSuffix marks a children map name whose value is always a slice.
const ListSuffix = "[]"

// cachedChild is one entry of the children cache. list is set when the
// name carried ListSuffix or when several elements matched.
type cachedChild struct {
	one  *dom.Element
	many []*dom.Element
	list bool
}

// CacheChildrenEl resolves each name of the children map against the root
// and caches the result. A non-nil m is merged into the configured map
// first. Names ending in "[]" are stored under the bare name and always
// hold a slice. Other names hold the element on a single match, nil on no
// match, and a slice on several.
func (v *View) CacheChildrenEl(m map[string]string) {
	for name, selector := range m {
		v.childrenEl[name] = selector
	}

	v.children = make(map[string]cachedChild, len(v.childrenEl))
	if v.el == nil {
		return
	}
	for name, selector := range v.childrenEl {
		matches := v.Query(selector)
		if base, ok := strings.CutSuffix(name, ListSuffix); ok {
			if matches == nil {
				matches = []*dom.Element{}
			}
			v.children[base] = cachedChild{many: matches, list: true}
			continue
		}
		switch len(matches) {
		case 0:
			v.children[name] = cachedChild{}
		case 1:
			v.children[name] = cachedChild{one: matches[0]}
		default:
			v.children[name] = cachedChild{many: matches, list: true}
		}
	}
}

// Child returns the single cached element for name, or nil when the entry
// is missing, empty, or a slice.
func (v *View) Child(name string) *dom.Element {
	return v.children[name].one
}

// Children returns the cached elements for name as a slice, whatever the
// shape of the entry.
func (v *View) Children(name string) []*dom.Element {
	c, ok := v.children[name]
	if !ok {
		return nil
	}
	if c.list {
		return c.many
	}
	if c.one != nil {
		return []*dom.Element{c.one}
	}
	return nil
}

// ChildEl returns the raw cache entry for name: a *dom.Element, a
// []*dom.Element, or nil.
func (v *View) ChildEl(name string) any {
	c, ok := v.children[name]
	switch {
	case !ok:
		return nil
	case c.list:
		return c.many
	case c.one != nil:
		return c.one
	default:
		return nil
	}
}

// ChildNames returns the names present in the children cache.
func (v *View) ChildNames() []string {
	names := make([]string, 0, len(v.children))
	for name := range v.children {
		names = append(names, name)
	}
	return names
}
