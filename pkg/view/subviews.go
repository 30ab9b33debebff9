package view

import (
	"fmt"
	"reflect"
	"strconv"

	"golang.org/x/net/html"

	"github.com/figura-dev/figura/pkg/dom"
)

// Component is the capability set a subview must provide.
type Component interface {
	UID() uint64
	Element() *dom.Element
	Remove()
}

// PlaceholderAttr marks render placeholders with the uid of the subview
// they stand in for.
const PlaceholderAttr = "data-view-uid"

// AddSubview registers c under its uid.
func (v *View) AddSubview(c Component) (Component, error) {
	return v.AddSubviewAs("", c)
}

// AddSubviewAs registers c under key, defaulting to c's uid. Registering
// over an existing key replaces the entry but leaves the previous
// occupant alive; removing it is up to the caller. A removed view
// registers nothing and removes c right away, since it would never tear
// c down.
func (v *View) AddSubviewAs(key string, c Component) (Component, error) {
	if isNil(c) {
		return nil, typeContractError(fmt.Sprintf("got %T", c))
	}
	if v.removed {
		v.logger.Warn("subview added to a removed view", "subview", c.UID())
		c.Remove()
		return c, nil
	}
	if key == "" {
		key = strconv.FormatUint(c.UID(), 10)
	}
	if prev, ok := v.subviews[key]; ok {
		if prev != c {
			v.logger.Warn("subview key overwritten", "key", key,
				"previous", prev.UID(), "next", c.UID())
		}
	} else {
		v.subviewOrder = append(v.subviewOrder, key)
	}
	v.subviews[key] = c
	return c, nil
}

func isNil(c Component) bool {
	if c == nil {
		return true
	}
	rv := reflect.ValueOf(c)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Subview returns the subview registered under key.
func (v *View) Subview(key string) (Component, bool) {
	c, ok := v.subviews[key]
	return c, ok
}

// SubviewKeys returns the registered keys in registration order.
func (v *View) SubviewKeys() []string {
	return append([]string(nil), v.subviewOrder...)
}

// RemoveSubview removes the subview under key and drops its entry.
func (v *View) RemoveSubview(key string) {
	c, ok := v.subviews[key]
	if !ok {
		return
	}
	v.dropSubview(key)
	c.Remove()
}

// RemoveSubviews removes every subview in registration order. Each entry
// is deleted before its Remove runs, so a subview never sees itself
// registered during teardown.
func (v *View) RemoveSubviews() {
	for _, key := range v.SubviewKeys() {
		v.RemoveSubview(key)
	}
}

func (v *View) dropSubview(key string) {
	delete(v.subviews, key)
	for i, k := range v.subviewOrder {
		if k == key {
			v.subviewOrder = append(v.subviewOrder[:i], v.subviewOrder[i+1:]...)
			break
		}
	}
}

// RenderPlaceholder returns markup a parent can embed to reserve this
// view's position, and flags the view for reassignment after diff
// renders.
func (v *View) RenderPlaceholder() string {
	v.placeholder = true
	return fmt.Sprintf(`<div %s="%d"></div>`, PlaceholderAttr, v.uid)
}

// UsesPlaceholder reports whether RenderPlaceholder has been called.
func (v *View) UsesPlaceholder() bool {
	return v.placeholder
}

// AssignSubview replaces the placeholder of the subview under key with
// the subview's root element. It reports whether a replacement happened;
// a missing subview, root or placeholder makes it a no-op.
func (v *View) AssignSubview(key string) bool {
	c, ok := v.subviews[key]
	if !ok || v.el == nil {
		return false
	}
	sub := c.Element()
	if sub == nil {
		return false
	}
	ph := v.el.QueryOne(fmt.Sprintf(`[%s="%d"]`, PlaceholderAttr, c.UID()))
	if ph == nil || ph == sub || sub.Contains(ph) {
		return false
	}
	ph.ReplaceWith(sub)
	return true
}

// assignPlaceholders reassigns every subview that asked for a placeholder.
func (v *View) assignPlaceholders() {
	for _, key := range v.SubviewKeys() {
		if v.placed(v.subviews[key]) {
			v.AssignSubview(key)
		}
	}
}

// placed reports whether c is positioned through a placeholder.
func (v *View) placed(c Component) bool {
	if p, ok := c.(interface{ UsesPlaceholder() bool }); ok && !p.UsesPlaceholder() {
		return false
	}
	return true
}

// placedRoots returns the root nodes of subviews positioned through
// placeholders. A parent patch must leave them untouched.
func (v *View) placedRoots() map[*html.Node]bool {
	roots := make(map[*html.Node]bool, len(v.subviews))
	for _, c := range v.subviews {
		if !v.placed(c) {
			continue
		}
		if el := c.Element(); el != nil {
			roots[el.Node()] = true
		}
	}
	return roots
}
