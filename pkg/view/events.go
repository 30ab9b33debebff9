package view

import (
	"reflect"
	"sort"
	"strings"

	"github.com/figura-dev/figura/pkg/dom"
)

// Handler is an entry of an event table: either a function or the name of
// a method resolved against the view.
type Handler struct {
	listener *dom.Listener
	method   string
}

// On returns a handler calling fn. Each call creates a distinct listener.
func On(fn dom.HandlerFunc) Handler {
	return Handler{listener: dom.NewListener(fn)}
}

// Listen returns a handler for an existing listener, so the same listener
// can later be passed to Undelegate.
func Listen(l *dom.Listener) Handler {
	return Handler{listener: l}
}

// Method returns a handler that calls the view method named name.
func Method(name string) Handler {
	return Handler{method: name}
}

// MethodName returns the method name of a Method handler.
func (h Handler) MethodName() string {
	return h.method
}

// Events maps "<event> <selector>" keys to handlers. The selector may be
// omitted to listen on the root itself.
type Events map[string]Handler

// ParseEventKey splits an event table key into the event name and the
// selector. The first run of whitespace separates them.
func ParseEventKey(key string) (name, selector string) {
	key = strings.TrimSpace(key)
	i := strings.IndexFunc(key, isSpace)
	if i < 0 {
		return key, ""
	}
	return key[:i], strings.TrimSpace(key[i:])
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

// ResolveEventName maps events that do not bubble onto their bubbling
// equivalents.
func ResolveEventName(name string) string {
	switch name {
	case "focus":
		return "focusin"
	case "blur":
		return "focusout"
	default:
		return name
	}
}

type binding struct {
	event     string
	selector  string
	root      *dom.Element
	original  *dom.Listener
	delegated *dom.Listener
}

func bindingKey(event, selector string) string {
	return event + " " + selector
}

// DelegateEvents replaces the active event table: every current
// registration is undelegated, then each entry of events is attached to
// the root. A nil table delegates the configured one. Entries are
// attached in key order, and a method name that does not resolve is
// skipped.
func (v *View) DelegateEvents(events Events) {
	if events == nil {
		events = v.events
	}
	v.undelegateAll()
	if v.el == nil || len(events) == 0 {
		return
	}

	keys := make([]string, 0, len(events))
	for k := range events {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name, selector := ParseEventKey(k)
		if name == "" {
			continue
		}
		h := events[k]
		if h.listener != nil {
			v.Delegate(name, selector, h.listener)
			continue
		}
		if h.method == "" {
			continue
		}
		if v.lookupMethod(h.method) == nil {
			v.logger.Warn("event method not found", "event", name, "method", h.method)
			continue
		}
		v.delegate(name, selector, nil, h.method)
	}
}

// Delegate registers l for event on descendants of the root matching
// selector. An empty selector listens on the root. It returns the
// listener attached to the root, or nil when the view is unbound or the
// (event, selector) pair is already registered.
func (v *View) Delegate(event, selector string, l *dom.Listener) *dom.Listener {
	if l == nil {
		return nil
	}
	return v.delegate(event, selector, l, "")
}

func (v *View) delegate(event, selector string, l *dom.Listener, method string) *dom.Listener {
	if v.el == nil || v.removed {
		return nil
	}
	event = ResolveEventName(event)
	key := bindingKey(event, selector)
	if _, ok := v.bindings[key]; ok {
		return nil
	}

	root := v.el
	call := func(e *dom.Event) {
		if l != nil {
			l.Handle(e)
			return
		}
		if fn := v.lookupMethod(method); fn != nil {
			fn(e)
		}
	}

	var fn dom.HandlerFunc
	if selector == "" {
		fn = func(e *dom.Event) {
			e.DelegateTarget = root
			call(e)
			v.observer.EventHandled(v, event, selector)
		}
	} else {
		fn = func(e *dom.Event) {
			if e.Target == nil {
				return
			}
			match := e.Target.Closest(selector)
			if match == nil || match == root || !root.Contains(match) {
				return
			}
			e.DelegateTarget = match
			call(e)
			v.observer.EventHandled(v, event, selector)
		}
	}

	b := &binding{
		event:     event,
		selector:  selector,
		root:      root,
		original:  l,
		delegated: dom.NewListener(fn),
	}
	v.bindings[key] = b
	root.AddEventListener(event, b.delegated)

	v.logger.Debug("event delegated", "event", event, "selector", selector)
	v.observer.EventDelegated(v, event, selector)
	return b.delegated
}

// Undelegate removes the registration for (event, selector) when l is the
// listener that was passed to Delegate or the one it returned. Any other
// listener leaves the registration in place.
func (v *View) Undelegate(event, selector string, l *dom.Listener) {
	if l == nil {
		return
	}
	key := bindingKey(ResolveEventName(event), selector)
	b, ok := v.bindings[key]
	if !ok {
		return
	}
	if l != b.original && l != b.delegated {
		return
	}
	v.unbind(key, b)
}

// UndelegateMethod removes a registration made from a Method handler.
func (v *View) UndelegateMethod(event, selector string) {
	key := bindingKey(ResolveEventName(event), selector)
	if b, ok := v.bindings[key]; ok && b.original == nil {
		v.unbind(key, b)
	}
}

// UndelegateEvents removes every delegated listener from the root.
func (v *View) UndelegateEvents() {
	v.undelegateAll()
}

func (v *View) undelegateAll() {
	keys := make([]string, 0, len(v.bindings))
	for k := range v.bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.unbind(k, v.bindings[k])
	}
}

func (v *View) unbind(key string, b *binding) {
	delete(v.bindings, key)
	b.root.RemoveEventListener(b.event, b.delegated)
	v.logger.Debug("event undelegated", "event", b.event, "selector", b.selector)
	v.observer.EventUndelegated(v, b.event, b.selector)
}

// Bindings returns the registered "<event> <selector>" keys, sorted.
func (v *View) Bindings() []string {
	keys := make([]string, 0, len(v.bindings))
	for k := range v.bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetMethod installs or replaces the named handler on this view only.
// Delegated Method handlers pick up the change on their next dispatch.
func (v *View) SetMethod(name string, fn dom.HandlerFunc) {
	if fn == nil {
		delete(v.methods, name)
		return
	}
	v.methods[name] = fn
}

var handlerFuncType = reflect.TypeOf(dom.HandlerFunc(nil))

// lookupMethod resolves name against the per-view methods first, then the
// receiver's exported methods of type func(*dom.Event).
func (v *View) lookupMethod(name string) dom.HandlerFunc {
	if fn, ok := v.methods[name]; ok {
		return fn
	}
	if !v.receiver.IsValid() {
		return nil
	}
	m := v.receiver.MethodByName(name)
	if !m.IsValid() || !m.Type().ConvertibleTo(handlerFuncType) {
		return nil
	}
	return m.Convert(handlerFuncType).Interface().(dom.HandlerFunc)
}
