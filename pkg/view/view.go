package view

import (
	"log/slog"
	"reflect"
	"strconv"
	"sync"

	"github.com/figura-dev/figura/pkg/dom"
)

// State names a view's lifecycle state.
type State uint8

const (
	StateUnbound State = iota // no root element
	StateBound                // root set, events delegated, children cached
	StateRemoved              // terminal
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// View is the base lifecycle component. Embed *View to build richer
// components; the zero value is not usable, construct with New.
//
// A bound view is registered as the owner of its root until Remove or a
// rebind, so views must be removed, not just dropped.
type View struct {
	uid       uint64
	className string
	doc       *dom.Document
	el        *dom.Element

	events     Events
	childrenEl map[string]string
	children   map[string]cachedChild
	bindings   map[string]*binding

	subviews     map[string]Component
	subviewOrder []string

	state map[string]any
	props map[string]any

	methods  map[string]dom.HandlerFunc
	receiver reflect.Value

	hooks    Hooks
	logger   *slog.Logger
	observer Observer

	placeholder bool
	removed     bool
}

// New constructs a view from cfg and binds it when cfg.El resolves.
func New(cfg Config) *View {
	v := &View{
		uid:      nextUID(),
		children: make(map[string]cachedChild),
		bindings: make(map[string]*binding),
		subviews: make(map[string]Component),
		state:    make(map[string]any),
		props:    make(map[string]any),
		methods:  make(map[string]dom.HandlerFunc),
		observer: cfg.Observer,
		doc:      cfg.Document,
	}
	if v.observer == nil {
		v.observer = NopObserver{}
	}

	class := cfg.Class
	if class == nil {
		class = &Class{}
	}
	v.className = class.Name
	v.hooks = cfg.Hooks.merge(class.Hooks)

	v.events = class.Events
	if cfg.Events != nil {
		v.events = cfg.Events
	}
	v.childrenEl = copyStrings(class.ChildrenEl)
	if cfg.ChildrenEl != nil {
		v.childrenEl = copyStrings(cfg.ChildrenEl)
	}

	for name, fn := range class.Methods {
		v.methods[name] = fn
	}
	for name, fn := range cfg.Methods {
		v.methods[name] = fn
	}
	if cfg.Receiver != nil {
		v.receiver = reflect.ValueOf(cfg.Receiver)
	}

	for key, value := range class.Props {
		v.props[key] = value
	}
	for key, value := range cfg.Props {
		v.props[key] = value
	}
	if v.hooks.TransformProp != nil {
		for key, value := range v.props {
			v.props[key] = v.hooks.TransformProp(key, value)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	v.logger = logger.With("component", "view", "uid", v.uid)
	if v.className != "" {
		v.logger = v.logger.With("class", v.className)
	}

	if el := cfg.El; el != nil {
		if s, ok := el.(string); !ok || s != "" {
			v.SetElement(el)
		}
	}

	if v.hooks.Initialize != nil {
		v.hooks.Initialize(v)
	}
	v.observer.ViewCreated(v)
	return v
}

// UID returns the view's process-unique id.
func (v *View) UID() uint64 {
	return v.uid
}

// Key returns the uid in the form used as a default subview key.
func (v *View) Key() string {
	return strconv.FormatUint(v.uid, 10)
}

// ClassName returns the name of the view's class, if any.
func (v *View) ClassName() string {
	return v.className
}

// Base returns v. Types embedding *View inherit it, which lets tooling
// reach the base view of any component.
func (v *View) Base() *View {
	return v
}

// Element returns the root element, or nil when unbound.
func (v *View) Element() *dom.Element {
	return v.el
}

// Document returns the document the view resolves selectors against:
// the root's document when bound.
func (v *View) Document() *dom.Document {
	if v.el != nil {
		return v.el.Document()
	}
	return v.doc
}

// Logger returns the view's logger.
func (v *View) Logger() *slog.Logger {
	return v.logger
}

// State returns the lifecycle state.
func (v *View) State() State {
	switch {
	case v.removed:
		return StateRemoved
	case v.el != nil:
		return StateBound
	default:
		return StateUnbound
	}
}

// Removed reports whether Remove has been called.
func (v *View) Removed() bool {
	return v.removed
}

// Query returns the descendants of the root matching selector.
func (v *View) Query(selector string) []*dom.Element {
	return dom.Query(selector, v.el)
}

// SetElement rebinds the view to el. Events are undelegated from the old
// root first, then delegated on the new one, and the children cache is
// recomputed. el may be a selector, a *dom.Element, or anything else to
// unbind. It is a no-op on a removed view.
func (v *View) SetElement(el any) {
	if v.removed {
		return
	}
	v.undelegateAll()
	if v.el != nil {
		releaseElement(v.el, v)
	}

	v.el = v.resolveElement(el)
	if v.el != nil && !claimElement(v.el, v) {
		v.logger.Warn("element already owned by another view", "element", v.el.String())
		v.el = nil
	}
	if v.el != nil {
		v.logger.Debug("element bound", "element", v.el.String())
	}

	v.DelegateEvents(nil)
	v.CacheChildrenEl(nil)
}

func (v *View) resolveElement(el any) *dom.Element {
	switch t := el.(type) {
	case string:
		doc := v.Document()
		if t == "" || doc == nil {
			return nil
		}
		return doc.QuerySelector(t)
	case *dom.Element:
		if t == nil {
			return nil
		}
		if v.doc == nil {
			v.doc = t.Document()
		}
		return t
	default:
		return nil
	}
}

// Remove tears the view down: subviews are removed depth first, events
// undelegated, the root detached from its parent and every cache cleared.
// Calling Remove again does nothing.
func (v *View) Remove() {
	if v.removed {
		return
	}
	v.removed = true

	v.RemoveSubviews()
	v.undelegateAll()
	if v.el != nil {
		v.el.Remove()
		releaseElement(v.el, v)
		v.el = nil
	}
	v.children = make(map[string]cachedChild)
	v.subviewOrder = nil

	v.logger.Debug("view removed")
	v.observer.ViewRemoved(v)
}

// owners maps each bound root element to the view that owns it. Entries
// are released by SetElement and Remove; a view dropped while still bound
// stays reachable from here.
var owners = struct {
	sync.Mutex
	m map[*dom.Element]*View
}{m: make(map[*dom.Element]*View)}

func claimElement(el *dom.Element, v *View) bool {
	owners.Lock()
	defer owners.Unlock()
	if cur, ok := owners.m[el]; ok && cur != v && !cur.removed {
		return false
	}
	owners.m[el] = v
	return true
}

func releaseElement(el *dom.Element, v *View) {
	owners.Lock()
	defer owners.Unlock()
	if owners.m[el] == v {
		delete(owners.m, el)
	}
}

// OwnerOf returns the live view that owns el as its root, or nil.
func OwnerOf(el *dom.Element) *View {
	owners.Lock()
	defer owners.Unlock()
	if v, ok := owners.m[el]; ok && !v.removed {
		return v
	}
	return nil
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
