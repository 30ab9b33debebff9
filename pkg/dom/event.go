package dom

// HandlerFunc handles a dispatched event.
type HandlerFunc func(e *Event)

// Listener is a registered event handler. Listeners are compared by
// pointer, which is what makes RemoveEventListener precise.
type Listener struct {
	fn HandlerFunc
}

// NewListener wraps fn in a Listener.
func NewListener(fn HandlerFunc) *Listener {
	return &Listener{fn: fn}
}

// Handle invokes the listener. A nil listener or function is a no-op.
func (l *Listener) Handle(e *Event) {
	if l == nil || l.fn == nil {
		return
	}
	l.fn(e)
}

// Event is a DOM event travelling from its target up to the root.
type Event struct {
	// Type is the event name, e.g. "click".
	Type string

	// Bubbles reports whether the event propagates to ancestors.
	Bubbles bool

	// Target is the element the event was dispatched at.
	Target *Element

	// CurrentTarget is the element whose listener is running.
	CurrentTarget *Element

	// DelegateTarget is the element matched by a delegated selector.
	// It is only set while a delegated handler runs.
	DelegateTarget *Element

	// Detail carries caller-defined payload.
	Detail any

	stopped          bool
	stoppedImmediate bool
}

// nonBubbling lists event types that do not bubble in browsers.
var nonBubbling = map[string]bool{
	"focus":      true,
	"blur":       true,
	"load":       true,
	"unload":     true,
	"scroll":     true,
	"mouseenter": true,
	"mouseleave": true,
}

// NewEvent creates an event whose bubbling follows browser defaults.
func NewEvent(typ string) *Event {
	return &Event{Type: typ, Bubbles: !nonBubbling[typ]}
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// StopImmediatePropagation also skips remaining listeners on the
// current element.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
}

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool {
	return e.stopped
}

// AddEventListener registers l for typ. Registering the same listener
// twice for the same type is a no-op, as in the browser.
func (el *Element) AddEventListener(typ string, l *Listener) {
	if el == nil || l == nil {
		return
	}
	if el.listeners == nil {
		el.listeners = make(map[string][]*Listener)
	}
	for _, existing := range el.listeners[typ] {
		if existing == l {
			return
		}
	}
	el.listeners[typ] = append(el.listeners[typ], l)
}

// RemoveEventListener unregisters l for typ. Unknown listeners are ignored.
func (el *Element) RemoveEventListener(typ string, l *Listener) {
	if el == nil || l == nil {
		return
	}
	list := el.listeners[typ]
	for i, existing := range list {
		if existing == l {
			el.listeners[typ] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(el.listeners[typ]) == 0 {
		delete(el.listeners, typ)
	}
}

// ListenerCount returns the number of listeners registered for typ.
// An empty typ counts listeners of every type.
func (el *Element) ListenerCount(typ string) int {
	if el == nil {
		return 0
	}
	if typ != "" {
		return len(el.listeners[typ])
	}
	n := 0
	for _, list := range el.listeners {
		n += len(list)
	}
	return n
}

// Dispatch sends e to el and, when e bubbles, to each ancestor element.
func (el *Element) Dispatch(e *Event) {
	if el == nil || e == nil {
		return
	}
	e.Target = el

	path := []*Element{el}
	if e.Bubbles {
		for p := el.Parent(); p != nil; p = p.Parent() {
			path = append(path, p)
		}
	}

	for _, cur := range path {
		list := cur.listeners[e.Type]
		if len(list) == 0 {
			continue
		}
		e.CurrentTarget = cur
		// Snapshot: listeners may add or remove listeners while running.
		snapshot := append([]*Listener(nil), list...)
		for _, l := range snapshot {
			if !cur.hasListener(e.Type, l) {
				continue
			}
			l.Handle(e)
			if e.stoppedImmediate {
				break
			}
		}
		if e.stopped {
			break
		}
	}
	e.CurrentTarget = nil
}

func (el *Element) hasListener(typ string, l *Listener) bool {
	for _, existing := range el.listeners[typ] {
		if existing == l {
			return true
		}
	}
	return false
}

// Click dispatches a bubbling click event at el.
func (el *Element) Click() {
	el.Dispatch(NewEvent("click"))
}

// Focus dispatches focus (non-bubbling) followed by focusin (bubbling),
// in the order browsers fire them.
func (el *Element) Focus() {
	el.Dispatch(NewEvent("focus"))
	el.Dispatch(NewEvent("focusin"))
}

// Blur dispatches blur (non-bubbling) followed by focusout (bubbling).
func (el *Element) Blur() {
	el.Dispatch(NewEvent("blur"))
	el.Dispatch(NewEvent("focusout"))
}
