package project

import (
	"strings"

	"github.com/figura-dev/figura/pkg/dom"
	"github.com/figura-dev/figura/pkg/view"
)

// Built-in method names usable in project file event tables.
const (
	MethodLog    = "log"
	MethodToggle = "toggle"
	MethodCount  = "count"
	MethodRemove = "remove"
)

// ActiveClass is the class toggled by the toggle method.
const ActiveClass = "active"

// builtins returns the named handlers available to the node's view.
func (n *Node) builtins() map[string]dom.HandlerFunc {
	return map[string]dom.HandlerFunc{
		MethodLog: func(e *dom.Event) {
			n.View.Logger().Info("event",
				"type", e.Type,
				"target", e.Target.String(),
				"delegate", e.DelegateTarget.String())
		},
		MethodToggle: func(e *dom.Event) {
			if e.DelegateTarget != nil {
				toggleClass(e.DelegateTarget, ActiveClass)
			}
		},
		MethodCount: func(*dom.Event) {
			clicks, _ := n.View.StateValue("clicks")
			n.View.SetState(view.KV("clicks", toInt(clicks)+1))
		},
		MethodRemove: func(*dom.Event) {
			n.View.Remove()
		},
	}
}

// toInt converts a numeric state value to int. State decoded from JSON
// holds float64, from YAML int; anything else counts as zero.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toggleClass(el *dom.Element, class string) {
	fields := strings.Fields(el.Attr("class"))
	out := fields[:0]
	found := false
	for _, f := range fields {
		if f == class {
			found = true
			continue
		}
		out = append(out, f)
	}
	if !found {
		out = append(out, class)
	}
	if len(out) == 0 {
		el.RemoveAttribute("class")
		return
	}
	el.SetAttribute("class", strings.Join(out, " "))
}
