// Package view provides the Figura view base: a lifecycle-managed
// component bound to one root element of a dom.Document.
//
// A View owns its root element exclusively. It delegates events from a
// declarative table, caches child elements by logical name, keeps state
// and read-only props, and owns the lifetime of its subviews.
//
// # Lifecycle
//
// A View is unbound (no root), bound (root set, events delegated,
// children cached) or removed (terminal). New binds immediately when the
// config names an element; SetElement rebinds at any time; Remove tears
// down subviews depth first, undelegates events and detaches the root.
//
// # Configuration
//
// Views are configured with data rather than subclassing:
//
//	counter := view.New(view.Config{
//	    Document: doc,
//	    El:       "#counter",
//	    Events: view.Events{
//	        "click .increment": view.On(func(e *dom.Event) { ... }),
//	        "click .reset":     view.Method("Reset"),
//	    },
//	    ChildrenEl: map[string]string{
//	        "label":    ".label",
//	        "buttons[]": "button",
//	    },
//	})
//
// Shared defaults live in a Class, whose New method builds views from it.
//
// # Diff rendering
//
// DiffView embeds View and renders markup by patching the live root
// through a Patcher (morph.Patcher by default), preserving the identity of
// unchanged elements. Patches run on a frame.Scheduler when one is
// configured.
//
// # Concurrency
//
// Views are not safe for concurrent use. All calls, and the scheduler's
// flush, must happen on one goroutine.
package view
