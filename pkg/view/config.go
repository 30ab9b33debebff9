package view

import (
	"log/slog"

	"github.com/figura-dev/figura/pkg/dom"
)

// Hooks are the overridable steps of a view's lifecycle. Nil hooks are
// skipped.
type Hooks struct {
	// Initialize runs once at the end of construction.
	Initialize func(v *View)

	// Render runs once per changed state key after SetState.
	Render func(v *View, key string, state map[string]any)

	// TransformProp maps each prop value before it is stored.
	TransformProp func(key string, value any) any

	// TransformState maps each state value before it is merged.
	TransformState func(key string, value any) any
}

// merge returns h with nil fields filled from base.
func (h Hooks) merge(base Hooks) Hooks {
	if h.Initialize == nil {
		h.Initialize = base.Initialize
	}
	if h.Render == nil {
		h.Render = base.Render
	}
	if h.TransformProp == nil {
		h.TransformProp = base.TransformProp
	}
	if h.TransformState == nil {
		h.TransformState = base.TransformState
	}
	return h
}

// Class holds the defaults shared by a family of views.
type Class struct {
	// Name identifies the class in logs and snapshots.
	Name string

	// Events is the default delegation table.
	Events Events

	// ChildrenEl is the default children map.
	ChildrenEl map[string]string

	// Props are default props. Config props are merged over them.
	Props map[string]any

	// Methods are default named handlers.
	Methods map[string]dom.HandlerFunc

	// Hooks are the default lifecycle hooks.
	Hooks Hooks
}

// New builds a view from the class defaults and cfg.
func (c *Class) New(cfg Config) *View {
	cfg.Class = c
	return New(cfg)
}

// NewDiff builds a diff-rendering view from the class defaults and cfg.
func (c *Class) NewDiff(cfg Config, opts ...DiffOption) *DiffView {
	cfg.Class = c
	return NewDiff(cfg, opts...)
}

// Config configures a single view.
type Config struct {
	// Class supplies defaults. Optional.
	Class *Class

	// El is the root element: a selector resolved against Document, or a
	// *dom.Element. Anything else leaves the view unbound.
	El any

	// Events replaces the class delegation table when non-nil.
	Events Events

	// ChildrenEl replaces the class children map when non-nil.
	ChildrenEl map[string]string

	// Props are merged over the class props.
	Props map[string]any

	// Methods are merged over the class methods.
	Methods map[string]dom.HandlerFunc

	// Receiver exposes its exported func(*dom.Event) methods as named
	// handlers, after Methods.
	Receiver any

	// Hooks override the class hooks field by field.
	Hooks Hooks

	// Document resolves selector elements. Defaults to the document of
	// El when El is an element.
	Document *dom.Document

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Observer receives lifecycle notifications. Optional.
	Observer Observer
}
