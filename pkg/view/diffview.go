package view

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"
	"golang.org/x/net/html"

	"github.com/figura-dev/figura/pkg/dom"
	"github.com/figura-dev/figura/pkg/frame"
	"github.com/figura-dev/figura/pkg/morph"
)

// Patcher mutates from in place to match to.
type Patcher interface {
	Patch(from, to *dom.Element, opts morph.Options) morph.Stats
}

// PatchFunc adapts a function to Patcher.
type PatchFunc func(from, to *dom.Element, opts morph.Options) morph.Stats

// Patch calls f.
func (f PatchFunc) Patch(from, to *dom.Element, opts morph.Options) morph.Stats {
	return f(from, to, opts)
}

// DiffView is a view that renders by patching its root in place instead
// of replacing its content, so unchanged elements keep their identity.
type DiffView struct {
	*View

	fromTemplate bool
	patcher      Patcher
	scheduler    frame.Scheduler
	ready        bool
}

// DiffOption configures a DiffView.
type DiffOption func(*DiffView)

// WithFromTemplate makes rendered content describe the whole root element
// rather than its inner content.
func WithFromTemplate(fromTemplate bool) DiffOption {
	return func(d *DiffView) {
		d.fromTemplate = fromTemplate
	}
}

// WithPatcher replaces the default morph patcher.
func WithPatcher(p Patcher) DiffOption {
	return func(d *DiffView) {
		if p != nil {
			d.patcher = p
		}
	}
}

// WithScheduler defers patches to s. Without it patches apply
// synchronously.
func WithScheduler(s frame.Scheduler) DiffOption {
	return func(d *DiffView) {
		if s != nil {
			d.scheduler = s
		}
	}
}

// NewDiff constructs a DiffView.
func NewDiff(cfg Config, opts ...DiffOption) *DiffView {
	d := &DiffView{
		View:      New(cfg),
		patcher:   morph.Patcher{},
		scheduler: frame.Immediate{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FromTemplate reports whether content describes the whole root.
func (d *DiffView) FromTemplate() bool {
	return d.fromTemplate
}

// RenderDiff renders content into the view. Content is parsed right away,
// so markup errors surface to the caller; the patch itself runs on the
// scheduler, after which placeholders are reassigned and cb runs.
//
// With fromTemplate, content must be exactly one element. The first
// render adopts it as the root, taking the old root's place in the tree.
// Later renders patch the existing root against it. Without fromTemplate,
// content replaces the inner content of the root, and rendering an
// unbound view does nothing.
func (d *DiffView) RenderDiff(content string, cb func()) error {
	if d.removed {
		return nil
	}
	done := d.observer.DiffRender(d.View, d.fromTemplate)

	target, err := d.parse(content)
	if err != nil {
		done(0, err)
		return err
	}
	if target == nil {
		done(0, nil)
		return nil
	}

	d.scheduler.RequestFrame(func() {
		d.apply(target, cb, done)
	})
	return nil
}

// RenderDiffComponent renders c and passes the markup to RenderDiff.
func (d *DiffView) RenderDiffComponent(ctx context.Context, c templ.Component, cb func()) error {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return fmt.Errorf("view: render component: %w", err)
	}
	return d.RenderDiff(buf.String(), cb)
}

func (d *DiffView) parse(content string) (*dom.Element, error) {
	if d.fromTemplate {
		if d.doc == nil {
			d.doc = dom.NewDocument()
		}
		el, count, err := d.Document().ParseElement(content)
		if err != nil {
			return nil, parseError(err)
		}
		if el == nil {
			return nil, structuralError(count)
		}
		return el, nil
	}

	if d.el == nil {
		return nil, nil
	}
	clone := d.el.Clone(false)
	if err := clone.SetInnerHTML(content); err != nil {
		return nil, parseError(err)
	}
	return clone, nil
}

func (d *DiffView) apply(target *dom.Element, cb func(), done func(int, error)) {
	if d.removed {
		done(0, nil)
		return
	}

	if d.fromTemplate && (!d.ready || d.el == nil) {
		d.ready = true
		if old := d.el; old != nil {
			old.ReplaceWith(target)
		}
		d.SetElement(target)
		d.assignPlaceholders()
		d.logger.Debug("template adopted", "element", target.String())
		if cb != nil {
			cb()
		}
		done(1, nil)
		return
	}
	if d.el == nil {
		done(0, nil)
		return
	}

	d.ready = true
	updated := false
	frozen := d.placedRoots()
	var discarded []*html.Node
	st := d.patcher.Patch(d.el, target, morph.Options{
		ChildrenOnly: !d.fromTemplate,
		Frozen:       func(n *html.Node) bool { return frozen[n] },
		OnNodeDiscarded: func(n *html.Node) {
			discarded = append(discarded, n)
		},
		OnElementUpdated: func(*dom.Element) {
			updated = true
			d.afterPatch(cb)
		},
	})
	if !updated {
		d.afterPatch(cb)
	}
	d.release(target, discarded)
	d.logger.Debug("diff applied", "mutations", st.Total())
	done(st.Total(), nil)
}

// release drops the wrappers left behind by a patch: the consumed target
// and the live nodes the patch discarded. Roots still owned by a view,
// and elements with listeners, are kept.
func (d *DiffView) release(target *dom.Element, discarded []*html.Node) {
	doc := target.Document()
	doc.Release(target.Node(), nil)
	if d.el == nil {
		return
	}
	live := d.el.Document()
	for _, n := range discarded {
		live.Release(n, retained)
	}
}

func retained(el *dom.Element) bool {
	return OwnerOf(el) != nil || el.ListenerCount("") > 0
}

func (d *DiffView) afterPatch(cb func()) {
	d.assignPlaceholders()
	d.CacheChildrenEl(nil)
	if cb != nil {
		cb()
	}
}
