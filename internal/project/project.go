// Package project builds a page and its views from a project file.
//
// A Project owns a parsed page fixture, the views declared in the project
// file and a frame queue standing in for the browser's paint loop. All
// methods serialize on the project, so a Project can back an HTTP server.
package project

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/yosssi/gohtml"

	"github.com/figura-dev/figura/internal/config"
	"github.com/figura-dev/figura/internal/errors"
	"github.com/figura-dev/figura/pkg/dom"
	"github.com/figura-dev/figura/pkg/frame"
	"github.com/figura-dev/figura/pkg/view"
)

// maxFrames bounds the frames flushed by one render, so state hooks that
// keep rescheduling cannot spin forever.
const maxFrames = 64

// Node is one declared view and its subviews.
type Node struct {
	Name     string
	Config   config.ViewConfig
	View     *view.View
	Diff     *view.DiffView
	Children []*Node

	parent  *Node
	project *Project
	content *template.Template
}

// Path returns the slash-separated names from the root node.
func (n *Node) Path() string {
	if n.parent == nil {
		return n.Name
	}
	return n.parent.Path() + "/" + n.Name
}

// Component returns the node's view as a subview component.
func (n *Node) Component() view.Component {
	if n.Diff != nil {
		return n.Diff
	}
	return n.View
}

// Project is a built page.
type Project struct {
	mu       sync.Mutex
	cfg      *config.Config
	doc      *dom.Document
	queue    *frame.Queue
	roots    []*Node
	logger   *slog.Logger
	observer view.Observer
	closed   bool
}

// Option configures a Project.
type Option func(*Project)

// WithLogger sets the logger passed to every view.
func WithLogger(l *slog.Logger) Option {
	return func(p *Project) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver sets the observer passed to every view.
func WithObserver(o view.Observer) Option {
	return func(p *Project) {
		p.observer = o
	}
}

// Build parses the page fixture and constructs every declared view. Views
// are bound but not rendered; call Render.
func Build(cfg *config.Config, opts ...Option) (*Project, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	page, err := cfg.PageHTML()
	if err != nil {
		return nil, err
	}
	doc, err := dom.ParseDocumentString(page)
	if err != nil {
		return nil, errors.New("F103").Wrap(err)
	}

	p := &Project{
		cfg:    cfg,
		doc:    doc,
		queue:  frame.NewQueue(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "project", "project", cfg.Name)

	for _, vc := range cfg.Views {
		n, err := p.build(vc, nil)
		if err != nil {
			p.closeLocked()
			return nil, err
		}
		p.roots = append(p.roots, n)
	}
	p.logger.Debug("project built", "views", len(p.roots))
	return p, nil
}

func (p *Project) build(vc config.ViewConfig, parent *Node) (*Node, error) {
	n := &Node{Name: vc.Name, Config: vc, parent: parent, project: p}

	for _, sub := range vc.Subviews {
		child, err := p.build(sub, n)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}

	if vc.Content != "" {
		tmpl, err := template.New(n.Path()).Funcs(template.FuncMap{
			"placeholder": n.placeholder,
		}).Parse(vc.Content)
		if err != nil {
			return nil, errors.New("F102").WithDetail(n.Path() + ": content: " + err.Error())
		}
		n.content = tmpl
	}

	events := make(view.Events, len(vc.Events))
	for key, method := range vc.Events {
		events[key] = view.Method(method)
	}

	var el any
	if vc.El != "" {
		el = vc.El
	}
	vcfg := view.Config{
		Class:      &view.Class{Name: vc.Class},
		El:         el,
		Events:     events,
		ChildrenEl: vc.ChildrenEl,
		Props:      vc.Props,
		Methods:    n.builtins(),
		Document:   p.doc,
		Logger:     p.logger.With("view", n.Path()),
		Observer:   p.observer,
		Hooks: view.Hooks{
			Render: func(*view.View, string, map[string]any) {
				if err := n.render(); err != nil {
					p.logger.Error("render failed", "view", n.Path(), "error", err)
				}
			},
		},
	}

	if vc.Diff {
		n.Diff = view.NewDiff(vcfg,
			view.WithFromTemplate(vc.FromTemplate),
			view.WithScheduler(p.queue))
		n.View = n.Diff.View
	} else {
		n.View = view.New(vcfg)
	}

	for _, child := range n.Children {
		if _, err := n.View.AddSubviewAs(child.Name, child.Component()); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *Node) placeholder(name string) (string, error) {
	for _, child := range n.Children {
		if child.Name == name {
			return child.View.RenderPlaceholder(), nil
		}
	}
	return "", fmt.Errorf("no subview named %q", name)
}

// templateData is what content templates see.
type templateData struct {
	Name  string
	Path  string
	UID   uint64
	Props map[string]any
	State map[string]any
}

func (n *Node) markup() (string, error) {
	if n.content == nil {
		return "", nil
	}
	var buf bytes.Buffer
	err := n.content.Execute(&buf, templateData{
		Name:  n.Name,
		Path:  n.Path(),
		UID:   n.View.UID(),
		Props: n.View.Props(),
		State: n.View.StateMap(),
	})
	if err != nil {
		return "", errors.New("F102").WithDetail(n.Path() + ": content: " + err.Error())
	}
	return buf.String(), nil
}

// render renders the node's content into its view. Diff views schedule a
// patch on the project queue; plain views replace their inner content.
func (n *Node) render() error {
	markup, err := n.markup()
	if err != nil || n.content == nil {
		return err
	}
	if n.Diff != nil {
		return n.Diff.RenderDiff(markup, nil)
	}

	el := n.View.Element()
	if el == nil {
		return nil
	}
	if err := el.SetInnerHTML(markup); err != nil {
		return errors.New("F003").Wrap(err)
	}
	n.View.SetElement(el)
	for _, key := range n.View.SubviewKeys() {
		n.View.AssignSubview(key)
	}
	return nil
}

// Render renders every view, children before parents, flushes the frame
// queue, then applies declared state. Each state key triggers its own
// render pass.
func (p *Project) Render() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}

	var firstErr error
	p.walk(func(n *Node) {
		if err := n.render(); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	p.flush()
	if firstErr != nil {
		return firstErr
	}

	p.walk(func(n *Node) {
		if len(n.Config.State) == 0 {
			return
		}
		keys := make([]string, 0, len(n.Config.State))
		for k := range n.Config.State {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]view.Entry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, view.KV(k, n.Config.State[k]))
		}
		n.View.SetState(entries...)
	})
	p.flush()
	return nil
}

func (p *Project) flush() {
	frames := 0
	for p.queue.Pending() > 0 && frames < maxFrames {
		p.queue.Flush()
		frames++
	}
	if p.queue.Pending() > 0 {
		p.logger.Warn("frame queue did not settle", "pending", p.queue.Pending())
	}
}

// walk visits nodes depth first, children before their parent.
func (p *Project) walk(fn func(*Node)) {
	var visit func(*Node)
	visit = func(n *Node) {
		for _, c := range n.Children {
			visit(c)
		}
		fn(n)
	}
	for _, r := range p.roots {
		visit(r)
	}
}

// Nodes returns the top-level nodes.
func (p *Project) Nodes() []*Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Node(nil), p.roots...)
}

// Find returns the node at the slash-separated path, or nil.
func (p *Project) Find(path string) *Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	var found *Node
	p.walk(func(n *Node) {
		if found == nil && n.Path() == path {
			found = n
		}
	})
	return found
}

// Config returns the project configuration.
func (p *Project) Config() *config.Config {
	return p.cfg
}

// Document returns the page document.
func (p *Project) Document() *dom.Document {
	return p.doc
}

// Do runs fn with the project locked, for callers that inspect views.
func (p *Project) Do(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}

// Dispatch fires event at the first element matching selector, then
// flushes any renders the handlers scheduled.
func (p *Project) Dispatch(selector, event string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !dom.ValidSelector(selector) {
		return errors.New("F102").WithDetailf("invalid selector %q", selector)
	}
	el := p.doc.QuerySelector(selector)
	if el == nil {
		return errors.Newf(errors.CategoryCLI, "no element matches %q", selector)
	}
	switch strings.ToLower(event) {
	case "focus":
		el.Focus()
	case "blur":
		el.Blur()
	default:
		el.Dispatch(dom.NewEvent(event))
	}
	p.flush()
	return nil
}

// HTML serializes the page, indented when pretty is set.
func (p *Project) HTML(pretty bool) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.doc.HTML()
	if pretty {
		out = gohtml.Format(out)
	}
	return out
}

// Close removes every view. It is safe to call more than once.
func (p *Project) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *Project) closeLocked() {
	if p.closed {
		return
	}
	p.closed = true
	for _, r := range p.roots {
		r.View.Remove()
	}
}
