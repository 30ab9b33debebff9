// Package snapshot captures the observable shape of a view tree.
//
// A snapshot lists what a view holds: its uid, root element, state,
// props, cached children, delegated events and subviews. It is what
// "figura inspect" prints and what the preview server serves at
// /snapshot.
package snapshot

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/figura-dev/figura/internal/errors"
	"github.com/figura-dev/figura/internal/project"
	"github.com/figura-dev/figura/pkg/dom"
	"github.com/figura-dev/figura/pkg/view"
)

// Formats.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// View is the snapshot of one view.
type View struct {
	Name      string              `json:"name,omitempty" msgpack:"name,omitempty"`
	UID       uint64              `json:"uid" msgpack:"uid"`
	Class     string              `json:"class,omitempty" msgpack:"class,omitempty"`
	Lifecycle string              `json:"lifecycle" msgpack:"lifecycle"`
	Element   string              `json:"element,omitempty" msgpack:"element,omitempty"`
	State     map[string]any      `json:"state,omitempty" msgpack:"state,omitempty"`
	Props     map[string]any      `json:"props,omitempty" msgpack:"props,omitempty"`
	Children  map[string][]string `json:"children,omitempty" msgpack:"children,omitempty"`
	Events    []string            `json:"events,omitempty" msgpack:"events,omitempty"`
	Subviews  []View              `json:"subviews,omitempty" msgpack:"subviews,omitempty"`
}

// Page is the snapshot of a project.
type Page struct {
	Name  string `json:"name,omitempty" msgpack:"name,omitempty"`
	Views []View `json:"views" msgpack:"views"`
}

type baser interface {
	Base() *view.View
}

// Take captures v and, recursively, its subviews. Subviews that do not
// expose a base view are recorded with their uid and element only.
func Take(v *view.View) View {
	s := View{
		UID:       v.UID(),
		Class:     v.ClassName(),
		Lifecycle: v.State().String(),
		Element:   describe(v.Element()),
		Events:    v.Bindings(),
	}
	if m := v.StateMap(); len(m) > 0 {
		s.State = m
	}
	if m := v.Props(); len(m) > 0 {
		s.Props = m
	}

	names := v.ChildNames()
	if len(names) > 0 {
		s.Children = make(map[string][]string, len(names))
		for _, name := range names {
			els := v.Children(name)
			out := make([]string, 0, len(els))
			for _, el := range els {
				out = append(out, describe(el))
			}
			s.Children[name] = out
		}
	}

	for _, key := range v.SubviewKeys() {
		c, ok := v.Subview(key)
		if !ok {
			continue
		}
		var sub View
		if b, ok := c.(baser); ok {
			sub = Take(b.Base())
		} else {
			sub = View{UID: c.UID(), Element: describe(c.Element())}
		}
		sub.Name = key
		s.Subviews = append(s.Subviews, sub)
	}
	return s
}

// FromProject captures every view of p.
func FromProject(p *project.Project) Page {
	page := Page{Name: p.Config().Name, Views: []View{}}
	nodes := p.Nodes()
	p.Do(func() {
		for _, n := range nodes {
			s := Take(n.View)
			s.Name = n.Name
			page.Views = append(page.Views, s)
		}
	})
	return page
}

func describe(el *dom.Element) string {
	if el == nil {
		return ""
	}
	return el.String()
}

// Encode writes v to w in format.
func Encode(w io.Writer, format string, v any) error {
	var err error
	switch format {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		err = enc.Encode(v)
	default:
		return unknownFormat(format)
	}
	if err != nil {
		return errors.New("F300").Wrap(err)
	}
	return nil
}

// Decode reads a page snapshot from r.
func Decode(r io.Reader, format string) (Page, error) {
	var (
		page Page
		err  error
	)
	switch format {
	case "", FormatJSON:
		err = json.NewDecoder(r).Decode(&page)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&page)
	default:
		return page, unknownFormat(format)
	}
	if err != nil {
		return page, errors.New("F300").Wrap(err)
	}
	return page, nil
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	if format == FormatMsgpack {
		return "application/msgpack"
	}
	return "application/json"
}

func unknownFormat(format string) error {
	return errors.New("F301").
		WithDetailf("format %q is not one of %s, %s", format, FormatJSON, FormatMsgpack).
		WithSuggestion("Use --format json or --format msgpack")
}

// SubviewNames returns the subview names of s, sorted.
func (s View) SubviewNames() []string {
	names := make([]string, 0, len(s.Subviews))
	for _, sub := range s.Subviews {
		names = append(names, sub.Name)
	}
	sort.Strings(names)
	return names
}
