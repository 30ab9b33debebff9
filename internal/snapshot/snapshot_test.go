package snapshot

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/figura-dev/figura/internal/config"
	"github.com/figura-dev/figura/internal/errors"
	"github.com/figura-dev/figura/internal/project"
	"github.com/figura-dev/figura/pkg/dom"
	"github.com/figura-dev/figura/pkg/view"
)

func newView(t *testing.T) *view.View {
	t.Helper()
	doc, err := dom.ParseDocumentString(`<div id="root"><span class="item">a</span><span class="item">b</span><p id="only"></p></div>`)
	if err != nil {
		t.Fatal(err)
	}
	v := view.New(view.Config{
		Class:      &view.Class{Name: "List"},
		El:         "#root",
		Document:   doc,
		Events:     view.Events{"click .item": view.On(func(*dom.Event) {})},
		ChildrenEl: map[string]string{"items[]": ".item", "only": "#only"},
		Props:      map[string]any{"title": "Inbox"},
	})
	t.Cleanup(v.Remove)
	return v
}

func TestTake(t *testing.T) {
	v := newView(t)
	v.SetState(view.KV("open", true))

	sub := view.New(view.Config{Class: &view.Class{Name: "Badge"}})
	if _, err := v.AddSubviewAs("badge", sub); err != nil {
		t.Fatal(err)
	}

	s := Take(v)
	if s.UID != v.UID() || s.Class != "List" || s.Lifecycle != "bound" {
		t.Errorf("header = %+v", s)
	}
	if s.Element != "div#root" {
		t.Errorf("Element = %q", s.Element)
	}
	if !reflect.DeepEqual(s.Events, []string{"click .item"}) {
		t.Errorf("Events = %v", s.Events)
	}
	if s.State["open"] != true || s.Props["title"] != "Inbox" {
		t.Errorf("State = %v, Props = %v", s.State, s.Props)
	}
	wantChildren := map[string][]string{
		"items": {"span.item", "span.item"},
		"only":  {"p#only"},
	}
	if !reflect.DeepEqual(s.Children, wantChildren) {
		t.Errorf("Children = %v, want %v", s.Children, wantChildren)
	}
	if len(s.Subviews) != 1 {
		t.Fatalf("len(Subviews) = %d, want 1", len(s.Subviews))
	}
	if got := s.Subviews[0]; got.Name != "badge" || got.UID != sub.UID() || got.Lifecycle != "unbound" {
		t.Errorf("subview = %+v", got)
	}
}

func TestTakeRemoved(t *testing.T) {
	v := newView(t)
	v.Remove()

	s := Take(v)
	if s.Lifecycle != "removed" || s.Element != "" || len(s.Events) != 0 {
		t.Errorf("removed snapshot = %+v", s)
	}
}

func TestEncode(t *testing.T) {
	page := Page{Name: "demo", Views: []View{Take(newView(t))}}

	for _, format := range []string{FormatJSON, FormatMsgpack} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, format, page); err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			got, err := Decode(&buf, format)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if got.Name != "demo" || len(got.Views) != 1 || got.Views[0].Element != "div#root" {
				t.Errorf("decoded = %+v", got)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		err := Encode(&bytes.Buffer{}, "xml", page)
		var fe *errors.FiguraError
		if !errors.As(err, &fe) || fe.Code != "F301" {
			t.Errorf("Encode error = %v, want F301", err)
		}
	})

	t.Run("unencodable", func(t *testing.T) {
		err := Encode(&bytes.Buffer{}, FormatJSON, map[string]any{"ch": make(chan int)})
		var fe *errors.FiguraError
		if !errors.As(err, &fe) || fe.Code != "F300" {
			t.Errorf("Encode error = %v, want F300", err)
		}
	})
}

func TestFromProject(t *testing.T) {
	cfg := &config.Config{
		Name: "demo",
		HTML: `<div id="app"></div>`,
		Views: []config.ViewConfig{{
			Name:    "app",
			El:      "#app",
			Diff:    true,
			Content: `<p>{{ .Name }}</p>{{ placeholder "side" }}`,
			Subviews: []config.ViewConfig{
				{Name: "side", FromTemplate: true, Diff: true, Content: `<aside></aside>`},
			},
		}},
	}
	p, err := project.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.Render(); err != nil {
		t.Fatal(err)
	}

	page := FromProject(p)
	if page.Name != "demo" || len(page.Views) != 1 {
		t.Fatalf("page = %+v", page)
	}
	app := page.Views[0]
	if app.Name != "app" || app.Element != "div#app" {
		t.Errorf("app = %+v", app)
	}
	if got := app.SubviewNames(); !reflect.DeepEqual(got, []string{"side"}) {
		t.Errorf("SubviewNames() = %v", got)
	}
	if app.Subviews[0].Element != "aside" {
		t.Errorf("side element = %q, want aside", app.Subviews[0].Element)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, FormatJSON, page); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"lifecycle": "bound"`) {
		t.Errorf("JSON = %s", buf.String())
	}
}
