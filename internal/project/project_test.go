package project

import (
	"strings"
	"testing"

	"github.com/figura-dev/figura/internal/config"
	"github.com/figura-dev/figura/internal/errors"
	"github.com/figura-dev/figura/pkg/view"
)

const fixture = `<!DOCTYPE html><html><head></head><body>
<div id="app"><ul><li class="item">a</li><li class="item">b</li></ul></div>
<div id="counter"></div>
<div id="panel"><button class="close">x</button></div>
</body></html>`

const appContent = `<h1>{{ .Props.title }}</h1>{{ placeholder "side" }}<button class="item">x</button>`

func appConfig() *config.Config {
	return &config.Config{
		Name: "demo",
		HTML: fixture,
		Views: []config.ViewConfig{
			{
				Name:    "app",
				Class:   "App",
				El:      "#app",
				Diff:    true,
				Events:  map[string]string{"click .item": MethodToggle},
				Props:   map[string]any{"title": "Inbox"},
				Content: appContent,
				Subviews: []config.ViewConfig{
					{Name: "side", FromTemplate: true, Diff: true, Content: `<aside id="side">menu</aside>`},
				},
			},
			{
				Name:    "counter",
				El:      "#counter",
				Events:  map[string]string{"click .inc": MethodCount},
				State:   map[string]any{"clicks": 5},
				Content: `<button class="inc">+</button><span class="n">{{ with .State.clicks }}{{ . }}{{ else }}0{{ end }}</span>`,
			},
			{
				Name:   "panel",
				El:     "#panel",
				Events: map[string]string{"click .close": MethodRemove},
			},
		},
	}
}

func build(t *testing.T, cfg *config.Config) *Project {
	t.Helper()
	p, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestRender(t *testing.T) {
	p := build(t, appConfig())
	if err := p.Render(); err != nil {
		t.Fatalf("Render error: %v", err)
	}

	html := p.HTML(false)
	for _, want := range []string{
		`<h1>Inbox</h1>`,
		`<aside id="side">menu</aside>`,
		`<span class="n">5</span>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %s:\n%s", want, html)
		}
	}
	if strings.Contains(html, view.PlaceholderAttr) {
		t.Errorf("placeholder left in page:\n%s", html)
	}
	if strings.Contains(html, `<li class="item">`) {
		t.Errorf("old content not patched away:\n%s", html)
	}
}

func TestFind(t *testing.T) {
	p := build(t, appConfig())

	side := p.Find("app/side")
	if side == nil {
		t.Fatal("Find(app/side) = nil")
	}
	if side.Path() != "app/side" || side.Diff == nil || !side.Diff.FromTemplate() {
		t.Errorf("side = %+v", side)
	}
	app := p.Find("app")
	if got, ok := app.View.Subview("side"); !ok || got.UID() != side.View.UID() {
		t.Errorf("app subview side = %v, %v", got, ok)
	}
	if p.Find("nope") != nil {
		t.Error("Find(nope) should be nil")
	}
	if len(p.Nodes()) != 3 {
		t.Errorf("len(Nodes()) = %d, want 3", len(p.Nodes()))
	}
}

func TestDispatch(t *testing.T) {
	p := build(t, appConfig())
	if err := p.Render(); err != nil {
		t.Fatal(err)
	}

	t.Run("toggle", func(t *testing.T) {
		if err := p.Dispatch("#app button.item", "click"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(p.HTML(false), `class="item active"`) {
			t.Errorf("toggle did not add %q", ActiveClass)
		}
		if err := p.Dispatch("#app button.item", "click"); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(p.HTML(false), `active`) {
			t.Errorf("second toggle did not remove %q", ActiveClass)
		}
	})

	t.Run("count", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := p.Dispatch("#counter .inc", "click"); err != nil {
				t.Fatal(err)
			}
		}
		counter := p.Find("counter")
		if got, _ := counter.View.StateValue("clicks"); got != 7 {
			t.Errorf("clicks = %v, want 7", got)
		}
		if !strings.Contains(p.HTML(false), `<span class="n">7</span>`) {
			t.Errorf("counter not re-rendered:\n%s", p.HTML(false))
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := p.Dispatch("#panel .close", "click"); err != nil {
			t.Fatal(err)
		}
		panel := p.Find("panel")
		if !panel.View.Removed() {
			t.Error("panel view not removed")
		}
		if strings.Contains(p.HTML(false), `id="panel"`) {
			t.Error("panel element still in page")
		}
	})

	t.Run("errors", func(t *testing.T) {
		err := p.Dispatch("[[", "click")
		var fe *errors.FiguraError
		if !errors.As(err, &fe) || fe.Code != "F102" {
			t.Errorf("invalid selector error = %v, want F102", err)
		}
		if err := p.Dispatch("#missing", "click"); err == nil {
			t.Error("Dispatch on a missing element should fail")
		}
	})
}

func TestCountNumericState(t *testing.T) {
	tests := []struct {
		name  string
		start any
	}{
		{"int", 5},
		{"int64", int64(5)},
		{"float64 from json", float64(5)},
		{"uint", uint(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := appConfig()
			cfg.Views[1].State = map[string]any{"clicks": tt.start}
			p := build(t, cfg)
			if err := p.Render(); err != nil {
				t.Fatal(err)
			}
			if err := p.Dispatch("#counter .inc", "click"); err != nil {
				t.Fatal(err)
			}
			if got, _ := p.Find("counter").View.StateValue("clicks"); got != 6 {
				t.Errorf("clicks = %v (%T), want 6", got, got)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		code   string
	}{
		{
			name:   "bad template",
			mutate: func(c *config.Config) { c.Views[1].Content = "{{ .Broken" },
			code:   "F102",
		},
		{
			name:   "missing page",
			mutate: func(c *config.Config) { c.HTML = ""; c.Page = "does-not-exist.html" },
			code:   "F103",
		},
		{
			name:   "invalid view",
			mutate: func(c *config.Config) { c.Views[2].El = "" },
			code:   "F102",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := appConfig()
			tt.mutate(cfg)
			_, err := Build(cfg)
			var fe *errors.FiguraError
			if !errors.As(err, &fe) || fe.Code != tt.code {
				t.Errorf("Build() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRenderUnknownPlaceholder(t *testing.T) {
	cfg := appConfig()
	cfg.Views[0].Content = `{{ placeholder "missing" }}`
	p := build(t, cfg)

	err := p.Render()
	var fe *errors.FiguraError
	if !errors.As(err, &fe) || fe.Code != "F102" {
		t.Errorf("Render() error = %v, want F102", err)
	}
}

func TestHTMLPretty(t *testing.T) {
	p := build(t, appConfig())
	if err := p.Render(); err != nil {
		t.Fatal(err)
	}
	pretty := p.HTML(true)
	if !strings.Contains(pretty, "\n") || !strings.Contains(pretty, "Inbox") {
		t.Errorf("pretty HTML = %q", pretty)
	}
}

func TestClose(t *testing.T) {
	p, err := Build(appConfig())
	if err != nil {
		t.Fatal(err)
	}
	side := p.Find("app/side")

	p.Close()
	p.Close()

	for _, n := range p.Nodes() {
		if !n.View.Removed() {
			t.Errorf("%s not removed", n.Path())
		}
	}
	if !side.View.Removed() {
		t.Error("subview not removed with its parent")
	}
	if err := p.Render(); err != nil {
		t.Errorf("Render after Close = %v", err)
	}
}
