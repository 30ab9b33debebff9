package dom

import (
	"strings"
	"testing"
)

const fixture = `<!DOCTYPE html><html><head></head><body>
<div id="outside" class="lilly"></div>
<div id="shelby">
	<div id="sasha"><span class="inner">sasha</span></div>
	<p class="lilly">one</p>
	<p class="lilly">two</p>
	<input id="field">
</div>
</body></html>`

func newFixture(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseDocumentString(fixture)
	if err != nil {
		t.Fatalf("ParseDocumentString() error: %v", err)
	}
	return doc
}

func TestDocument_QuerySelector(t *testing.T) {
	doc := newFixture(t)

	shelby := doc.QuerySelector("#shelby")
	if shelby == nil {
		t.Fatal("expected #shelby")
	}
	if shelby.Tag() != "div" || shelby.ID() != "shelby" {
		t.Errorf("got %s, want div#shelby", shelby)
	}
	if got := doc.QuerySelector("#shelby"); got != shelby {
		t.Error("expected the same *Element for the same node")
	}
	if got := len(doc.QuerySelectorAll(".lilly")); got != 3 {
		t.Errorf("len(.lilly) = %d, want 3", got)
	}
	if got := doc.QuerySelector("[[invalid"); got != nil {
		t.Errorf("invalid selector returned %s", got)
	}
	if doc.Body() == nil || doc.Body().Tag() != "body" {
		t.Error("expected body element")
	}
}

func TestQuery_ScopedToRoot(t *testing.T) {
	doc := newFixture(t)
	shelby := doc.QuerySelector("#shelby")

	tests := []struct {
		name     string
		selector string
		root     *Element
		want     int
	}{
		{"descendants only", ".lilly", shelby, 2},
		{"nested", "#sasha .inner", shelby, 1},
		{"ancestor outside root satisfies compound", "body .inner", shelby, 1},
		{"root itself excluded", "#shelby", shelby, 0},
		{"no match", ".missing", shelby, 0},
		{"empty selector", "", shelby, 0},
		{"invalid selector", "p[", shelby, 0},
		{"nil root", ".lilly", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Query(tt.selector, tt.root)
			if len(got) != tt.want {
				t.Fatalf("Query(%q) returned %d elements, want %d", tt.selector, len(got), tt.want)
			}
			for _, el := range got {
				if !tt.root.Contains(el) || el == tt.root {
					t.Errorf("%s is not a strict descendant of root", el)
				}
			}
		})
	}
}

func TestElement_MatchesAndClosest(t *testing.T) {
	doc := newFixture(t)
	inner := doc.QuerySelector(".inner")

	if !inner.Matches("span.inner") {
		t.Error("expected span.inner to match")
	}
	if inner.Matches("div") {
		t.Error("span should not match div")
	}
	if got := inner.Closest("#sasha"); got == nil || got.ID() != "sasha" {
		t.Errorf("Closest(#sasha) = %v", got)
	}
	if got := inner.Closest(".inner"); got != inner {
		t.Error("Closest should include the element itself")
	}
	if got := inner.Closest("#nope"); got != nil {
		t.Errorf("Closest(#nope) = %s, want nil", got)
	}
}

func TestElement_Mutation(t *testing.T) {
	doc := newFixture(t)
	shelby := doc.QuerySelector("#shelby")
	sasha := doc.QuerySelector("#sasha")

	created := doc.CreateElement("SECTION")
	created.SetAttribute("data-x", "1")
	if created.Tag() != "section" || created.Attr("data-x") != "1" {
		t.Fatalf("CreateElement produced %s", created.OuterHTML())
	}
	if created.Attached() {
		t.Fatal("created element should be detached")
	}

	sasha.ReplaceWith(created)
	if sasha.Attached() {
		t.Error("replaced element should be detached")
	}
	if created.Parent() != shelby {
		t.Error("replacement should take the replaced element's place")
	}

	shelby.InsertBefore(sasha, created)
	if children := shelby.Children(); children[0] != sasha || children[1] != created {
		t.Errorf("unexpected order: %v", children)
	}

	created.Remove()
	created.Remove()
	if shelby.Contains(created) {
		t.Error("removed element still contained")
	}

	created.RemoveAttribute("data-x")
	if created.HasAttribute("data-x") {
		t.Error("attribute should be removed")
	}
}

func TestElement_InnerHTMLAndClone(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("div")
	if err := el.SetInnerHTML(`<span class="hazel">0</span>`); err != nil {
		t.Fatalf("SetInnerHTML() error: %v", err)
	}
	if got := el.InnerHTML(); got != `<span class="hazel">0</span>` {
		t.Errorf("InnerHTML() = %q", got)
	}

	clone := el.Clone(true)
	if clone == el {
		t.Fatal("clone must be a different element")
	}
	if clone.OuterHTML() != el.OuterHTML() {
		t.Errorf("clone differs: %q vs %q", clone.OuterHTML(), el.OuterHTML())
	}
	shallow := el.Clone(false)
	if shallow.InnerHTML() != "" {
		t.Errorf("shallow clone has children: %q", shallow.InnerHTML())
	}

	el.SetTextContent("plain")
	if el.TextContent() != "plain" {
		t.Errorf("TextContent() = %q", el.TextContent())
	}
}

func TestDocument_ParseElement(t *testing.T) {
	doc := NewDocument()

	tests := []struct {
		name      string
		markup    string
		wantCount int
		wantEl    bool
	}{
		{"single", `<span class="hazel">1</span>`, 1, true},
		{"surrounding whitespace", "\n  <div><p>x</p></div>\n", 1, true},
		{"two siblings", `<p>a</p><p>b</p>`, 2, false},
		{"text only", `hello`, 1, false},
		{"empty", ``, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, count, err := doc.ParseElement(tt.markup)
			if err != nil {
				t.Fatalf("ParseElement() error: %v", err)
			}
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
			if (el != nil) != tt.wantEl {
				t.Errorf("element = %v, want present=%v", el, tt.wantEl)
			}
		})
	}
}

func TestDispatch_Bubbling(t *testing.T) {
	doc := newFixture(t)
	shelby := doc.QuerySelector("#shelby")
	inner := doc.QuerySelector(".inner")

	var order []string
	inner.AddEventListener("click", NewListener(func(e *Event) {
		order = append(order, "inner")
		if e.CurrentTarget != inner {
			t.Error("CurrentTarget should be inner")
		}
	}))
	shelby.AddEventListener("click", NewListener(func(e *Event) {
		order = append(order, "shelby")
		if e.Target != inner {
			t.Error("Target should stay the dispatch target")
		}
	}))

	inner.Click()
	if strings.Join(order, ",") != "inner,shelby" {
		t.Errorf("order = %v", order)
	}

	order = nil
	inner.Dispatch(NewEvent("focus"))
	if len(order) != 0 {
		t.Errorf("focus should not reach click listeners: %v", order)
	}
}

func TestDispatch_NonBubblingAndStop(t *testing.T) {
	doc := newFixture(t)
	shelby := doc.QuerySelector("#shelby")
	field := doc.QuerySelector("#field")

	var focus, focusin int
	shelby.AddEventListener("focus", NewListener(func(*Event) { focus++ }))
	shelby.AddEventListener("focusin", NewListener(func(*Event) { focusin++ }))

	field.Focus()
	if focus != 0 {
		t.Errorf("focus bubbled %d times", focus)
	}
	if focusin != 1 {
		t.Errorf("focusin = %d, want 1", focusin)
	}

	var reached bool
	shelby.AddEventListener("click", NewListener(func(*Event) { reached = true }))
	field.AddEventListener("click", NewListener(func(e *Event) { e.StopPropagation() }))
	field.Click()
	if reached {
		t.Error("StopPropagation should keep the event from the parent")
	}
}

func TestListeners_AddRemove(t *testing.T) {
	doc := newFixture(t)
	el := doc.QuerySelector("#sasha")

	calls := 0
	l := NewListener(func(*Event) { calls++ })
	el.AddEventListener("click", l)
	el.AddEventListener("click", l)
	if got := el.ListenerCount("click"); got != 1 {
		t.Fatalf("ListenerCount = %d, want 1", got)
	}

	el.Click()
	el.RemoveEventListener("click", l)
	el.RemoveEventListener("click", NewListener(nil))
	el.Click()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if got := el.ListenerCount(""); got != 0 {
		t.Errorf("ListenerCount after remove = %d", got)
	}
}

func TestDispatch_RemovalDuringDispatch(t *testing.T) {
	doc := newFixture(t)
	el := doc.QuerySelector("#sasha")

	var second *Listener
	calls := 0
	first := NewListener(func(*Event) {
		calls++
		el.RemoveEventListener("click", second)
	})
	second = NewListener(func(*Event) { calls++ })
	el.AddEventListener("click", first)
	el.AddEventListener("click", second)

	el.Click()
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (removed listener must not run)", calls)
	}
}

func TestAdopt_CrossDocument(t *testing.T) {
	page := newFixture(t)
	other := NewDocument()

	aside, _, err := other.ParseElement(`<aside><button>b</button></aside>`)
	if err != nil {
		t.Fatal(err)
	}
	button := aside.QueryOne("button")
	clicks := 0
	aside.AddEventListener("click", NewListener(func(*Event) { clicks++ }))

	page.QuerySelector("#sasha").ReplaceWith(aside)

	if aside.Document() != page || button.Document() != page {
		t.Fatal("subtree wrappers not moved into the page document")
	}
	if got := page.QuerySelector("#shelby aside"); got != aside {
		t.Errorf("page lookup returned a second wrapper %p, want %p", got, aside)
	}
	page.QuerySelector("#shelby aside button").Click()
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}
	if other.Lookup(aside.Node()) != nil {
		t.Error("source document still holds the wrapper")
	}

	moved := other.CreateElement("em")
	page.QuerySelector("#outside").AppendChild(moved)
	if moved.Document() != page || page.Lookup(moved.Node()) != moved {
		t.Error("AppendChild did not adopt the element")
	}
}

func TestDocument_Release(t *testing.T) {
	doc := newFixture(t)
	shelby := doc.QuerySelector("#shelby")
	kept := doc.QuerySelector("#sasha")
	kept.AddEventListener("click", NewListener(func(*Event) {}))
	inner := doc.QuerySelector(".inner")
	lilly := doc.QuerySelectorAll("p.lilly")

	if n := doc.Release(shelby.Node(), nil); n != 0 {
		t.Errorf("Release on an attached node dropped %d wrappers", n)
	}

	before := doc.Len()
	shelby.Remove()
	n := doc.Release(shelby.Node(), func(el *Element) bool { return el.ListenerCount("") > 0 })
	if n != 3 {
		t.Errorf("Release() = %d, want 3", n)
	}
	if doc.Len() != before-3 {
		t.Errorf("Len() = %d, want %d", doc.Len(), before-3)
	}
	if doc.Lookup(kept.Node()) != kept || doc.Lookup(inner.Node()) != inner {
		t.Error("kept subtree was released")
	}
	if doc.Lookup(lilly[0].Node()) != nil {
		t.Error("detached wrapper not released")
	}
}
