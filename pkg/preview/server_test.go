package preview

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/figura-dev/figura/internal/config"
	"github.com/figura-dev/figura/internal/project"
	"github.com/figura-dev/figura/internal/snapshot"
	"github.com/figura-dev/figura/pkg/metrics"
)

func counterConfig() *config.Config {
	return &config.Config{
		Name: "preview",
		HTML: `<html><body><div id="counter"></div></body></html>`,
		Views: []config.ViewConfig{{
			Name:    "counter",
			Class:   "Counter",
			El:      "#counter",
			Events:  map[string]string{"click .inc": project.MethodCount},
			Content: `<button class="inc">+</button><span>{{ with .State.clicks }}{{ . }}{{ else }}0{{ end }}</span>`,
		}},
	}
}

type fixture struct {
	server *Server
	http   *httptest.Server
	loads  atomic.Int32
	reg    *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{reg: prometheus.NewRegistry()}
	obs := metrics.New(metrics.WithRegistry(f.reg))

	s, err := New(Options{
		Load: func() (*project.Project, error) {
			f.loads.Add(1)
			p, err := project.Build(counterConfig(), project.WithObserver(obs))
			if err != nil {
				return nil, err
			}
			return p, p.Render()
		},
		Gatherer: f.reg,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	f.server = s
	f.http = httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		f.http.Close()
		s.Close()
	})
	return f
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(f.http.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, string(out)
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	msg := readMessage(t, conn)
	if msg.Type != MessageHello || msg.ClientID == "" {
		t.Fatalf("first message = %+v, want hello with a client id", msg)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	return msg
}

func TestPage(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %s", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, `<button class="inc">+</button>`) {
		t.Errorf("page not rendered:\n%s", body)
	}
	if strings.Index(body, "new WebSocket") > strings.Index(body, "</body>") {
		t.Errorf("client script not injected before </body>:\n%s", body)
	}
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/snapshot")
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %s", resp.Header.Get("Content-Type"))
	}
	page, err := snapshot.Decode(strings.NewReader(body), snapshot.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Views) != 1 || page.Views[0].Class != "Counter" {
		t.Errorf("snapshot = %+v", page)
	}

	resp, body = f.get(t, "/snapshot?format=msgpack")
	if resp.Header.Get("Content-Type") != "application/msgpack" {
		t.Errorf("Content-Type = %s", resp.Header.Get("Content-Type"))
	}
	if _, err := snapshot.Decode(strings.NewReader(body), snapshot.FormatMsgpack); err != nil {
		t.Errorf("msgpack decode error: %v", err)
	}

	resp, _ = f.get(t, "/snapshot?format=xml")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", resp.StatusCode)
	}
}

func TestDispatch(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	resp, body := f.post(t, "/dispatch", `{"selector": "#counter .inc", "event": "click"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var out DispatchResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil || out.Clients != 1 {
		t.Errorf("response = %s", body)
	}

	msg := readMessage(t, conn)
	if msg.Type != MessageUpdate || msg.Event != "click" {
		t.Errorf("message = %+v", msg)
	}
	if !strings.Contains(msg.HTML, "<span>1</span>") {
		t.Errorf("update HTML = %s", msg.HTML)
	}

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing event", `{"selector": "#counter"}`},
		{"no match", `{"selector": "#nope", "event": "click"}`},
		{"bad selector", `{"selector": "[[", "event": "click"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := f.post(t, "/dispatch", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestReload(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	old := f.server.Project()

	resp, _ := f.post(t, "/reload", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if msg := readMessage(t, conn); msg.Type != MessageReload {
		t.Errorf("message = %+v, want reload", msg)
	}
	if n := f.loads.Load(); n != 2 {
		t.Errorf("loads = %d, want 2", n)
	}
	if f.server.Project() == old {
		t.Error("project not replaced")
	}
	if !old.Nodes()[0].View.Removed() {
		t.Error("old project views not removed")
	}
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/dispatch", `{"selector": "#counter .inc", "event": "click"}`)

	_, body := f.get(t, "/metrics")
	for _, want := range []string{
		`figura_views_created_total{class="Counter"} 1`,
		`figura_events_handled_total{event="click"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	h := NewHub(nil)
	h.Broadcast(Message{Type: MessageReload})
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d", h.ClientCount())
	}
}

func TestNewLoadError(t *testing.T) {
	_, err := New(Options{Load: func() (*project.Project, error) {
		return nil, fmt.Errorf("boom")
	}})
	if err == nil || err.Error() != "boom" {
		t.Errorf("New error = %v, want boom", err)
	}
}
