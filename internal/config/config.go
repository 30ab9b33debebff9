package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/figura-dev/figura/internal/errors"
	"github.com/figura-dev/figura/pkg/dom"
	"github.com/figura-dev/figura/pkg/view"
)

const (
	// DefaultAddr is the default preview server address.
	DefaultAddr = ":7070"

	// DefaultFormat is the default snapshot format.
	DefaultFormat = "json"

	// DefaultPage is the fixture used when neither page nor html is set.
	DefaultPage = "<!DOCTYPE html><html><head></head><body></body></html>"
)

// FileNames are the project file names looked up by Find, in order.
var FileNames = []string{"figura.json", "figura.yaml", "figura.yml"}

// Formats lists the accepted snapshot formats.
var Formats = []string{"json", "msgpack"}

// Config represents a figura project file.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Page is the path to an HTML fixture, relative to the project file.
	Page string `json:"page,omitempty" yaml:"page,omitempty"`

	// HTML is an inline fixture, used when Page is empty.
	HTML string `json:"html,omitempty" yaml:"html,omitempty"`

	// Views are the top-level views, built in order.
	Views []ViewConfig `json:"views,omitempty" yaml:"views,omitempty"`

	// Serve contains preview server settings.
	Serve ServeConfig `json:"serve,omitempty" yaml:"serve,omitempty"`

	// Output contains render and inspect settings.
	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ViewConfig declares one view.
type ViewConfig struct {
	// Name keys the view among its siblings. Defaults to "view<N>".
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Class names the view in logs, metrics and snapshots.
	Class string `json:"class,omitempty" yaml:"class,omitempty"`

	// El selects the root element in the page.
	El string `json:"el,omitempty" yaml:"el,omitempty"`

	// Diff renders Content with a diff view instead of setting it.
	Diff bool `json:"diff,omitempty" yaml:"diff,omitempty"`

	// FromTemplate makes Content describe the whole root element.
	// It implies Diff.
	FromTemplate bool `json:"fromTemplate,omitempty" yaml:"fromTemplate,omitempty"`

	// Events maps "<event> <selector>" keys to built-in method names.
	Events map[string]string `json:"events,omitempty" yaml:"events,omitempty"`

	// ChildrenEl maps logical names to selectors.
	ChildrenEl map[string]string `json:"childrenEl,omitempty" yaml:"childrenEl,omitempty"`

	// Props are passed to the view unchanged.
	Props map[string]any `json:"props,omitempty" yaml:"props,omitempty"`

	// State is applied with SetState after the first render.
	State map[string]any `json:"state,omitempty" yaml:"state,omitempty"`

	// Content is a text/template rendered into the view.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Subviews are owned by this view.
	Subviews []ViewConfig `json:"subviews,omitempty" yaml:"subviews,omitempty"`
}

// ServeConfig contains preview server settings.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// OutputConfig contains render and inspect settings.
type OutputConfig struct {
	// Target is a file path or an s3://bucket/key URL. Empty means stdout.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Pretty indents rendered HTML.
	Pretty bool `json:"pretty,omitempty" yaml:"pretty,omitempty"`

	// Format is the snapshot format: json or msgpack.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Load finds the project file in dir and reads it.
func Load(dir string) (*Config, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// Find returns the path of the first project file present in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.New("F100").
		WithDetail("No " + strings.Join(FileNames, ", ") + " found in " + dir).
		WithSuggestion("Create figura.yaml or pass --config")
}

// LoadFile reads the project file at path. The extension selects JSON or
// YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("F100").
				WithDetail("No project file at " + path).
				WithSuggestion("Create figura.yaml or pass --config")
		}
		return nil, errors.New("F101").Wrap(err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, yamlError(path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("F101").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// yamlError converts a yaml.v3 error into F101, pointing at the offending
// line when the message carries one.
func yamlError(path string, err error) error {
	fe := errors.New("F101").
		WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
		WithSuggestion("Check the YAML indentation and quoting")
	var line int
	msg := err.Error()
	if i := strings.Index(msg, "line "); i >= 0 {
		if _, scanErr := fmt.Sscanf(msg[i:], "line %d", &line); scanErr == nil && line > 0 {
			fe = fe.WithLocation(path, line, 1)
		}
	}
	return fe
}

// SaveTo writes the configuration to path, as YAML or JSON by extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("F101").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("F101").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Output.Format == "" {
		c.Output.Format = DefaultFormat
	}
	if c.Name == "" && c.configPath != "" {
		c.Name = filepath.Base(c.Dir())
	}
	nameViews(c.Views)
}

func nameViews(views []ViewConfig) {
	for i := range views {
		if views[i].Name == "" {
			views[i].Name = fmt.Sprintf("view%d", i+1)
		}
		if views[i].FromTemplate {
			views[i].Diff = true
		}
		nameViews(views[i].Subviews)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Page != "" && c.HTML != "" {
		return errors.New("F101").
			WithDetail("page and html are mutually exclusive")
	}
	if c.Output.Format != "" && !contains(Formats, c.Output.Format) {
		return errors.New("F301").
			WithDetailf("format %q is not one of %s", c.Output.Format, strings.Join(Formats, ", "))
	}
	return validateViews(c.Views, "views", true)
}

func validateViews(views []ViewConfig, path string, top bool) error {
	seen := make(map[string]bool, len(views))
	for i, v := range views {
		at := fmt.Sprintf("%s[%d]", path, i)
		if seen[v.Name] {
			return viewError(at, "duplicate name %q", v.Name)
		}
		seen[v.Name] = true

		switch {
		case v.FromTemplate && v.Content == "":
			return viewError(at, "fromTemplate requires content")
		case top && !v.FromTemplate && v.El == "":
			return viewError(at, "el is required")
		case v.El != "" && !dom.ValidSelector(v.El):
			return viewError(at, "invalid el selector %q", v.El)
		}

		for _, key := range sortedKeys(v.Events) {
			name, selector := view.ParseEventKey(key)
			if name == "" {
				return viewError(at, "empty event name in %q", key)
			}
			if selector != "" && !dom.ValidSelector(selector) {
				return viewError(at, "invalid selector in event %q", key)
			}
			if v.Events[key] == "" {
				return viewError(at, "event %q has no method", key)
			}
		}
		for _, name := range sortedKeys(v.ChildrenEl) {
			if !dom.ValidSelector(v.ChildrenEl[name]) {
				return viewError(at, "invalid selector for child %q", name)
			}
		}

		if err := validateViews(v.Subviews, at+".subviews", false); err != nil {
			return err
		}
	}
	return nil
}

func viewError(at, format string, args ...any) error {
	return errors.New("F102").WithDetail(at + ": " + fmt.Sprintf(format, args...))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// PageHTML returns the page fixture: the Page file, the inline HTML, or
// DefaultPage.
func (c *Config) PageHTML() (string, error) {
	if c.Page == "" {
		if c.HTML == "" {
			return DefaultPage, nil
		}
		return c.HTML, nil
	}
	path := c.Page
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.Dir(), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.New("F103").WithDetail(path).Wrap(err)
	}
	return string(data), nil
}

// PagePath returns the absolute path of the page fixture, or "".
func (c *Config) PagePath() string {
	if c.Page == "" || filepath.IsAbs(c.Page) {
		return c.Page
	}
	return filepath.Join(c.Dir(), c.Page)
}
