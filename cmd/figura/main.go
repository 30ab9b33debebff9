package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/figura-dev/figura/internal/config"
	"github.com/figura-dev/figura/internal/errors"
	"github.com/figura-dev/figura/internal/project"
	"github.com/figura-dev/figura/pkg/view"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config  string
	verbose bool
	noColor bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "figura",
		Short: "Build and inspect DOM views",
		Long: `Figura builds views on an HTML page from a project file.

Views own a root element, delegate events to it, cache named
children and patch their content with a DOM diff. The CLI renders
the resulting page, prints a snapshot of the view tree, or serves
a live preview.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				errors.DisableColors()
			}
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&g.config, "config", "c", "", "Project file or directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log view lifecycle at debug level")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		renderCmd(g),
		inspectCmd(g),
		serveCmd(g),
		versionCmd(),
	)
	return rootCmd
}

// logger returns a text logger on w, at debug level when verbose.
func (g *globalFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the project file named by --config. A directory is
// searched for the default file names.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	path := g.config
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return config.Load(path)
	}
	return config.LoadFile(filepath.Clean(path))
}

// build builds and renders the project described by cfg.
func (g *globalFlags) build(cfg *config.Config, logger *slog.Logger, obs view.Observer) (*project.Project, error) {
	p, err := project.Build(cfg, project.WithLogger(logger), project.WithObserver(obs))
	if err != nil {
		return nil, err
	}
	if err := p.Render(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
