package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/figura-dev/figura/internal/publish"
	"github.com/figura-dev/figura/internal/snapshot"
)

func inspectCmd(g *globalFlags) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a snapshot of the view tree",
		Long: `Build and render the project, then print each view's uid,
root element, state, props, cached children, delegated events and
subviews.

Examples:
  figura inspect
  figura inspect --format msgpack --out views.msgpack`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				cfg.Output.Format = format
			}

			p, err := g.build(cfg, g.logger(cmd.ErrOrStderr()), nil)
			if err != nil {
				return err
			}
			defer p.Close()

			var buf bytes.Buffer
			if err := snapshot.Encode(&buf, cfg.Output.Format, snapshot.FromProject(p)); err != nil {
				return err
			}
			pub, err := publish.Open(cmd.Context(), out, publish.Options{Stdout: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			return pub.Publish(cmd.Context(), buf.Bytes(), snapshot.ContentType(cfg.Output.Format))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Snapshot format: json or msgpack (default from project file)")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output path, - or s3://bucket/key")

	return cmd
}
