package main

import (
	"github.com/spf13/cobra"

	"github.com/figura-dev/figura/internal/publish"
	"github.com/figura-dev/figura/pkg/tracing"
)

func renderCmd(g *globalFlags) *cobra.Command {
	var (
		out    string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the page",
		Long: `Build every view declared in the project file, render it, and
write the resulting page.

The output target is a file path, "-" for stdout, or an
s3://bucket/key URL. S3 credentials come from the default AWS
configuration (environment, shared config, instance role).

Examples:
  figura render
  figura render --config site/figura.yaml --out dist/index.html --pretty
  figura render --out s3://my-bucket/preview/index.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.Output.Target = out
			}
			if cmd.Flags().Changed("pretty") {
				cfg.Output.Pretty = pretty
			}

			logger := g.logger(cmd.ErrOrStderr())
			p, err := g.build(cfg, logger, tracing.New())
			if err != nil {
				return err
			}
			defer p.Close()

			pub, err := publish.Open(cmd.Context(), cfg.Output.Target, publish.Options{Stdout: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			if err := pub.Publish(cmd.Context(), []byte(p.HTML(cfg.Output.Pretty)), "text/html; charset=utf-8"); err != nil {
				return err
			}
			if cfg.Output.Target != "" && cfg.Output.Target != "-" {
				success(cmd.ErrOrStderr(), "Rendered %s to %s", cfg.Name, cfg.Output.Target)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path, - or s3://bucket/key (default from project file)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the rendered HTML")

	return cmd
}
