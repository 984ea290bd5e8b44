package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/formwork/internal/presentation/graph"
	"github.com/aretw0/formwork/pkg/domain"
)

var graphCmd = &cobra.Command{
	Use:   "graph <definition> [values]",
	Short: "Print the field tree of a definition as a Mermaid flowchart",
	Long: `Prints the fields of a definition grouped by path. With a values file the
fields are validated first and the failing ones are highlighted.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		opts := validateOptions{Definition: args[0], Logger: logger}
		if len(args) > 1 {
			opts.Values = args[1]
		}

		_, form, err := loadForm(cmd.Context(), opts)
		if err != nil {
			return err
		}

		var metas []domain.Meta
		for _, name := range form.Names() {
			if meta, ok := form.Meta(name); ok {
				metas = append(metas, meta)
			}
		}

		var overlay *graph.Overlay
		if opts.Values != "" {
			res, err := form.Validate(cmd.Context(), domain.ValidateRequest{Options: domain.ValidateOptions{Force: true}})
			if err != nil {
				return err
			}
			overlay = &graph.Overlay{Expired: res.Expired()}
			for _, name := range form.Names() {
				if fe, ok := res.Errors[name]; ok && !fe.Expired {
					overlay.Failed = append(overlay.Failed, name)
				}
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(metas, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
