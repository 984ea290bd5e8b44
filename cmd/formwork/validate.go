package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/config"
	"github.com/aretw0/formwork/internal/presentation/tui"
	"github.com/aretw0/formwork/pkg/domain"
)

// errInvalid makes the command exit non-zero once the report is printed.
var errInvalid = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <definition> [values]",
	Short: "Validate values against a form definition",
	Long: `Loads a form definition, sets the values read from a YAML or JSON file and
validates every field. Without a values file the definition itself is checked
and every field is validated with its initial value.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		noColor, _ := cmd.Flags().GetBool("no-color")

		opts := validateOptions{
			Definition: args[0],
			Format:     format,
			Profile:    termenv.Ascii,
			Logger:     logger,
		}
		if len(args) > 1 {
			opts.Values = args[1]
		}
		if !noColor && term.IsTerminal(int(os.Stdout.Fd())) {
			opts.Profile = termenv.ColorProfile()
			opts.Styled = true
		}

		return runValidate(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("format", "f", "text", "Output format (text, markdown, json)")
	validateCmd.Flags().Bool("no-color", false, "Disable colors and markdown styling")
}

type validateOptions struct {
	Definition string
	Values     string
	Format     string
	Profile    termenv.Profile
	// Styled renders markdown for the terminal.
	Styled bool
	Logger *slog.Logger
}

// loadForm builds the form of a definition, filled with the values file if any.
func loadForm(ctx context.Context, opts validateOptions) (*config.Definition, *formwork.Form, error) {
	def, err := config.Load(opts.Definition)
	if err != nil {
		return nil, nil, err
	}
	form, err := def.NewForm(ctx, formwork.WithLogger(opts.Logger))
	if err != nil {
		return nil, nil, err
	}
	if opts.Values != "" {
		values, err := config.LoadValues(opts.Values)
		if err != nil {
			return nil, nil, err
		}
		form.SetFieldsValue(values)
	}
	return def, form, nil
}

func runValidate(ctx context.Context, out io.Writer, opts validateOptions) error {
	def, form, err := loadForm(ctx, opts)
	if err != nil {
		return err
	}

	res, err := form.Validate(ctx, domain.ValidateRequest{Options: domain.ValidateOptions{Force: true}})
	if err != nil {
		return err
	}

	report := tui.Report{Title: def.Name, Names: form.Names(), Result: res}
	switch opts.Format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	case "markdown":
		md := report.Markdown()
		if opts.Styled {
			render, err := tui.NewRenderer()
			if err != nil {
				return err
			}
			if md, err = render(md); err != nil {
				return err
			}
		}
		fmt.Fprint(out, md)
	case "text", "":
		report.Text(out, opts.Profile)
	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}

	if res.HasErrors() {
		return errInvalid
	}
	return nil
}
