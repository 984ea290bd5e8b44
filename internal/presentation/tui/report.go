package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/formwork/pkg/domain"
)

// Report is the outcome of validating a set of fields.
type Report struct {
	Title  string
	Names  []string
	Result domain.Result
}

// Status of a field in a report.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
	StatusExpired = "expired"
)

func (r Report) status(name string) (string, []string) {
	fe, ok := r.Result.Errors[name]
	if !ok || len(fe.Errors) == 0 {
		return StatusValid, nil
	}
	msgs := make([]string, len(fe.Errors))
	for i, e := range fe.Errors {
		msgs[i] = e.Message
	}
	if fe.Expired {
		return StatusExpired, msgs
	}
	return StatusInvalid, msgs
}

// Text writes one line per field, colored with profile.
func (r Report) Text(w io.Writer, profile termenv.Profile) {
	if r.Title != "" {
		fmt.Fprintln(w, profile.String(r.Title).Bold())
	}
	for _, name := range r.Names {
		status, msgs := r.status(name)
		switch status {
		case StatusValid:
			fmt.Fprintf(w, "%s %s\n", profile.String("✓").Foreground(profile.Color("#22c55e")), name)
		case StatusExpired:
			fmt.Fprintf(w, "%s %s\n", profile.String("…").Foreground(profile.Color("#eab308")), name)
		default:
			fmt.Fprintf(w, "%s %s\n", profile.String("✗").Foreground(profile.Color("#ef4444")), name)
			for _, msg := range msgs {
				fmt.Fprintf(w, "    %s\n", profile.String(msg).Foreground(profile.Color("#ef4444")))
			}
		}
	}
}

// Markdown renders the report as a markdown table.
func (r Report) Markdown() string {
	var sb strings.Builder
	if r.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", r.Title)
	}
	sb.WriteString("| Field | Status | Errors |\n|---|---|---|\n")
	for _, name := range r.Names {
		status, msgs := r.status(name)
		fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", name, status, strings.ReplaceAll(strings.Join(msgs, "; "), "|", "\\|"))
	}
	return sb.String()
}
