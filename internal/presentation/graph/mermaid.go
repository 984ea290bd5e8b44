package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/formwork/internal/ruleindex"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/fieldpath"
)

// Overlay contains validation state to visualize on the graph.
type Overlay struct {
	Failed  []string
	Expired []string
}

// GenerateMermaid produces a Mermaid flowchart of the field tree described
// by metas. Path segments become group nodes below the "form" root.
// It applies semantic styling to the fields:
// - Validated: [/Parallelogram/], labelled with its validate triggers
// - Hidden: {{Hexagon}}
// - Default: [Rectangle]
// It also applies overlay styles (Failed/Expired) if provided.
func GenerateMermaid(metas []domain.Meta, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString("    form((\"form\"))\n")

	declared := map[string]bool{}
	for _, meta := range metas {
		segs, err := fieldpath.Parse(meta.Name)
		if err != nil {
			continue
		}

		parent := "form"
		for i := range segs {
			prefix := fieldpath.Join(segs[:i+1])
			id := sanitizeMermaidID(prefix)
			if !declared[id] {
				declared[id] = true
				if i == len(segs)-1 {
					sb.WriteString("    " + id + fieldShape(meta, segs[i].String()) + "\n")
				} else {
					sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, segs[i].String()))
				}
				sb.WriteString(fmt.Sprintf("    %s --> %s\n", parent, id))
			}
			parent = id
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef failed fill:#fee2e2,stroke:#b91c1c,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef expired fill:#fef9c3,stroke:#ca8a04,stroke-dasharray:4,color:#000;\n")
		writeClass(&sb, overlay.Failed, "failed")
		writeClass(&sb, overlay.Expired, "expired")
	}

	return sb.String()
}

func fieldShape(meta domain.Meta, label string) string {
	label = strings.ReplaceAll(label, "\"", "'")
	switch {
	case meta.Hidden:
		return fmt.Sprintf("{{\"%s\"}}", label)
	case ruleindex.HasRules(meta.Validate):
		triggers := ruleindex.Triggers(meta.Validate)
		if len(triggers) > 0 {
			label = fmt.Sprintf("%s <br/> ⚡ %s", label, strings.Join(triggers, ", "))
		}
		return fmt.Sprintf("[/\"%s\"/]", label)
	}
	return fmt.Sprintf("[\"%s\"]", label)
}

func writeClass(sb *strings.Builder, names []string, class string) {
	seen := make(map[string]bool)
	for _, name := range names {
		id := sanitizeMermaidID(name)
		if !seen[id] && id != "" {
			seen[id] = true
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", id, class))
		}
	}
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", "[", "_", "]", "")
	return "f_" + r.Replace(id)
}
