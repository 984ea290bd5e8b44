package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/formwork/internal/presentation/graph"
	"github.com/aretw0/formwork/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	rules := []domain.ValidateRule{{Rules: []domain.Rule{"required"}, Trigger: []string{"onChange", "onBlur"}}}

	tests := []struct {
		name     string
		metas    []domain.Meta
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name:  "Plain Field Shape",
			metas: []domain.Meta{{Name: "note"}},
			contains: []string{
				`f_note["note"]`,
				"form --> f_note",
			},
		},
		{
			name:  "Validated Field Shape",
			metas: []domain.Meta{{Name: "email", Validate: rules}},
			contains: []string{
				`f_email[/"email <br/> ⚡ onChange, onBlur"/]`,
			},
		},
		{
			name:  "Hidden Field Shape",
			metas: []domain.Meta{{Name: "token", Hidden: true}},
			contains: []string{
				`f_token{{"token"}}`,
			},
		},
		{
			name: "Groups Are Shared",
			metas: []domain.Meta{
				{Name: "user.name"},
				{Name: "user.tags[0]"},
			},
			contains: []string{
				`f_user["user"]`,
				"form --> f_user",
				"f_user --> f_user_name",
				"f_user --> f_user_tags",
				"f_user_tags --> f_user_tags_0",
				`f_user_tags_0["[0]"]`,
			},
		},
		{
			name:     "Overlay",
			metas:    []domain.Meta{{Name: "a"}, {Name: "b"}},
			overlay:  &graph.Overlay{Failed: []string{"a", "a"}, Expired: []string{"b"}},
			contains: []string{"class f_a failed;", "class f_b expired;"},
		},
		{
			name:     "Malformed Names Are Skipped",
			metas:    []domain.Meta{{Name: "a..b"}},
			excludes: []string{"a..b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.metas, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
			if strings.Count(got, "form --> f_user\n") > 1 {
				t.Errorf("group declared twice:\n%v", got)
			}
		})
	}
}
