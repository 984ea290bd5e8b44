package fieldpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/fieldpath"
)

func TestParse(t *testing.T) {
	t.Run("Valid Paths", func(t *testing.T) {
		tests := map[string][]fieldpath.Segment{
			"a":   {fieldpath.Key("a")},
			"a.b": {fieldpath.Key("a"), fieldpath.Key("b")},
			"list[0].name": {
				fieldpath.Key("list"), fieldpath.Index(0), fieldpath.Key("name"),
			},
			"[1][2]": {fieldpath.Index(1), fieldpath.Index(2)},
		}
		for path, want := range tests {
			got, err := fieldpath.Parse(path)
			require.NoError(t, err, path)
			assert.Equal(t, want, got, path)
			assert.Equal(t, path, fieldpath.Join(got))
		}
	})

	t.Run("Invalid Paths", func(t *testing.T) {
		for _, path := range []string{"", ".a", "a.", "a..b", "a[", "a[x]", "a[-1]", "a[0]b", "a]"} {
			_, err := fieldpath.Parse(path)
			assert.Error(t, err, path)
		}
	})
}

func TestRelations(t *testing.T) {
	assert.True(t, fieldpath.IsAncestor("a", "a.b"))
	assert.True(t, fieldpath.IsAncestor("a", "a[0]"))
	assert.False(t, fieldpath.IsAncestor("a", "ab"))
	assert.False(t, fieldpath.IsAncestor("a", "a"))

	assert.True(t, fieldpath.Related("a.b", "a"))
	assert.False(t, fieldpath.Related("a", "ab"))

	assert.True(t, fieldpath.HasPrefix("a.b", "a.b"))
	assert.True(t, fieldpath.HasPrefix("a.b.c", "a.b"))
	assert.False(t, fieldpath.HasPrefix("a.bc", "a.b"))

	assert.Equal(t, "b.c", fieldpath.TrimPrefix("a.b.c", "a"))
	assert.Equal(t, "[0].c", fieldpath.TrimPrefix("a[0].c", "a"))
	assert.Equal(t, "x", fieldpath.TrimPrefix("x", "a"))
}
