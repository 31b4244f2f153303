package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync/internal/ir"
)

func TestBuild(t *testing.T) {
	comps := []*ir.ComponentDescriptor{
		{ComponentName: "MenuList", Category: "Navigation"},
		{ComponentName: "Badge", Category: "Feedback"},
		{ComponentName: "Menu", Category: "Navigation"},
	}

	got := Build(comps)

	want := `# Component Index

## Feedback

- [Badge](feedback/badge.md)

## Navigation

- [Menu](navigation/menu.md)
- [MenuList](navigation/menu-list.md)
`
	assert.Equal(t, want, got)
}

func TestBuildEmpty(t *testing.T) {
	assert.Equal(t, "# Component Index\n", Build(nil))
}

func TestParseRoundTrip(t *testing.T) {
	comps := []*ir.ComponentDescriptor{
		{ComponentName: "Badge", Category: "Feedback"},
		{ComponentName: "Menu", Category: "Navigation"},
	}

	entries := Parse(Build(comps))
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{ComponentName: "Badge", Category: "Feedback", RelPath: "feedback/badge.md"}, entries[0])
	assert.Equal(t, Entry{ComponentName: "Menu", Category: "Navigation", RelPath: "navigation/menu.md"}, entries[1])
}

func TestParseSkipsNonLinkLines(t *testing.T) {
	entries := Parse("# Component Index\n\n## Feedback\n\nSome prose.\n- not a link\n- [Badge](feedback/badge.md)\n")
	require.Len(t, entries, 1)
	assert.Equal(t, "Badge", entries[0].ComponentName)
}
