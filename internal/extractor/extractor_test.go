package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync/internal/ir"
)

func badgeUnit() *ir.ScanUnit {
	return &ir.ScanUnit{
		PackageName: "react-badge",
		PackageRoot: "testdata/react-badge",
		Files: map[ir.FileRole]string{
			ir.RoleTypes: "testdata/react-badge/src/Badge.types.ts",
			ir.RoleHook:  "testdata/react-badge/src/useBadge.ts",
			ir.RoleIndex: "testdata/react-badge/src/index.ts",
		},
		StoryFiles: []string{"testdata/react-badge/stories/Badge.stories.tsx"},
	}
}

func TestExtractComponent(t *testing.T) {
	ext := NewExtractor()
	desc, issues, err := ext.ExtractComponent(context.Background(), badgeUnit())
	require.NoError(t, err)
	assert.Empty(t, issues)

	assert.Equal(t, "Badge", desc.ComponentName)
	assert.Equal(t, "react-badge", desc.PackageName)
	assert.Equal(t, "9.1.0", desc.SourceVersion)

	t.Run("props", func(t *testing.T) {
		names := make([]string, 0, len(desc.Props))
		for _, p := range desc.Props {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"appearance", "size", "shape"}, names)

		size := desc.PropByName("size")
		require.NotNil(t, size)
		assert.True(t, size.Required)
		assert.Equal(t, "'small' | 'medium' | 'large'", size.TypeExpression)
		assert.Equal(t, "Controls the badge dimensions.", size.Description)

		appearance := desc.PropByName("appearance")
		require.NotNil(t, appearance)
		assert.False(t, appearance.Required)
	})

	t.Run("slots", func(t *testing.T) {
		require.Len(t, desc.Slots, 1)
		assert.Equal(t, "icon", desc.Slots[0].Name)
		assert.Contains(t, desc.Slots[0].ElementType, "ReactNode")
	})

	t.Run("defaults from hook", func(t *testing.T) {
		assert.Equal(t, "'medium'", desc.PropByName("size").DefaultValue)
		assert.Equal(t, "'circular'", desc.PropByName("shape").DefaultValue)
		assert.Equal(t, "'filled'", desc.PropByName("appearance").DefaultValue)
	})

	t.Run("exports from index", func(t *testing.T) {
		assert.Contains(t, desc.ExportedSymbols, "Badge")
		assert.Contains(t, desc.ExportedSymbols, "useBadge")
	})

	t.Run("snippets", func(t *testing.T) {
		require.Len(t, desc.Examples, 2)
		assert.Equal(t, "Basic", desc.Examples[0].Title)
		assert.Contains(t, desc.Examples[0].SourceText, "<Badge>1</Badge>")
		assert.Equal(t, "SizeVariations", desc.Examples[1].Title)
	})
}

func TestExtractComponentUntypedMember(t *testing.T) {
	dir := t.TempDir()
	typesPath := filepath.Join(dir, "Widget.types.ts")
	source := "export interface WidgetProps {\n  label: string;\n  broken;\n}\n"
	require.NoError(t, os.WriteFile(typesPath, []byte(source), 0o644))

	unit := &ir.ScanUnit{
		PackageName: "react-widget",
		PackageRoot: dir,
		Files:       map[ir.FileRole]string{ir.RoleTypes: typesPath},
	}
	desc, issues, err := NewExtractor().ExtractComponent(context.Background(), unit)
	require.NoError(t, err)

	require.Len(t, issues, 1)
	assert.Equal(t, "parse-failure", issues[0].RuleID)
	assert.Contains(t, issues[0].Message, "broken")

	// The failed member appears exactly once, with an unknown type.
	count := 0
	for _, p := range desc.Props {
		if p.Name == "broken" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "unknown", desc.PropByName("broken").TypeExpression)
}

func TestExtractComponentMissingTypesFile(t *testing.T) {
	unit := &ir.ScanUnit{
		PackageName: "react-missing",
		PackageRoot: "testdata/react-missing",
		Files: map[ir.FileRole]string{
			ir.RoleTypes: "testdata/react-missing/src/Missing.types.ts",
		},
	}
	_, _, err := NewExtractor().ExtractComponent(context.Background(), unit)
	assert.Error(t, err)
}

func TestCachedExtractorReusesDescriptor(t *testing.T) {
	cached, err := NewCachedExtractor(8)
	require.NoError(t, err)

	first, _, err := cached.ExtractComponent(context.Background(), badgeUnit())
	require.NoError(t, err)
	second, _, err := cached.ExtractComponent(context.Background(), badgeUnit())
	require.NoError(t, err)

	// Same files, same stamp: the cached content is reused, but each run gets
	// its own descriptor to annotate.
	assert.NotSame(t, first, second)
	assert.Equal(t, first, second)
}

func TestCachedExtractorAnnotationsDoNotLeak(t *testing.T) {
	cached, err := NewCachedExtractor(8)
	require.NoError(t, err)

	first, _, err := cached.ExtractComponent(context.Background(), badgeUnit())
	require.NoError(t, err)
	first.Category = "Feedback"

	// A later run must see the descriptor without the prior run's category,
	// otherwise a rules-file change between runs would go unnoticed.
	second, _, err := cached.ExtractComponent(context.Background(), badgeUnit())
	require.NoError(t, err)
	assert.Empty(t, second.Category)
}

func TestIsSlotType(t *testing.T) {
	assert.True(t, isSlotType("React.ReactNode"))
	assert.True(t, isSlotType("Slot<'span'>"))
	assert.True(t, isSlotType("JSX.Element"))
	assert.False(t, isSlotType("'small' | 'large'"))
	assert.False(t, isSlotType("boolean"))
}
