package validator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync/internal/ir"
)

func validDoc(name string) string {
	return fmt.Sprintf(`# %s

> **Package:** react-%s

## Overview

Prose.

## Props Reference

| Prop | Type | Default | Description |
| --- | --- | --- | --- |

## See Also

- [Component Index](../components.md)
`, name, name)
}

func validBatch() Batch {
	return Batch{
		Docs: map[string]string{
			"feedback/badge.md": validDoc("Badge"),
		},
		Index:     "# Component Index\n\n## Feedback\n\n- [Badge](feedback/badge.md)\n",
		IndexFile: "components.md",
	}
}

func issuesByRule(issues []ir.ValidationIssue) map[string]int {
	counts := make(map[string]int)
	for _, i := range issues {
		counts[i.RuleID]++
	}
	return counts
}

func TestValidateCleanBatch(t *testing.T) {
	assert.Empty(t, Validate(validBatch(), nil))
}

func TestValidateMissingSections(t *testing.T) {
	batch := validBatch()
	batch.Docs["feedback/badge.md"] = "# Badge\n\n> **Package:** react-badge\n\n## Overview\n\nProse.\n"
	batch.Index = "# Component Index\n\n## Feedback\n\n- [Badge](feedback/badge.md)\n"

	issues := Validate(batch, nil)
	counts := issuesByRule(issues)
	assert.Equal(t, 2, counts["missing-section"]) // Props Reference and See Also
	for _, i := range issues {
		assert.Equal(t, ir.SeverityError, i.Severity)
	}
}

func TestValidateBrokenLink(t *testing.T) {
	batch := validBatch()
	doc := validDoc("Badge") + "\n- [Gone](./missing.md)\n"
	batch.Docs["feedback/badge.md"] = doc

	issues := Validate(batch, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, "broken-link", issues[0].RuleID)
	assert.Contains(t, issues[0].Message, "missing.md")
}

func TestValidateLinkResolvedByExistingTree(t *testing.T) {
	batch := validBatch()
	batch.Docs["feedback/badge.md"] = validDoc("Badge") + "\n- [Tag](./tag.md)\n"

	exists := func(rel string) bool { return rel == "feedback/tag.md" }
	assert.Empty(t, Validate(batch, exists))
}

func TestValidateExternalLinksIgnored(t *testing.T) {
	batch := validBatch()
	batch.Docs["feedback/badge.md"] = validDoc("Badge") + "\n- [Docs](https://example.com/x)\n- [Anchor](#overview)\n"

	assert.Empty(t, Validate(batch, nil))
}

func TestValidateFilenameConvention(t *testing.T) {
	batch := validBatch()
	batch.Docs["feedback/Badge_v2.md"] = validDoc("Badge")
	batch.Index += "- [Badge](feedback/Badge_v2.md)\n"

	issues := Validate(batch, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, "filename-convention", issues[0].RuleID)
	assert.Equal(t, ir.SeverityWarning, issues[0].Severity)
}

func TestValidateIndexMismatch(t *testing.T) {
	batch := validBatch()
	batch.Index = "# Component Index\n"

	issues := Validate(batch, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, "index-mismatch", issues[0].RuleID)
	assert.Equal(t, "components.md", issues[0].DocumentPath)
}

func TestValidateDuplicateCategory(t *testing.T) {
	batch := validBatch()
	batch.Index = "# Component Index\n\n## Feedback\n\n- [Badge](feedback/badge.md)\n\n## Status\n\n- [Badge](feedback/badge.md)\n"

	issues := Validate(batch, nil)
	counts := issuesByRule(issues)
	assert.Equal(t, 1, counts["duplicate-category"])
}
