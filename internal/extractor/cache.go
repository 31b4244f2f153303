package extractor

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"docsync/internal/ir"
)

type cacheEntry struct {
	stamp  string
	desc   *ir.ComponentDescriptor
	issues []ir.ValidationIssue
}

// CachedExtractor memoizes descriptors across runs, keyed by package name and
// invalidated by file modtimes. Watch mode re-runs the pipeline on every
// change burst; the cache keeps untouched components from being re-parsed.
type CachedExtractor struct {
	inner *Extractor
	cache *lru.Cache[string, cacheEntry]
}

func NewCachedExtractor(size int) (*CachedExtractor, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CachedExtractor{inner: NewExtractor(), cache: cache}, nil
}

// ExtractComponent returns a copy of the cached descriptor: each run
// annotates its descriptor (category assignment), and those annotations must
// not leak into later runs through the cache.
func (c *CachedExtractor) ExtractComponent(ctx context.Context, unit *ir.ScanUnit) (*ir.ComponentDescriptor, []ir.ValidationIssue, error) {
	stamp := unitStamp(unit)
	if entry, ok := c.cache.Get(unit.PackageName); ok && entry.stamp == stamp {
		return copyDescriptor(entry.desc), entry.issues, nil
	}

	desc, issues, err := c.inner.ExtractComponent(ctx, unit)
	if err != nil {
		return nil, issues, err
	}
	c.cache.Add(unit.PackageName, cacheEntry{stamp: stamp, desc: desc, issues: issues})
	return copyDescriptor(desc), issues, nil
}

func copyDescriptor(d *ir.ComponentDescriptor) *ir.ComponentDescriptor {
	out := *d
	out.Category = ""
	return &out
}

// unitStamp fingerprints every resolved file by path, size and modtime.
func unitStamp(unit *ir.ScanUnit) string {
	paths := make([]string, 0, len(unit.Files)+len(unit.StoryFiles))
	for _, p := range unit.Files {
		paths = append(paths, p)
	}
	paths = append(paths, unit.StoryFiles...)
	sort.Strings(paths)

	var sb strings.Builder
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			fmt.Fprintf(&sb, "%s:missing;", p)
			continue
		}
		fmt.Fprintf(&sb, "%s:%d:%d;", p, info.Size(), info.ModTime().UnixNano())
	}
	return sb.String()
}
