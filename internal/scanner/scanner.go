package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docsync/internal/ir"
)

// Scanner walks a component library root and resolves each package's module
// files by role.
type Scanner struct {
	ignored []string
}

// ScanFailure records a package that could not be resolved. It does not fail
// the run.
type ScanFailure struct {
	PackageName string
	Reason      string
}

func NewScanner(ignored []string) *Scanner {
	if len(ignored) == 0 {
		ignored = []string{".git", "node_modules", "dist", "lib", "__tests__"}
	}
	return &Scanner{ignored: ignored}
}

// rolePatterns lists candidate relative paths per file role, newest layout
// first. {name} expands to the component name derived from the package
// directory. The first existing candidate wins.
var rolePatterns = map[ir.FileRole][]string{
	ir.RoleTypes: {
		"src/components/{name}/{name}.types.ts",
		"src/{name}.types.ts",
		"src/components/{name}/types.ts",
		"src/types.ts",
	},
	ir.RoleHook: {
		"src/components/{name}/use{name}.ts",
		"src/components/{name}/use{name}.tsx",
		"src/use{name}.ts",
		"src/components/{name}/{name}.tsx",
	},
	ir.RoleIndex: {
		"src/index.ts",
		"src/index.tsx",
		"index.ts",
	},
}

var storyPatterns = []string{
	"stories/{name}.stories.tsx",
	"stories/{name}/index.stories.tsx",
	"src/stories/{name}.stories.tsx",
	"src/{name}.stories.tsx",
}

// ScanLibrary walks the root and streams one ScanUnit per resolvable
// component package. Packages missing their types file are reported as
// failures, not errors.
func (s *Scanner) ScanLibrary(root string, onUnit func(*ir.ScanUnit)) ([]ScanFailure, error) {
	pkgs, err := s.findPackages(root)
	if err != nil {
		return nil, fmt.Errorf("scan of %s failed: %w", root, err)
	}

	var failures []ScanFailure
	for _, pkgRoot := range pkgs {
		unit, fail := s.resolvePackage(pkgRoot)
		if fail != nil {
			failures = append(failures, *fail)
			continue
		}
		onUnit(unit)
	}
	return failures, nil
}

// findPackages locates component package roots: directories containing a
// package.json whose name starts with "react-" (with or without a scope
// prefix), sorted for deterministic order.
func (s *Scanner) findPackages(root string) ([]string, error) {
	var pkgs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, ign := range s.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if d.Name() != "package.json" {
			return nil
		}
		dir := filepath.Dir(path)
		if isComponentPackage(filepath.Base(dir)) {
			pkgs = append(pkgs, dir)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(pkgs)
	return pkgs, nil
}

func isComponentPackage(dirName string) bool {
	return strings.HasPrefix(dirName, "react-") && dirName != "react-components"
}

func (s *Scanner) resolvePackage(pkgRoot string) (*ir.ScanUnit, *ScanFailure) {
	pkgName := filepath.Base(pkgRoot)
	component := ComponentName(pkgName)

	unit := &ir.ScanUnit{
		PackageName: pkgName,
		PackageRoot: pkgRoot,
		Files:       make(map[ir.FileRole]string),
	}

	for role, candidates := range rolePatterns {
		if path, ok := firstExisting(pkgRoot, component, candidates); ok {
			unit.Files[role] = path
		}
	}

	// Types file is the only required role.
	if _, ok := unit.Files[ir.RoleTypes]; !ok {
		return nil, &ScanFailure{
			PackageName: pkgName,
			Reason:      "no type-declaration file matched any known layout",
		}
	}

	for _, pattern := range storyPatterns {
		candidate := filepath.Join(pkgRoot, expand(pattern, component))
		if _, err := os.Stat(candidate); err == nil {
			unit.StoryFiles = append(unit.StoryFiles, candidate)
		}
	}

	return unit, nil
}

func firstExisting(pkgRoot, component string, candidates []string) (string, bool) {
	for _, pattern := range candidates {
		candidate := filepath.Join(pkgRoot, expand(pattern, component))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func expand(pattern, component string) string {
	return strings.ReplaceAll(pattern, "{name}", component)
}

// ComponentName derives the PascalCase component name from a package
// directory name: "react-menu-list" -> "MenuList".
func ComponentName(pkgName string) string {
	base := strings.TrimPrefix(pkgName, "react-")
	parts := strings.Split(base, "-")
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}
