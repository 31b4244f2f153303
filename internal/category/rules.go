package category

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// Rule maps a package-name glob pattern to a category label.
type Rule struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
}

// Table is an ordered rule list resolved first-match-wins, with an optional
// default category when nothing matches.
type Table struct {
	Default string `yaml:"default"`
	Rules   []Rule `yaml:"rules"`
}

// ErrNoMatch is raised when no rule matches and no default is configured.
// The caller must escalate rather than guess a category.
type ErrNoMatch struct {
	PackageName string
}

func (e *ErrNoMatch) Error() string {
	return fmt.Sprintf("no category rule matches package %q", e.PackageName)
}

// LoadTable reads the rule table from a YAML file.
func LoadTable(rulesPath string) (*Table, error) {
	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read category rules %s: %w", rulesPath, err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse category rules %s: %w", rulesPath, err)
	}
	for _, r := range t.Rules {
		if r.Pattern == "" || r.Category == "" {
			return nil, fmt.Errorf("category rule with empty pattern or category in %s", rulesPath)
		}
		if _, err := path.Match(r.Pattern, "probe"); err != nil {
			return nil, fmt.Errorf("bad pattern %q in %s: %w", r.Pattern, rulesPath, err)
		}
	}
	return &t, nil
}

// Resolve returns the category for a package name, walking rules in order.
func (t *Table) Resolve(packageName string) (string, error) {
	for _, r := range t.Rules {
		if ok, _ := path.Match(r.Pattern, packageName); ok {
			return r.Category, nil
		}
	}
	if t.Default != "" {
		return t.Default, nil
	}
	return "", &ErrNoMatch{PackageName: packageName}
}
