package staging

import (
	"fmt"
	"os"
	"path/filepath"
)

// Area is a temporary mirror of the documentation tree. All writes land here
// first; nothing touches the destination until the batch validates and
// Promote is called.
type Area struct {
	dir string
}

// NewArea creates (or resets) the staging directory.
func NewArea(dir string) (*Area, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to reset staging dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir %s: %w", dir, err)
	}
	return &Area{dir: dir}, nil
}

func (a *Area) Dir() string { return a.dir }

// Write stages one document under its tree-relative path.
func (a *Area) Write(relPath, content string) error {
	dest := filepath.Join(a.dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(content), 0o644)
}

// Read returns a staged document's content.
func (a *Area) Read(relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(a.dir, filepath.FromSlash(relPath)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Promote copies the listed staged documents into the destination tree.
// Callers pass the full batch for all-or-nothing application, or a subset
// for per-component promotion.
func (a *Area) Promote(destRoot string, relPaths []string) error {
	for _, rel := range relPaths {
		src := filepath.Join(a.dir, filepath.FromSlash(rel))
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("staged document %s missing: %w", rel, err)
		}
		dest := filepath.Join(destRoot, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("failed to promote %s: %w", rel, err)
		}
	}
	return nil
}

// Clean removes the staging directory. Callers keep the area alive after
// runs that withheld documents, so those stay inspectable.
func (a *Area) Clean() error {
	return os.RemoveAll(a.dir)
}
