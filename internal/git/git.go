package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// ChangedFiles runs git diff against the base ref and returns the paths of
// files changed in the working tree, relative to the repository root.
func ChangedFiles(repoRoot, baseRef string) ([]string, error) {
	cmd := exec.Command("git", "diff", "--name-only", baseRef)
	cmd.Dir = repoRoot
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	var paths []string
	sc := bufio.NewScanner(bytes.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, sc.Err()
}

// TouchesAny reports whether any changed path falls under the given
// directory prefix.
func TouchesAny(changed []string, dirPrefix string) bool {
	prefix := strings.TrimSuffix(dirPrefix, "/") + "/"
	for _, p := range changed {
		if strings.HasPrefix(p, prefix) || p == strings.TrimSuffix(dirPrefix, "/") {
			return true
		}
	}
	return false
}
