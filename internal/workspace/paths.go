// Package workspace enforces the single filesystem invariant of the agent:
// every write lands under the configured root. Checks happen at the point of
// write, not upstream.
package workspace

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/example/natural-agent/internal/models"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeFilename reduces a free-form title to a safe filename fragment.
func SanitizeFilename(name string) string {
	cleaned := unsafeChars.ReplaceAllString(name, "_")
	cleaned = strings.Trim(cleaned, "._")
	if len(cleaned) > 120 {
		cleaned = cleaned[:120]
	}
	if cleaned == "" {
		return "artifact"
	}
	return cleaned
}

// EnsureWithinRoot resolves path and verifies it lies under root. It returns
// the absolute path or a WorkspaceEscapeError.
func EnsureWithinRoot(path, root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	// Resolve symlinks on the parts that exist so a link cannot tunnel out.
	// The target itself often does not exist yet (the check runs before the
	// write), so resolution walks up to the deepest existing ancestor and
	// re-joins the remainder.
	abs = resolveExisting(abs)
	if resolvedRoot, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolvedRoot
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &models.WorkspaceEscapeError{Path: path, Root: root}
	}
	return abs, nil
}

// resolveExisting resolves symlinks on the deepest existing ancestor of abs
// and re-joins the not-yet-created components onto the resolved prefix.
func resolveExisting(abs string) string {
	suffix := ""
	dir := abs
	for {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(resolved, suffix)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		suffix = filepath.Join(filepath.Base(dir), suffix)
		dir = parent
	}
}

// WriteFile writes content under root, creating parent directories. The
// containment check runs here, immediately before the write.
func WriteFile(path, root string, content []byte) (string, error) {
	abs, err := EnsureWithinRoot(path, root)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return "", err
	}
	return abs, nil
}

// ChunkText splits text into chunks of at most size bytes with the given
// overlap between consecutive chunks.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 || len(text) <= size {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}
