// Package security keeps user-supplied cloud and export paths inside the
// directories the tool is configured to serve or write.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a path resolves outside its base directory.
var ErrPathEscape = errors.New("path escapes base directory")

// ValidatePathWithinDirectory reports whether filePath, after cleaning and
// symlink resolution, stays inside baseDir. Paths (and bases) that do not
// exist yet are checked through their nearest existing parent, so a
// symlinked parent directory cannot be used to escape.
func ValidatePathWithinDirectory(filePath, baseDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", filePath, err)
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", baseDir, err)
	}
	rel, err := filepath.Rel(canonicalize(absBase), canonicalize(absPath))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPathEscape, filePath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrPathEscape, filePath, baseDir)
	}
	return nil
}

// canonicalize resolves symlinks in p, or in its deepest existing parent
// when p does not exist.
func canonicalize(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	for dir := filepath.Dir(p); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, _ := filepath.Rel(dir, p)
			return filepath.Join(resolved, rel)
		}
		if filepath.Dir(dir) == dir {
			return p
		}
	}
}

// ResolveWithin joins a relative name onto baseDir and validates the
// result. Absolute names are rejected outright.
func ResolveWithin(baseDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrPathEscape)
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s is absolute", ErrPathEscape, name)
	}
	p := filepath.Join(baseDir, name)
	if err := ValidatePathWithinDirectory(p, baseDir); err != nil {
		return "", err
	}
	return p, nil
}

// ValidatePathWithinAllowedDirs accepts filePath if it lies inside any of
// allowedDirs.
func ValidatePathWithinAllowedDirs(filePath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return errors.New("no allowed directories specified")
	}
	for _, dir := range allowedDirs {
		if err := ValidatePathWithinDirectory(filePath, dir); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be within one of %v", ErrPathEscape, filePath, allowedDirs)
}

// SanitizeFilename turns an arbitrary identifier (a cloud name, a field
// name) into a safe file name component: ASCII letters, digits, '.', '_'
// and '-' are kept, runs of anything else become one '_', and the result
// is at most 128 bytes.
func SanitizeFilename(s string) string {
	const maxLen = 128

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
