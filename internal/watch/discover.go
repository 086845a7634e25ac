// Package watch finds the Terraform files of a workspace and keeps an index
// up to date as they change on disk.
package watch

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher decides which workspace files are indexed. Paths are relative to
// the workspace root and use forward slashes.
type Matcher struct {
	include []string
	exclude []string
}

// NewMatcher creates a Matcher. A file is matched when it matches one of
// include and none of exclude.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	for _, p := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: invalid glob %q", p)
		}
	}
	return &Matcher{include: include, exclude: exclude}, nil
}

// Match reports whether the file at rel is indexed.
func (m *Matcher) Match(rel string) bool {
	if !matchAny(m.include, rel) {
		return false
	}
	return !matchAny(m.exclude, rel)
}

// SkipDir reports whether nothing under the directory at rel can be indexed
// because an exclude pattern covers the directory itself or its contents.
func (m *Matcher) SkipDir(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	return matchAny(m.exclude, rel) || matchAny(m.exclude, path.Join(rel, "*"))
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Discover walks root and returns every matched file, relative to root, in
// sorted order.
func Discover(root string, m *Matcher) ([]string, error) {
	var files []string
	err := walk(root, root, m, func(string) {}, func(rel string) {
		files = append(files, rel)
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// walk visits the directories and matched files under start, skipping
// excluded directories. File names are relative to root. Unreadable entries
// are skipped.
func walk(root, start string, m *Matcher, onDir func(abs string), onFile func(rel string)) error {
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == start {
				return err
			}
			return nil
		}
		rel, err := relPath(root, p)
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if m.SkipDir(rel) {
				return filepath.SkipDir
			}
			onDir(p)
			return nil
		}
		if d.Type().IsRegular() && m.Match(rel) {
			onFile(rel)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", start, err)
	}
	return nil
}

// relPath returns p relative to root with forward slashes.
func relPath(root, p string) (string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
