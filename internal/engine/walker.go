package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ellenaj0/RepoDocGen/internal/config"
)

// discoverFiles walks the repository root and returns the relative paths
// of analyzable files, sorted by the walk order (lexical within each
// directory). Hidden directories, excluded patterns, unsupported
// extensions, and oversized files are skipped.
func discoverFiles(root string, cfg config.Config, supported func(path string) bool) ([]string, error) {
	maxBytes := int64(cfg.MaxFileSizeMB) * 1024 * 1024

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") || isExcluded(name, cfg.ExcludePatterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || isExcluded(name, cfg.ExcludePatterns) {
			return nil
		}
		if !supported(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if maxBytes > 0 && info.Size() > maxBytes {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// isExcluded matches a path component against the configured exclude
// patterns. Patterns are matched as glob patterns against the component
// name, with a plain-string fallback.
func isExcluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
		if pattern == name {
			return true
		}
	}
	return false
}

// readRepoFile reads a discovered file back via its relative path
func readRepoFile(root, rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
}
