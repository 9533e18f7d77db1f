package common

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
)

// WalkFiles calls fn for every non-directory entry below root, in lexical order.
// Directories whose base name is in skipDirs are not descended into; the root
// itself is never skipped. Unreadable directories are logged and skipped, and a
// missing root yields no files.
func WalkFiles(root string, skipDirs []string, logger *slog.Logger, fn func(path string) error) error {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		logger.Warn("directory does not exist", "root", root)
		return nil
	}

	clean := filepath.Clean(root)
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = true
	}

	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if osPathname != clean && skip[de.Name()] {
					return godirwalk.SkipThis
				}
				return nil
			}
			return fn(osPathname)
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			logger.Warn("skipping unreadable path", "path", osPathname, "error", err)
			return godirwalk.SkipNode
		},
	})
}

// FindFiles collects the files below root accepted by match.
// The whole list is gathered before returning so callers can mutate the tree.
func FindFiles(root string, skipDirs []string, logger *slog.Logger, match func(name string) bool) ([]string, error) {
	var files []string
	err := WalkFiles(root, skipDirs, logger, func(path string) error {
		if match(filepath.Base(path)) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// IsPNG reports whether name has a .png extension, ignoring case.
func IsPNG(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".png")
}

// WebPCounterpart returns the same-stem .webp sibling of path.
func WebPCounterpart(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".webp"
}

// WalkDirs calls fn for root and every directory below it.
func WalkDirs(root string, logger *slog.Logger, fn func(path string) error) error {
	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			return fn(osPathname)
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			logger.Warn("skipping unreadable path", "path", osPathname, "error", err)
			return godirwalk.SkipNode
		},
		Unsorted: true,
	})
}
