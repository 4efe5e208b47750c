// Package loader resolves Load/Unload theory-file directives against a
// base directory, tracking which paths have already been loaded so a
// repeated Load is a no-op.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// status is a path's position in the load lifecycle.
type status int

const (
	notLoaded status = iota
	loaded
	unloaded
)

// Loader tracks load state for theory paths under baseDir. Not
// goroutine-safe, matching the single-threaded-per-session model its
// owner (Session) already follows.
type Loader struct {
	baseDir string
	status  map[string]status
}

// New builds a Loader resolving relative paths against baseDir.
func New(baseDir string) *Loader {
	return &Loader{baseDir: baseDir, status: make(map[string]status)}
}

// ShouldLoad reports whether path should be (re)read now: true the
// first time it is seen, or after a prior Unload made it eligible
// again. A path currently loaded returns false (idempotent Load). As a
// side effect, a true result marks the path loaded.
func (l *Loader) ShouldLoad(path string) bool {
	if l.status[path] == loaded {
		return false
	}
	l.status[path] = loaded
	return true
}

// Unload marks path eligible for reload. It never retracts anything
// already learned from it -- facts are permanent.
func (l *Loader) Unload(path string) {
	if l.status[path] == loaded {
		l.status[path] = unloaded
	}
}

// Read resolves path against baseDir and returns its theory text. A
// path naming a directory concatenates every non-hidden file in it
// (skipping "vendor", "node_modules", and dotfiles/dotdirs), in sorted
// order, separated by blank lines.
func (l *Loader) Read(path string) (string, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(l.baseDir, path)
	}

	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("loader: stat %s: %w", path, err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(full)
		if err != nil {
			return "", fmt.Errorf("loader: read %s: %w", path, err)
		}
		return string(data), nil
	}

	var files []string
	err = filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" {
				if p != full {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("loader: walk %s: %w", path, err)
	}
	sort.Strings(files)

	var sb strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("loader: read %s: %w", f, err)
		}
		sb.Write(data)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
