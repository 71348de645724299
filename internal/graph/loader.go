package graph

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Loader provides module sources. Module IDs are slash-separated paths.
type Loader interface {
	// Exists reports whether id names a module.
	Exists(id string) bool

	// Load returns the source of the module id. A missing module gives an
	// error wrapping ErrModuleNotFound.
	Load(id string) (string, error)
}

// MapLoader serves modules from memory, keyed by ID.
type MapLoader map[string]string

func (l MapLoader) Exists(id string) bool {
	_, ok := l[id]
	return ok
}

func (l MapLoader) Load(id string) (string, error) {
	source, ok := l[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	return source, nil
}

// FSLoader reads modules from the file system below Root. IDs are relative
// to Root.
type FSLoader struct {
	Root string
}

func (l FSLoader) path(id string) string {
	return filepath.Join(l.Root, filepath.FromSlash(id))
}

func (l FSLoader) Exists(id string) bool {
	info, err := os.Stat(l.path(id))
	return err == nil && !info.IsDir()
}

func (l FSLoader) Load(id string) (string, error) {
	data, err := os.ReadFile(l.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrModuleNotFound, id)
		}
		return "", fmt.Errorf("reading %s: %w", id, err)
	}
	return string(data), nil
}

// ----------------------------------------------------------------------------
// Resolution
// ----------------------------------------------------------------------------

// IsRelative returns true for specifiers resolved inside the bundle. Every
// other specifier names an external module.
func IsRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, "/")
}

// Resolve resolves a relative specifier imported by importer. The
// extension ".js" and an index file are tried when the exact path does not
// exist.
func Resolve(loader Loader, importer string, specifier string) (string, bool) {
	base := path.Join(path.Dir(importer), specifier)
	if strings.HasPrefix(specifier, "/") {
		base = path.Clean(strings.TrimPrefix(specifier, "/"))
	}
	return tryExtensions(loader, base)
}

// ResolveEntry resolves an entry given relative to the loader's root.
func ResolveEntry(loader Loader, entry string) (string, bool) {
	return tryExtensions(loader, path.Clean(strings.TrimPrefix(filepath.ToSlash(entry), "/")))
}

func tryExtensions(loader Loader, base string) (string, bool) {
	for _, candidate := range []string{base, base + ".js", base + ".mjs", path.Join(base, "index.js")} {
		if loader.Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}
