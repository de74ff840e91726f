// Package paths resolves the revbox installation layout and the library
// search path consulted by the module loader.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// BundleName is the optional archive of bundled runtime dependencies
	// shipped alongside an install. It carries deps that are either not new
	// enough on the host or not provided by it at all.
	BundleName = "revboxdeps.zip"

	// LibPathEnv holds extra library search path entries, joined with the
	// platform path-list separator.
	LibPathEnv = "REVBOX_LIB_PATH"
)

// Layout describes where the running revbox binary lives on disk.
//
// All paths are absolute but deliberately NOT symlink-resolved. Do not add
// EvalSymlinks-style normalization here: Buck-style builds run the binary
// out of a symlink farm, and resolving the links points the layout at the
// wrong tree.
type Layout struct {
	// Executable is the absolute path of the running binary.
	Executable string
	// ExeDir is the directory containing the binary.
	ExeDir string
	// LibDir is the grandparent of ExeDir, the fallback library root.
	LibDir string
}

// ResolveLayout derives the installation layout from the running executable.
func ResolveLayout() (Layout, error) {
	exe, err := os.Executable()
	if err != nil {
		return Layout{}, fmt.Errorf("locate executable: %w", err)
	}
	return layoutFor(exe)
}

// layoutFor computes the layout for a given executable path. See the Layout
// doc for why symlinks stay unresolved.
func layoutFor(exe string) (Layout, error) {
	abs, err := filepath.Abs(exe)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve executable path %q: %w", exe, err)
	}
	exeDir := filepath.Dir(abs)
	return Layout{
		Executable: abs,
		ExeDir:     exeDir,
		LibDir:     filepath.Dir(filepath.Dir(exeDir)),
	}, nil
}

// BundleCandidates returns the candidate bundle locations in probe order:
// next to the installed tree first, then the dev-build location under
// <libdir>/build.
func (l Layout) BundleCandidates() []string {
	return []string{
		filepath.Join(filepath.Dir(l.ExeDir), BundleName),
		filepath.Join(l.LibDir, "build", BundleName),
	}
}

// FindBundle returns the first bundle candidate that exists on disk, along
// with its size. Absence is not an error; ok is false when neither
// candidate exists.
func (l Layout) FindBundle() (path string, size int64, ok bool) {
	for _, p := range l.BundleCandidates() {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, fi.Size(), true
		}
	}
	return "", 0, false
}

// SearchPath is the ordered list of locations the module loader consults.
// It is assembled once at bootstrap and read-only afterwards; Prepend
// returns a new value rather than mutating in place.
type SearchPath []string

// DefaultSearchPath assembles the search path from LibPathEnv plus the
// install-derived defaults. getenv is injected so callers can test without
// touching the process environment.
func DefaultSearchPath(l Layout, getenv func(string) string) SearchPath {
	var sp SearchPath
	if v := getenv(LibPathEnv); v != "" {
		for _, entry := range strings.Split(v, string(os.PathListSeparator)) {
			if entry != "" {
				sp = append(sp, entry)
			}
		}
	}
	return append(sp, l.ExeDir, l.LibDir)
}

// Prepend returns the search path with entry at the front, so that entry
// shadows later ones of the same name. An already-present entry is left at
// its existing position rather than duplicated.
func (sp SearchPath) Prepend(entry string) SearchPath {
	if sp.Contains(entry) {
		return sp
	}
	out := make(SearchPath, 0, len(sp)+1)
	out = append(out, entry)
	return append(out, sp...)
}

// Contains reports whether entry is already on the search path.
func (sp SearchPath) Contains(entry string) bool {
	for _, e := range sp {
		if e == entry {
			return true
		}
	}
	return false
}

// String joins the entries for diagnostics.
func (sp SearchPath) String() string {
	return strings.Join(sp, string(os.PathListSeparator))
}
