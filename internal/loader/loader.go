// Package loader resolves revbox library modules from the search path.
//
// With deferred loading enabled, the search path is scanned once and each
// module is resolved on first use, which keeps cold starts cheap. Without
// it, every Resolve call scans eagerly. The two modes return identical
// results for the same search path.
package loader

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sungur/revbox/internal/paths"
	"github.com/sungur/revbox/internal/textenc"
)

// ManifestName indexes the module tree inside a search path entry. An entry
// may be a plain directory or a zip bundle carrying the manifest as a member.
const ManifestName = "modules.idx"

// ErrMissingLibraries reports that no search path entry contains the revbox
// module tree at all. This is the one fatal bootstrap condition.
var ErrMissingLibraries = errors.New("revbox libraries not found")

// ErrUnknownModule reports a module name absent from the manifest.
var ErrUnknownModule = errors.New("unknown module")

// Module is a resolved library module.
type Module struct {
	// Name is the manifest name of the module.
	Name string
	// Location is where the module lives: a path under a directory entry,
	// or "bundle.zip!member" for bundled modules.
	Location string
}

type registry struct {
	mu       sync.Mutex
	enabled  bool
	root     string            // search path entry carrying the manifest
	index    map[string]string // module name -> relative location
	resolved map[string]Module // lazily filled on first use
}

var reg registry

// Enable scans the search path for the module tree and installs deferred
// resolution. It fails with ErrMissingLibraries when no entry carries a
// manifest; that failure names the attempted search path.
func Enable(sp paths.SearchPath) error {
	root, index, err := locate(sp)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.enabled = true
	reg.root = root
	reg.index = index
	reg.resolved = make(map[string]Module, len(index))
	return nil
}

// Enabled reports whether deferred loading is active.
func Enabled() bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.enabled
}

// reset returns the loader to its pre-Enable state. Test hook.
func reset() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.enabled = false
	reg.root = ""
	reg.index = nil
	reg.resolved = nil
}

// Resolve returns the location of a named module. With deferred loading
// enabled the manifest scan already happened and each module resolves once;
// otherwise the search path is scanned on every call.
func Resolve(name string, sp paths.SearchPath) (Module, error) {
	reg.mu.Lock()
	if reg.enabled {
		defer reg.mu.Unlock()
		if m, ok := reg.resolved[name]; ok {
			return m, nil
		}
		rel, ok := reg.index[name]
		if !ok {
			return Module{}, fmt.Errorf("%w: %s", ErrUnknownModule, name)
		}
		m := Module{Name: name, Location: joinLocation(reg.root, rel)}
		reg.resolved[name] = m
		return m, nil
	}
	reg.mu.Unlock()

	root, index, err := locate(sp)
	if err != nil {
		return Module{}, err
	}
	rel, ok := index[name]
	if !ok {
		return Module{}, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	return Module{Name: name, Location: joinLocation(root, rel)}, nil
}

// Names returns the sorted module names known to the search path.
func Names(sp paths.SearchPath) ([]string, error) {
	reg.mu.Lock()
	index := reg.index
	enabled := reg.enabled
	reg.mu.Unlock()

	if !enabled {
		var err error
		if _, index, err = locate(sp); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func joinLocation(root, rel string) string {
	if strings.HasSuffix(root, ".zip") {
		return root + "!" + rel
	}
	return filepath.Join(root, rel)
}

// locate finds the first search path entry carrying a module manifest.
func locate(sp paths.SearchPath) (string, map[string]string, error) {
	for _, entry := range sp {
		index, err := readManifest(entry)
		if err != nil {
			continue
		}
		return entry, index, nil
	}
	return "", nil, fmt.Errorf("%w in [%s]", ErrMissingLibraries, sp)
}

// readManifest loads and parses the manifest from a directory entry or a
// zip bundle entry.
func readManifest(entry string) (map[string]string, error) {
	if strings.HasSuffix(entry, ".zip") {
		return readBundleManifest(entry)
	}
	data, err := os.ReadFile(filepath.Join(entry, ManifestName))
	if err != nil {
		return nil, err
	}
	return parseManifest(data)
}

func readBundleManifest(bundle string) (map[string]string, error) {
	zr, err := zip.OpenReader(bundle)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != ManifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		return parseManifest(data)
	}
	return nil, fmt.Errorf("bundle %s has no %s", bundle, ManifestName)
}

// parseManifest parses "name location" lines. Blank lines and #-comments
// are skipped. Manifest text goes through the process decode mode, so a
// corrupt manifest fails loudly under strict decoding.
func parseManifest(data []byte) (map[string]string, error) {
	text, err := textenc.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	index := make(map[string]string)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, location, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("manifest line %d: want \"name location\", got %q", i+1, line)
		}
		index[name] = strings.TrimSpace(location)
	}
	if len(index) == 0 {
		return nil, errors.New("manifest lists no modules")
	}
	return index, nil
}
