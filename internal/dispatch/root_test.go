package dispatch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sungur/revbox/internal/engine"
	"github.com/sungur/revbox/internal/loader"
	"github.com/sungur/revbox/internal/paths"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		Argv:   []string{"revbox"},
		Engine: engine.Version{Major: 3, Minor: 7},
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd(testOptions(t))

	for _, name := range []string{"serve", "debugmodules", "update"} {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing %q subcommand", name)
		}
	}
}

func TestServeRejectsUnknownTransport(t *testing.T) {
	root := newRootCmd(testOptions(t))
	root.SetArgs([]string{"serve", "--cmdserver", "tcp", "--address", "/tmp/sock"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "transport") {
		t.Errorf("Execute() error = %v, want unsupported transport", err)
	}
}

func TestServeRequiresAddress(t *testing.T) {
	root := newRootCmd(testOptions(t))
	root.SetArgs([]string{"serve"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "--address") {
		t.Errorf("Execute() error = %v, want missing address", err)
	}
}

func TestDebugModules(t *testing.T) {
	dir := t.TempDir()
	manifest := "commands lib/commands\n"
	if err := os.WriteFile(filepath.Join(dir, loader.ManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := testOptions(t)
	opts.SearchPath = paths.SearchPath{dir}

	root := newRootCmd(opts)
	root.SetArgs([]string{"debugmodules"})
	if err := root.Execute(); err != nil {
		t.Errorf("Execute(debugmodules) unexpected error: %v", err)
	}
}

func TestDebugModulesMissingLibraries(t *testing.T) {
	opts := testOptions(t)
	opts.SearchPath = paths.SearchPath{t.TempDir()}

	root := newRootCmd(opts)
	root.SetArgs([]string{"debugmodules"})
	if err := root.Execute(); err == nil {
		t.Error("Execute(debugmodules) error = nil, want missing libraries")
	}
}
