package loader

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sungur/revbox/internal/paths"
)

const testManifest = "# core modules\ncommands lib/commands\nserver lib/server\nstore lib/store\n"

func writeModuleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(testManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeBundle(t *testing.T) string {
	t.Helper()
	bundle := filepath.Join(t.TempDir(), "revboxdeps.zip")
	f, err := os.Create(bundle)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(ManifestName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(testManifest)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return bundle
}

func TestEnableFromDirectory(t *testing.T) {
	defer reset()

	dir := writeModuleDir(t)
	sp := paths.SearchPath{t.TempDir(), dir}

	if err := Enable(sp); err != nil {
		t.Fatalf("Enable() unexpected error: %v", err)
	}
	if !Enabled() {
		t.Fatal("Enabled() = false after Enable")
	}

	m, err := Resolve("commands", sp)
	if err != nil {
		t.Fatalf("Resolve(commands) unexpected error: %v", err)
	}
	want := filepath.Join(dir, "lib/commands")
	if m.Location != want {
		t.Errorf("Resolve(commands).Location = %q, want %q", m.Location, want)
	}

	// Second resolve hits the cache and returns the same module.
	again, err := Resolve("commands", sp)
	if err != nil {
		t.Fatalf("Resolve(commands) second call: %v", err)
	}
	if again != m {
		t.Errorf("cached Resolve = %+v, want %+v", again, m)
	}
}

func TestEnableFromBundle(t *testing.T) {
	defer reset()

	bundle := writeBundle(t)
	sp := paths.SearchPath{bundle}

	if err := Enable(sp); err != nil {
		t.Fatalf("Enable() unexpected error: %v", err)
	}

	m, err := Resolve("server", sp)
	if err != nil {
		t.Fatalf("Resolve(server) unexpected error: %v", err)
	}
	want := bundle + "!lib/server"
	if m.Location != want {
		t.Errorf("Resolve(server).Location = %q, want %q", m.Location, want)
	}
}

func TestEnableMissingLibraries(t *testing.T) {
	defer reset()

	sp := paths.SearchPath{t.TempDir(), t.TempDir()}

	err := Enable(sp)
	if !errors.Is(err, ErrMissingLibraries) {
		t.Fatalf("Enable() error = %v, want ErrMissingLibraries", err)
	}
	// The diagnostic names every attempted entry.
	for _, entry := range sp {
		if !strings.Contains(err.Error(), entry) {
			t.Errorf("Enable() error %q does not mention %q", err, entry)
		}
	}
	if Enabled() {
		t.Error("Enabled() = true after failed Enable")
	}
}

func TestResolveEagerWithoutEnable(t *testing.T) {
	defer reset()

	dir := writeModuleDir(t)
	sp := paths.SearchPath{dir}

	m, err := Resolve("store", sp)
	if err != nil {
		t.Fatalf("Resolve(store) unexpected error: %v", err)
	}
	if m.Name != "store" {
		t.Errorf("Resolve(store).Name = %q", m.Name)
	}

	if _, err := Resolve("nosuch", sp); !errors.Is(err, ErrUnknownModule) {
		t.Errorf("Resolve(nosuch) error = %v, want ErrUnknownModule", err)
	}
}

func TestNames(t *testing.T) {
	defer reset()

	dir := writeModuleDir(t)
	sp := paths.SearchPath{dir}

	names, err := Names(sp)
	if err != nil {
		t.Fatalf("Names() unexpected error: %v", err)
	}
	want := []string{"commands", "server", "store"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"comments only", "# nothing here\n"},
		{"missing location", "commands\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseManifest([]byte(tt.input)); err == nil {
				t.Errorf("parseManifest(%q) error = nil, want failure", tt.input)
			}
		})
	}
}
