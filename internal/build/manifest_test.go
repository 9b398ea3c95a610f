package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/deprule"
)

const sampleManifest = `
before:
  version: "2.0"
after:
  version: "2.0"
subpackages:
  - name: foo
    arch: x86_64
    version: "2.0"
    release: "2"
    before:
      requires:
        - "foo-libs = 2.0-1"
    after:
      requires:
        - "libfoo.so.1()(64bit)"
        - "foo-libs = 2.0-2"
  - name: foo-libs
    arch: x86_64
    version: "2.0"
    release: "2"
    after:
      provides:
        - "libfoo.so.1()(64bit)"
  - name: foo
    arch: src
    version: "2.0"
    release: "2"
    files:
      - "foo.spec"
    after: {}
`

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func TestLoadManifestAndBuild(t *testing.T) {
	m, err := LoadManifest(writeManifest(t, "build.yaml", sampleManifest))
	if err != nil {
		t.Fatalf("loading manifest: %v", err)
	}

	b, err := m.Build()
	if err != nil {
		t.Fatalf("building: %v", err)
	}

	if len(b.Subpackages) != 3 {
		t.Fatalf("expected 3 subpackages, got %d", len(b.Subpackages))
	}
	if b.Rebase {
		t.Fatalf("same upstream version must not detect as rebase")
	}
	if !b.HasBefore() {
		t.Fatalf("manifest carries a before build")
	}
	if got := b.SpecFile(); got != "foo.spec" {
		t.Fatalf("spec file: got %q", got)
	}

	foo := b.Subpackages[0]
	if len(foo.AfterRules) != 2 {
		t.Fatalf("expected 2 after rules, got %d", len(foo.AfterRules))
	}
	if foo.AfterRules[1].Operator != deprule.OpEqual || foo.AfterRules[1].Version != "2.0-2" {
		t.Fatalf("bad parsed rule: %+v", foo.AfterRules[1])
	}

	// Peer linking ran: the changed foo-libs requirement pairs up.
	if foo.BeforeRules[0].Peer != foo.AfterRules[1] {
		t.Fatalf("before rule not linked to changed after rule")
	}
	if foo.AfterRules[0].Peer != nil {
		t.Fatalf("gained library rule must stay unlinked")
	}
}

func TestLoadManifestGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.yaml.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating file: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(sampleManifest)); err != nil {
		t.Fatalf("writing gzip: %v", err)
	}
	gz.Close()
	f.Close()

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("loading gzip manifest: %v", err)
	}
	if len(m.Subpackages) != 3 {
		t.Fatalf("expected 3 subpackages, got %d", len(m.Subpackages))
	}
}

func TestLoadManifestSchemaViolation(t *testing.T) {
	// Missing required release field.
	bad := `
subpackages:
  - name: foo
    arch: x86_64
    version: "2.0"
    after: {}
`
	if _, err := LoadManifest(writeManifest(t, "bad.yaml", bad)); err == nil {
		t.Fatalf("expected schema validation error")
	}
}

func TestManifestRebaseOverride(t *testing.T) {
	withOverride := `
rebase: true
subpackages:
  - name: foo
    arch: x86_64
    version: "2.0"
    release: "1"
    after: {}
`
	m, err := LoadManifest(writeManifest(t, "rebase.yaml", withOverride))
	if err != nil {
		t.Fatalf("loading manifest: %v", err)
	}
	b, err := m.Build()
	if err != nil {
		t.Fatalf("building: %v", err)
	}
	if !b.Rebase {
		t.Fatalf("rebase override not honored")
	}
}

func TestManifestBadRule(t *testing.T) {
	bad := `
subpackages:
  - name: foo
    arch: x86_64
    version: "2.0"
    release: "1"
    after:
      requires:
        - "foo ~> 1.0"
`
	m, err := LoadManifest(writeManifest(t, "badrule.yaml", bad))
	if err != nil {
		t.Fatalf("loading manifest: %v", err)
	}
	if _, err := m.Build(); err == nil {
		t.Fatalf("expected rule parse error")
	}
}
