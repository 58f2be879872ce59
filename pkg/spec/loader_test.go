package spec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseValidScenario(t *testing.T) {
	data := []byte(`
routers:
  - name: r1
    as: 65001
  - name: r2
    as: 65001
externals:
  - name: ext1
    as: 65010
links:
  - a: r1
    z: r2
  - a: ext1
    z: r1
sessions:
  - a: r1
    z: r2
    kind: ibgp
  - a: ext1
    z: r1
    kind: ebgp
advertisements:
  - router: ext1
    prefix: "10.0.0.0/8"
    as_path: [65010]
stop_after: 5000
`)
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Routers) != 2 || len(s.Externals) != 1 {
		t.Fatalf("expected 2 routers and 1 external, got %d/%d", len(s.Routers), len(s.Externals))
	}
	if s.StopAfter != 5000 {
		t.Fatalf("expected stop_after 5000, got %d", s.StopAfter)
	}
}

func TestParseRejectsUnknownRouterReference(t *testing.T) {
	data := []byte(`
routers:
  - name: r1
    as: 65001
links:
  - a: r1
    z: r2
`)
	_, err := Parse(data)
	if err == nil {
		t.Fatalf("expected an error referencing an undeclared router")
	}
	if !strings.Contains(err.Error(), "r2") {
		t.Fatalf("expected error to name the unknown router, got %v", err)
	}
}

func TestParseRejectsDuplicateRouterName(t *testing.T) {
	data := []byte(`
routers:
  - name: r1
    as: 65001
  - name: r1
    as: 65002
`)
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected an error for a duplicate router name")
	}
}

func TestParseRejectsInvalidSessionKind(t *testing.T) {
	data := []byte(`
routers:
  - name: r1
    as: 65001
  - name: r2
    as: 65001
sessions:
  - a: r1
    z: r2
    kind: bogus
`)
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected an error for an invalid session kind")
	}
}

func TestLoadReadsScenarioFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	content := "routers:\n  - name: r1\n    as: 65001\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error writing fixture: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Routers) != 1 || s.Routers[0].Name != "r1" {
		t.Fatalf("expected one router named r1, got %+v", s.Routers)
	}
}

func TestParseRejectsNewerAPIVersion(t *testing.T) {
	data := []byte(`
api_version: v9.0.0
routers:
  - name: r1
    as: 65001
`)
	_, err := Parse(data)
	if err == nil {
		t.Fatalf("expected an error for an api_version newer than supported")
	}
	if !strings.Contains(err.Error(), "v9.0.0") {
		t.Fatalf("expected error to name the offending version, got %v", err)
	}
}

func TestParseAcceptsCurrentAPIVersion(t *testing.T) {
	data := []byte(`
api_version: v1.0.0
routers:
  - name: r1
    as: 65001
`)
	if _, err := Parse(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/scenario.yaml"); err == nil {
		t.Fatalf("expected an error for a missing scenario file")
	}
}
