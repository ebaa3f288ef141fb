package fsworkspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/infra/config"
	"github.com/hextract/parking-net/internal/infra/yamlenv"
)

func TestInitializer_Init_CreatesWorkspaceFiles(t *testing.T) {
	tmp := t.TempDir()

	i := NewInitializer()
	if err := i.Init(domain.WorkspaceSpec{Root: tmp}, false); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	assertFileExists(t, filepath.Join(tmp, "parknet.yaml"))
	assertFileExists(t, filepath.Join(tmp, "env", "local.yaml"))
	assertFileExists(t, filepath.Join(tmp, ".parknet"))

	secretPath := filepath.Join(tmp, "env", "secrets.local.yaml")
	assertFileExists(t, secretPath)
	info, err := os.Stat(secretPath)
	if err != nil {
		t.Fatalf("stat secrets file: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Fatalf("expected secrets file mode 600, got %o", got)
	}
}

func TestInitializer_Init_ScaffoldLoads(t *testing.T) {
	tmp := t.TempDir()
	if err := NewInitializer().Init(domain.WorkspaceSpec{Root: tmp}, false); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	cfg, err := config.Load(tmp)
	if err != nil {
		t.Fatalf("scaffolded parknet.yaml does not load: %v", err)
	}
	if cfg.Services.Auth.BaseURL != "{{gateway}}" {
		t.Fatalf("expected templated gateway, got %q", cfg.Services.Auth.BaseURL)
	}

	env, err := yamlenv.NewLoader(tmp).LoadEnvironment(cfg.Defaults.Environment)
	if err != nil {
		t.Fatalf("scaffolded env does not load: %v", err)
	}
	vars := env.Vars
	if vars["gateway"] != "http://localhost:8080" {
		t.Fatalf("expected gateway var, got %q", vars["gateway"])
	}
	if vars["keycloak_admin_password"] != "admin" {
		t.Fatalf("expected secrets merged, got %v", vars)
	}
}

func TestInitializer_Init_SkipsExistingFilesUnlessForce(t *testing.T) {
	tmp := t.TempDir()

	cfgPath := filepath.Join(tmp, "parknet.yaml")
	if err := os.WriteFile(cfgPath, []byte("custom\n"), 0o644); err != nil {
		t.Fatalf("write existing parknet.yaml: %v", err)
	}

	i := NewInitializer()

	if err := i.Init(domain.WorkspaceSpec{Root: tmp}, false); err != nil {
		t.Fatalf("Init (force=false) error: %v", err)
	}

	b, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read parknet.yaml: %v", err)
	}
	if string(b) != "custom\n" {
		t.Fatalf("expected parknet.yaml preserved, got %q", string(b))
	}

	if err := i.Init(domain.WorkspaceSpec{Root: tmp}, true); err != nil {
		t.Fatalf("Init (force=true) error: %v", err)
	}

	b, err = os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read parknet.yaml after force: %v", err)
	}
	if !strings.Contains(string(b), "services:") {
		t.Fatalf("expected parknet.yaml overwritten with template, got %q", string(b))
	}
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file %s, stat err=%v", path, err)
	}
}
