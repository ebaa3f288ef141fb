package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hextract/parking-net/internal/buildinfo"
	"github.com/hextract/parking-net/internal/twin"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeWorkspace(t *testing.T, gateway string) string {
	t.Helper()
	root := t.TempDir()
	cfg := `defaults:
  environment: local
http:
  timeout: 5s
services:
  auth:
    base_url: "{{gateway}}"
  parking:
    base_url: "{{gateway}}"
  booking:
    base_url: "{{gateway}}"
  payment:
    base_url: "{{gateway}}"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "parknet.yaml"), []byte(cfg), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "env"), 0o755))
	env := "vars:\n  gateway: " + gateway + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "env", "local.yaml"), []byte(env), 0o644))
	return root
}

func TestRunAgainstTwin(t *testing.T) {
	tw := twin.New()
	tw.AddUser("e2e_admin", "e2e_admin@test.com", "AdminPass123", "admin")
	srv := httptest.NewServer(tw.Handler())
	defer srv.Close()

	root := writeWorkspace(t, srv.URL)

	out, err := execute(t, "run", "-w", root)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Starting Integration Tests")
	assert.Contains(t, out, "All services are available")
	assert.Contains(t, out, "Tests completed: ")
	assert.Contains(t, out, " 0 failed")
	assert.FileExists(t, filepath.Join(root, ".parknet", "logs", "parknet-e2e.log"))
}

func TestRunInterruptedReportsCanceled(t *testing.T) {
	tw := twin.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Interrupt once the first step has been answered.
	h := tw.Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
		if r.URL.Path == "/auth/register" {
			cancel()
		}
	}))
	defer srv.Close()

	root := writeWorkspace(t, srv.URL)

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"run", "-w", root})
	err := cmd.ExecuteContext(ctx)

	require.EqualError(t, err, "run canceled")
	assert.Contains(t, out.String(), "Tests canceled: ")
}

func TestRunOnlySelection(t *testing.T) {
	srv := httptest.NewServer(twin.New().Handler())
	defer srv.Close()

	root := writeWorkspace(t, srv.URL)

	out, err := execute(t, "run", "-w", root, "--only", "get_parking_by_id")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Tests completed: 6 passed, 0 failed, 0 skipped")
}

func TestRunUnavailableServicesFails(t *testing.T) {
	srv := httptest.NewServer(twin.New().Handler())
	dead := srv.URL
	srv.Close()

	root := writeWorkspace(t, dead)

	out, err := execute(t, "run", "-w", root)
	require.Error(t, err)
	assert.Equal(t, "run failed (1 failed step(s))", err.Error())
	assert.Contains(t, out, "Start the services with: docker-compose up -d")
	assert.Contains(t, out, "Tests aborted: 0 passed, 1 failed")
}

func TestRunUnknownStep(t *testing.T) {
	root := writeWorkspace(t, "http://127.0.0.1:1")

	_, err := execute(t, "run", "-w", root, "--only", "no_such_step")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_step")
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(twin.New().Handler())
	defer srv.Close()

	out, err := execute(t, "probe", "-w", writeWorkspace(t, srv.URL))
	require.NoError(t, err, out)
	assert.Equal(t, 4, strings.Count(out, "is available at"))
}

func TestStepsListsCatalog(t *testing.T) {
	out, err := execute(t, "steps")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 44)
	assert.Contains(t, lines[0], "REQUIRES")
	assert.Contains(t, lines[1], "register_owner")
	assert.Contains(t, lines[43], "change_password")
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "-w", writeWorkspace(t, "http://localhost:8080"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "Steps:     43")
	assert.Contains(t, out, "OK")
}

func TestValidateReportsMissingVariable(t *testing.T) {
	root := writeWorkspace(t, "http://localhost:8080")
	require.NoError(t, os.WriteFile(filepath.Join(root, "env", "local.yaml"), []byte("vars: {}\n"), 0o644))

	_, err := execute(t, "validate", "-w", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway")
}

func TestInitThenEnvs(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, "init", root)
	require.NoError(t, err, out)
	assert.FileExists(t, filepath.Join(root, "parknet.yaml"))

	out, err = execute(t, "envs", "-w", root)
	require.NoError(t, err, out)
	assert.Contains(t, out, "- local")
	assert.NotContains(t, out, "secrets")
}

func TestWorkspaceFlagMustHoldConfig(t *testing.T) {
	_, err := execute(t, "validate", "-w", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parknet-e2e init")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, buildinfo.String()+"\n", out)
}
