package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/infra/config"
	"github.com/hextract/parking-net/internal/infra/httpclient"
	"github.com/hextract/parking-net/internal/infra/httprunner"
	"github.com/hextract/parking-net/internal/infra/keycloak"
	"github.com/hextract/parking-net/internal/infra/logger"
	"github.com/hextract/parking-net/internal/infra/workspacefinder"
	"github.com/hextract/parking-net/internal/infra/yamlenv"
	"github.com/hextract/parking-net/internal/ports"
	"github.com/hextract/parking-net/internal/usecase"
)

// workspaceCtx is what every command needs from the workspace. root is empty
// when the harness runs on built-in defaults.
type workspaceCtx struct {
	root string
	cfg  domain.Config

	envs       ports.EnvironmentLoader
	envCatalog ports.EnvironmentCatalog
}

func loadWorkspace(workspaceFlag string) (*workspaceCtx, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	root, err := workspacefinder.NewFinder().Resolve(strings.TrimSpace(workspaceFlag), wd)
	if err != nil {
		return nil, fmt.Errorf("workspace %q (tip: run `parknet-e2e init`): %w", workspaceFlag, err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	ws := &workspaceCtx{root: root, cfg: cfg}
	if root != "" {
		loader := yamlenv.NewLoader(root)
		ws.envs = loader
		ws.envCatalog = loader
	}
	return ws, nil
}

// environment picks the -e flag or the configured default. Without a
// workspace there are no env files to load.
func (ws *workspaceCtx) environment(flag string) string {
	if ws.root == "" {
		return ""
	}
	if in := strings.TrimSpace(flag); in != "" {
		return in
	}
	return ws.cfg.Defaults.Environment
}

func (ws *workspaceCtx) transport() ports.Transport {
	exec := httpclient.NewExecutor(
		httpclient.WithClient(httpclient.New(httpclient.DefaultConfig().WithTimeout(ws.cfg.HTTP.Timeout))),
		httpclient.WithTimeout(ws.cfg.HTTP.Timeout),
		httpclient.WithMaxBodyBytes(ws.cfg.HTTP.MaxBodyBytes),
	)
	return httprunner.New(exec,
		httprunner.WithCredentialHeader(ws.cfg.HTTP.CredentialHeader),
		httprunner.WithLogger(logger.L()),
	)
}

func keycloakFactory(cfg domain.IdentityAdminConfig) ports.IdentityAdmin {
	return keycloak.New(cfg, keycloak.WithLogger(logger.L()))
}

var _ usecase.IdentityAdminFactory = keycloakFactory
