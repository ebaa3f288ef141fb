// Package workspacefinder locates the parknet workspace: the nearest
// directory at or above a start point that holds parknet.yaml.
package workspacefinder

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
)

// ConfigFile names the workspace marker and configuration file.
const ConfigFile = "parknet.yaml"

type Finder struct {
	ConfigFile string
}

func NewFinder() *Finder {
	return &Finder{ConfigFile: ConfigFile}
}

var _ ports.WorkspaceLocator = (*Finder)(nil)

func (f *Finder) FindRoot(startDir string) (string, error) {
	if startDir == "" {
		return "", &domain.OpError{
			Op:   "workspacefinder.findroot",
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("startDir is empty"),
		}
	}

	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", &domain.OpError{
			Op:   "workspacefinder.findroot",
			Kind: domain.KindExecution,
			Err:  err,
		}
	}

	// a file path searches from its directory
	info, statErr := os.Stat(abs)
	if statErr == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	cur := filepath.Clean(abs)
	for {
		if _, err := os.Stat(filepath.Join(cur, f.ConfigFile)); err == nil {
			return cur, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", &domain.OpError{
				Op:   "workspacefinder.findroot",
				Kind: domain.KindNotFound,
				Path: abs,
				Err:  domain.ErrNotFound,
			}
		}
		cur = parent
	}
}

// Resolve picks the workspace for a command. An explicit dir must be a
// workspace. Otherwise the search starts at cwd, and finding nothing is not
// an error: the harness then runs on built-in defaults and root is "".
func (f *Finder) Resolve(explicit, cwd string) (string, error) {
	if explicit != "" {
		root, err := f.FindRoot(explicit)
		if err != nil {
			return "", err
		}
		abs, _ := filepath.Abs(explicit)
		if root != filepath.Clean(abs) {
			return "", &domain.OpError{
				Op:   "workspacefinder.resolve",
				Kind: domain.KindNotFound,
				Path: explicit,
				Err:  errors.New(f.ConfigFile + " not found in directory"),
			}
		}
		return root, nil
	}

	root, err := f.FindRoot(cwd)
	if domain.IsKind(err, domain.KindNotFound) {
		return "", nil
	}
	return root, err
}
