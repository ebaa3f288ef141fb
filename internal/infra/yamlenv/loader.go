// Package yamlenv reads env/<name>.yaml files and the optional secrets file
// merged on top of them.
package yamlenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
)

const (
	DefaultDir     = "env"
	DefaultSecrets = "secrets.local.yaml"
)

type Loader struct {
	rootDir     string
	envDir      string
	secretsFile string
}

type Option func(*Loader)

func WithEnvDir(dir string) Option {
	return func(l *Loader) { l.envDir = dir }
}

func WithSecretsFile(name string) Option {
	return func(l *Loader) { l.secretsFile = name }
}

func NewLoader(root string, opts ...Option) *Loader {
	l := &Loader{
		rootDir:     root,
		envDir:      DefaultDir,
		secretsFile: DefaultSecrets,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var (
	_ ports.EnvironmentLoader  = (*Loader)(nil)
	_ ports.EnvironmentCatalog = (*Loader)(nil)
)

// LoadEnvironment accepts an environment name ("local") or a path to a YAML
// file. Secrets living next to the file override its vars.
func (l *Loader) LoadEnvironment(nameOrPath string) (domain.Environment, error) {
	envPath, envName := l.locate(nameOrPath)

	base, err := readVars(envPath)
	if err != nil {
		return domain.Environment{}, err
	}

	secretsPath := filepath.Join(filepath.Dir(envPath), l.secretsFile)
	if filepath.Clean(secretsPath) == filepath.Clean(envPath) {
		return domain.Environment{Name: envName, Vars: base}, nil
	}
	secrets, err := readVarsOptional(secretsPath)
	if err != nil {
		return domain.Environment{}, err
	}

	return domain.Environment{
		Name: envName,
		Vars: domain.Merge(base, secrets),
	}, nil
}

func (l *Loader) locate(nameOrPath string) (path, name string) {
	if strings.HasSuffix(nameOrPath, ".yaml") || strings.HasSuffix(nameOrPath, ".yml") || strings.ContainsRune(nameOrPath, filepath.Separator) {
		path = filepath.Clean(nameOrPath)
		return path, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return filepath.Join(l.rootDir, l.envDir, nameOrPath+".yaml"), nameOrPath
}

// ListEnvironments lists the environment files under root, secrets excluded,
// sorted by name.
func (l *Loader) ListEnvironments(root string) ([]domain.EnvironmentRef, error) {
	if root == "" {
		root = l.rootDir
	}
	dir := filepath.Join(root, l.envDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		kind := domain.KindExecution
		if errors.Is(err, os.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return nil, &domain.OpError{Op: "yamlenv.list", Kind: kind, Path: dir, Err: err}
	}

	var out []domain.EnvironmentRef
	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") || name == l.secretsFile {
			continue
		}
		out = append(out, domain.EnvironmentRef{
			Name: strings.TrimSuffix(name, ext),
			Path: filepath.Join(dir, name),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type yamlEnv struct {
	Vars map[string]any `yaml:"vars"`
}

// readVars reads the vars map of path. Scalars of any type are kept in
// their YAML text form; names starting with "$" are reserved for built-ins.
func readVars(path string) (domain.Vars, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "yamlenv.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var y yamlEnv
	if err := yaml.Unmarshal(b, &y); err != nil {
		return nil, &domain.OpError{
			Op:   "yamlenv.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	out := make(domain.Vars, len(y.Vars))
	for k, v := range y.Vars {
		if strings.HasPrefix(k, "$") {
			return nil, invalid(path, fmt.Errorf("var %q: names starting with $ are reserved", k))
		}
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case bool, int, int64, uint64, float64:
			out[k] = fmt.Sprint(val)
		default:
			return nil, invalid(path, fmt.Errorf("var %q: expected a scalar, got %T", k, v))
		}
	}
	return out, nil
}

func readVarsOptional(path string) (domain.Vars, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Vars{}, nil
		}
		return nil, &domain.OpError{
			Op:   "yamlenv.secrets",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	v, err := readVars(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	return v, nil
}

func invalid(path string, err error) error {
	return &domain.OpError{
		Op:   "yamlenv.load",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err),
	}
}
