package ports

// WorkspaceLocator finds a workspace root (the directory holding parknet.yaml)
// starting from an arbitrary directory.
type WorkspaceLocator interface {
	FindRoot(startDir string) (string, error)
}
