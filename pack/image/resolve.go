package image

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domainimage "github.com/imagereader/imagereader-mcp/domain/image"
)

// Resolver turns a user-supplied path into an absolute file path.
// Absolute paths are cleaned; "~" and "~/x" expand to the home directory;
// anything else is joined to the home directory.
type Resolver struct {
	home func() (string, error)
}

// NewResolver creates a resolver. A nil home uses os.UserHomeDir.
func NewResolver(home func() (string, error)) *Resolver {
	if home == nil {
		home = os.UserHomeDir
	}
	return &Resolver{home: home}
}

// Resolve returns the absolute path for p.
func (r *Resolver) Resolve(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: path is empty", domainimage.ErrPathResolution)
	}
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: path contains a NUL byte", domainimage.ErrPathResolution)
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}

	home, err := r.home()
	if err != nil {
		return "", fmt.Errorf("%w: home directory: %v", domainimage.ErrPathResolution, err)
	}

	switch {
	case p == "~":
		return filepath.Clean(home), nil
	case strings.HasPrefix(p, "~/"), strings.HasPrefix(p, `~\`):
		p = p[2:]
	}
	return filepath.Join(home, p), nil
}
