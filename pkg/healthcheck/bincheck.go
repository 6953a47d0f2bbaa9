package healthcheck

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/serum-errors/go-serum"
)

// BinCheck looks for an executable by name.  SearchPath is probed first when
// set; the environment PATH is the fallback.  Clones over ssh transports can
// shell out, so `git` gets checked here.
type BinCheck struct {
	Name       string
	SearchPath string
}

func (c *BinCheck) String() string {
	return fmt.Sprintf("Binary Path Check: %q", c.Name)
}

func isExecutable(m fs.FileMode) bool {
	return m&0111 != 0
}

func isSymlink(m fs.FileMode) bool {
	return m&fs.ModeSymlink == fs.ModeSymlink
}

// followLink chases a symlink chain to its end, for display purposes.
// Returns an empty string on broken links or cycles.
func followLink(path string) string {
	for hops := 0; hops < 40; hops++ {
		fi, err := os.Lstat(path)
		if err != nil {
			return ""
		}
		if !isSymlink(fi.Mode()) {
			return path
		}
		path, err = os.Readlink(path)
		if err != nil {
			return ""
		}
	}
	return ""
}

// lookup resolves the binary name to a path.
func (c *BinCheck) lookup() (string, error) {
	if c.SearchPath != "" {
		path := filepath.Join(c.SearchPath, c.Name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return exec.LookPath(c.Name)
}

// Run checks that an executable can be found for the given executable name
// Errors:
//
//    - loom-error-healthcheck-run-okay -- when the binary is found
//    - loom-error-healthcheck-run-fail -- when the binary cannot be found
func (c *BinCheck) Run(ctx context.Context) error {
	path, err := c.lookup()
	if err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageTemplate("Could not find binary {{name|q}}"),
			serum.WithDetail("name", c.Name),
		)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageTemplate("Could not find binary at path {{path|q}}"),
			serum.WithDetail("path", path),
		)
	}
	mode := fi.Mode()
	if !mode.IsRegular() {
		return serum.Error(CodeRunFailure,
			serum.WithMessageTemplate("file {{path|q}} is not a regular file"),
			serum.WithDetail("path", path),
		)
	}
	if !isExecutable(mode) {
		return serum.Error(CodeRunFailure,
			serum.WithMessageTemplate("file {{path|q}} is not executable"),
			serum.WithDetail("path", path),
		)
	}

	if err := executionAccess(path); err != nil {
		return err
	}

	if fi, err := os.Lstat(path); err == nil && isSymlink(fi.Mode()) {
		return serum.Errorf(CodeRunOkay, "symlink: %q -> %q", path, followLink(path))
	}

	return serum.Errorf(CodeRunOkay, "path: %s", path)
}
