package healthcheck

import (
	"context"
	"fmt"
	"os"

	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/pkg/config"
)

// DataRootCheck probes whether the resolved data root exists and is fully
// accessible.  A missing root is ambiguous rather than a failure: the user
// may simply not have run `loom init` yet.
type DataRootCheck struct {
	Path string
}

func (c *DataRootCheck) String() string {
	return fmt.Sprintf("Data Root: %q", c.Path)
}

// Run executes the checker
// Errors:
//
//    - loom-error-healthcheck-run-okay -- when the data root is accessible
//    - loom-error-healthcheck-run-fail -- when the data root cannot be accessed
//    - loom-error-healthcheck-run-ambiguous -- when the data root does not exist
func (c *DataRootCheck) Run(ctx context.Context) error {
	fi, err := os.Stat(c.Path)
	if os.IsNotExist(err) {
		return serum.Error(CodeRunAmbiguous,
			serum.WithMessageTemplate("data root {{path|q}} does not exist; run `loom init`"),
			serum.WithDetail("path", c.Path),
		)
	}
	if err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageTemplate("cannot stat data root {{path|q}}"),
			serum.WithDetail("path", c.Path),
		)
	}
	if !fi.IsDir() {
		return serum.Error(CodeRunFailure,
			serum.WithMessageTemplate("data root {{path|q}} is not a directory"),
			serum.WithDetail("path", c.Path),
		)
	}
	if err := directoryAccess(c.Path); err != nil {
		return err
	}
	marker := c.Path + string(os.PathSeparator) + config.DefaultRootDirname
	if _, err := os.Stat(marker); os.IsNotExist(err) {
		return serum.Error(CodeRunAmbiguous,
			serum.WithMessageTemplate("data root {{path|q}} has no envelope directory; run `loom init`"),
			serum.WithDetail("path", c.Path),
		)
	}
	return serum.Errorf(CodeRunOkay, "path: %s", c.Path)
}
