package healthcheck

import (
	"context"
	"fmt"
	"os"

	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
	"github.com/warptools/loom/pkg/warehouse"
)

// ScratchCheck saves and reloads a small file node through a throwaway data
// root, proving the storage stack works end to end on this machine.
type ScratchCheck struct {
	// The directory where a scratch data root will be created
	BasePath string
	// Prefix for the scratch data root directory
	TmpDirPrefix string
	// The scratch data root directory
	ScratchDir string
}

func (e *ScratchCheck) String() string {
	path := e.ScratchDir
	if path == "" {
		path = e.BasePath
	}
	if path == "" {
		path = DefaultBasePath
	}
	return fmt.Sprintf("Scratch Root: %s", path)
}

// Run builds a scratch data root, saves a file node into it, and reads the
// node back through a fresh handle.
//
// Errors:
//
//    - loom-error-healthcheck-run-okay --
//    - loom-error-healthcheck-run-fail --
func (e *ScratchCheck) Run(ctx context.Context) error {
	if e.BasePath == "" {
		e.BasePath = DefaultBasePath
	}
	if e.TmpDirPrefix == "" {
		e.TmpDirPrefix = DefaultScratchPrefix
	}

	scratchDir, xerr := os.MkdirTemp(e.BasePath, e.TmpDirPrefix)
	if xerr != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(xerr),
			serum.WithMessageTemplate("failed to make temporary directory inside path, {{basepath|q}}"),
			serum.WithDetail("basepath", e.BasePath),
		)
	}
	e.ScratchDir = scratchDir
	defer os.RemoveAll(scratchDir)

	store := warehouse.DirStore(scratchDir)
	source := warehouse.NewJSONSource[string](store)
	kind := datagraph.FileKind[string](datagraph.NewKindID(), "scratch", "probe", source)
	md := loomapi.NewMetadata(map[string]string{"check": "storage"})

	elems := []string{"warp", "weft"}
	out := datagraph.NewFile[string](kind, "", md, store, source)
	out.Assign(elems)
	if err := out.Save(ctx); err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageLiteral("failed to save scratch node"),
		)
	}

	in := datagraph.NewFile[string](kind, "", md, store, source)
	got, err := in.At(ctx, -1)
	if err != nil {
		return serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageLiteral("failed to reload scratch node"),
		)
	}
	if got != elems[len(elems)-1] {
		return serum.Errorf(CodeRunFailure, "scratch node corrupt: read %q, wrote %q", got, elems[len(elems)-1])
	}

	return serum.Errorf(CodeRunOkay, "scratch root at %s", scratchDir)
}
