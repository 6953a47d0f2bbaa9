package loomapp_test

import (
	"testing"

	"github.com/warptools/loom/app/testutil"
)

func TestExampleDirCLI(t *testing.T) {
	testutil.TestFileContainingTestmarkexec(t, "../examples/cli.md", nil)
}
