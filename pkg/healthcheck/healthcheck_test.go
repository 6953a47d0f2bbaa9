//go:build linux

package healthcheck

import (
	"context"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"
)

func TestStatusMapping(t *testing.T) {
	qt.Check(t, Status(nil), qt.Equals, StatusNone)
	qt.Check(t, Status(serum.Errorf(CodeRunOkay, "fine")), qt.Equals, StatusOkay)
	qt.Check(t, Status(serum.Errorf(CodeRunFailure, "broken")), qt.Equals, StatusFail)
	qt.Check(t, Status(serum.Errorf(CodeRunAmbiguous, "shrug")), qt.Equals, StatusAmbiguous)
	qt.Check(t, Status(serum.Errorf("loom-error-io", "other")), qt.Equals, StatusUnknown)
}

func TestScratchCheck(t *testing.T) {
	check := &ScratchCheck{BasePath: t.TempDir()}
	err := check.Run(context.Background())
	qt.Assert(t, serum.Code(err), qt.Equals, CodeRunOkay)
}

func TestDataRootCheck(t *testing.T) {
	t.Run("missing root is ambiguous", func(t *testing.T) {
		check := &DataRootCheck{Path: t.TempDir() + "/nope"}
		err := check.Run(context.Background())
		qt.Assert(t, serum.Code(err), qt.Equals, CodeRunAmbiguous)
	})
	t.Run("uninitialized root is ambiguous", func(t *testing.T) {
		check := &DataRootCheck{Path: t.TempDir()}
		err := check.Run(context.Background())
		qt.Assert(t, serum.Code(err), qt.Equals, CodeRunAmbiguous)
	})
}

func TestHealthCheckFprint(t *testing.T) {
	ctx := context.Background()
	hc := &HealthCheck{Runners: []Runner{
		&ScratchCheck{BasePath: t.TempDir()},
	}}
	qt.Assert(t, hc.Run(ctx), qt.IsNil)
	var sb strings.Builder
	qt.Assert(t, hc.Fprint(&sb), qt.IsNil)
	qt.Check(t, sb.String(), qt.Contains, "Scratch Root")

	empty := &HealthCheck{Runners: []Runner{&KernelInfo{}}}
	qt.Check(t, serum.Code(empty.Fprint(&sb)), qt.Equals, "loom-error-internal")
}
