package healthcheckcli

import (
	"github.com/urfave/cli/v2"

	appbase "github.com/warptools/loom/app/base"
	"github.com/warptools/loom/app/base/util"
	"github.com/warptools/loom/pkg/healthcheck"
	"github.com/warptools/loom/pkg/logging"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, healthcheckCmdDef)
}

var healthcheckCmdDef = &cli.Command{
	Name:  "healthcheck",
	Usage: "Check for potential errors in system configuration",
	Action: util.ChainCmdMiddleware(cmdHealth,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

func cmdHealth(c *cli.Context) error {
	ctx := c.Context
	log := logging.Ctx(ctx)

	dataRoot, err := util.DataRoot(c)
	if err != nil {
		return err
	}

	hc := &healthcheck.HealthCheck{
		Runners: []healthcheck.Runner{
			&healthcheck.KernelInfo{},
			&healthcheck.BinCheck{Name: "git"},
			&healthcheck.DataRootCheck{Path: dataRoot},
			&healthcheck.ScratchCheck{},
		},
	}
	if err := hc.Run(ctx); err != nil {
		log.Info("", "health check critical error: %s", err)
		return err
	}

	log.Debug("", "runners=%d, results=%d", len(hc.Runners), len(hc.Results))

	if err := hc.Fprint(c.App.Writer); err != nil {
		return err
	}
	return nil
}
