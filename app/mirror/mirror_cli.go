package mirrorcli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/serum-errors/go-serum"
	"github.com/urfave/cli/v2"

	appbase "github.com/warptools/loom/app/base"
	"github.com/warptools/loom/app/base/util"
	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/logging"
	"github.com/warptools/loom/pkg/mirror"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, mirrorCmdDef)
}

var mirrorCmdDef = &cli.Command{
	Name:  "mirror",
	Usage: "Push payloads named by the graph index to the configured mirror",
	Description: "Reads the push target from mirror.json at the data root, then uploads\n" +
		"every payload the graph index records.  Payloads the mirror already\n" +
		"holds are skipped, so repeated runs only send what changed.",
	Action: util.ChainCmdMiddleware(cmdMirror,
		util.CmdMiddlewareLogging,
		util.CmdMiddlewareTracingConfig,
		util.CmdMiddlewareTracingSpan,
	),
}

func cmdMirror(c *cli.Context) error {
	ctx := c.Context
	log := logging.Ctx(ctx)

	store, dataRoot, err := util.OpenStore(c)
	if err != nil {
		return err
	}
	idx, err := util.LoadGraphIndex(dataRoot)
	if err != nil {
		return err
	}

	cfgPath := filepath.Join(dataRoot, mirror.ConfigFilename)
	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return serum.Error(loomapi.ECodeMissing,
			serum.WithMessageTemplate("no mirror config at {{path|q}}"),
			serum.WithDetail("path", cfgPath),
		)
	} else if err != nil {
		return loomapi.ErrorIo("failed to read mirror config", cfgPath, err)
	}
	cfg, err := loomapi.ParseMirrorConfig(data)
	if err != nil {
		return err
	}

	log.Info("mirror", "mirroring to %s", describeTarget(cfg))
	if err := mirror.Push(ctx, store, idx, *cfg); err != nil {
		return err
	}

	if !c.Bool("quiet") {
		fmt.Fprintf(c.App.Writer, "pushed payloads to %s\n", describeTarget(cfg))
	}
	return nil
}

func describeTarget(cfg *loomapi.MirrorConfig) string {
	switch {
	case cfg.PushConfig.S3 != nil:
		return fmt.Sprintf("s3 bucket %q at %s", cfg.PushConfig.S3.Bucket, cfg.PushConfig.S3.Endpoint)
	default:
		return "mock target"
	}
}
