package loomapp

import (
	appbase "github.com/warptools/loom/app/base"
	_ "github.com/warptools/loom/app/cat"
	_ "github.com/warptools/loom/app/graph"
	_ "github.com/warptools/loom/app/healthcheck"
	_ "github.com/warptools/loom/app/html"
	_ "github.com/warptools/loom/app/init"
	_ "github.com/warptools/loom/app/mirror"
	_ "github.com/warptools/loom/app/tree"
)

var App = appbase.App
