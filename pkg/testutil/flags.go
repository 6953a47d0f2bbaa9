package testutil

import "flag"

// FlagOffline marks that tests which reach out to the network should skip
// themselves.
var FlagOffline = flag.Bool("testutil.offline", false, "skip tests that use the network")
