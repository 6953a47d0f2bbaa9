//go:build !linux

package healthcheck

import "github.com/serum-errors/go-serum"

// utsname mirrors the linux syscall struct so KernelInfo compiles everywhere;
// only the linux build ever fills one in.
type utsname struct {
	Sysname    [65]int8
	Nodename   [65]int8
	Release    [65]int8
	Version    [65]int8
	Machine    [65]int8
	Domainname [65]int8
}

// The access probes need faccessat(2) semantics; outside linux every probe
// reports ambiguous.

func executionAccess(path string) error {
	return serum.Error(CodeRunAmbiguous, serum.WithMessageLiteral("execution access probe is only wired up on linux"))
}

func directoryAccess(path string) error {
	return serum.Error(CodeRunAmbiguous, serum.WithMessageLiteral("directory access probe is only wired up on linux"))
}

func uname() (*utsname, error) {
	return nil, serum.Error(CodeRunAmbiguous, serum.WithMessageLiteral("kernel info is only wired up on linux"))
}
