package healthcheck

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unsafe"

	"github.com/serum-errors/go-serum"
)

// KernelInfo reports the running kernel's identification.  It has no pass
// or fail condition of its own; the result is always ambiguous, carrying
// the uname fields for a human reading the report.
type KernelInfo struct{}

// Run executes the checker
// Errors:
//
//    - loom-error-healthcheck-run-fail -- syscall failure
//    - loom-error-healthcheck-run-ambiguous -- returns kernel info
func (k *KernelInfo) Run(ctx context.Context) error {
	u, err := uname()
	if err != nil {
		return err
	}
	var sb strings.Builder
	for _, field := range []struct {
		name  string
		value []int8
	}{
		{"Sysname", u.Sysname[:]},
		{"Nodename", u.Nodename[:]},
		{"Release", u.Release[:]},
		{"Version", u.Version[:]},
		{"Machine", u.Machine[:]},
		{"Domainname", u.Domainname[:]},
	} {
		fmt.Fprintf(&sb, "\n\t%10s: %s", field.name, cstr(field.value))
	}
	return serum.Errorf(CodeRunAmbiguous, "%s", sb.String())
}

func (k *KernelInfo) String() string {
	return "Kernel info"
}

// cstr converts a NUL-padded kernel char array to a Go string.
func cstr(x []int8) string {
	b := unsafe.Slice((*byte)(unsafe.Pointer(&x[0])), len(x))
	return string(bytes.TrimRight(b, "\x00"))
}
