package healthcheck

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/logging"
)

// Every check reports its outcome as a serum error carrying one of these codes.
const (
	CodeRunOkay      = "loom-error-healthcheck-run-okay"
	CodeRunFailure   = "loom-error-healthcheck-run-fail"
	CodeRunAmbiguous = "loom-error-healthcheck-run-ambiguous"
)

type HealthCheckStatus int

const (
	StatusNone HealthCheckStatus = iota // Zero value; nothing ran.
	StatusOkay
	StatusFail
	StatusAmbiguous
	StatusUnknown
)

// String returns the single glyph used for this status in terminal output.
func (s HealthCheckStatus) String() string {
	switch s {
	case StatusNone:
		return "∅"
	case StatusOkay:
		return "✔"
	case StatusAmbiguous:
		return "?"
	case StatusFail:
		return "✘"
	default:
		return "!"
	}
}

// statusColor picks the color a status glyph renders in.
func statusColor(s HealthCheckStatus) *color.Color {
	c := color.New()
	switch s {
	case StatusNone:
		return c.Add(color.Reset)
	case StatusOkay:
		return c.Add(color.FgHiGreen, color.Bold)
	case StatusAmbiguous:
		return c.Add(color.FgHiYellow, color.Bold)
	case StatusFail:
		return c.Add(color.FgHiRed, color.Bold)
	default:
		return c.Add(color.FgHiMagenta, color.Bold)
	}
}

type Runner interface {
	// Run reports the check's outcome as a serum error; returning nil is a
	// bug in the runner.
	// Errors:
	//
	//    - loom-error-healthcheck-run-okay --
	//    - loom-error-healthcheck-run-fail --
	//    - loom-error-healthcheck-run-ambiguous --
	Run(context.Context) error
	// String is the row header shown next to the check's result.
	String() string
}

const DefaultScratchPrefix = "loom-health-check-scratch-"

var DefaultBasePath = os.TempDir()

type HealthCheck struct {
	Runners []Runner
	Results []serum.ErrorInterfaceWithMessage
}

// Run executes all the runners assigned to this health check.
// Errors: none -- outcomes land in Results rather than being returned
func (h *HealthCheck) Run(ctx context.Context) error {
	log := logging.Ctx(ctx)
	h.Results = make([]serum.ErrorInterfaceWithMessage, 0, len(h.Runners))
	for i, runnable := range h.Runners {
		log.Debug("", "healthcheck runner %d", i)
		h.Results = append(h.Results, asResult(runnable.Run(ctx)))
	}
	return nil
}

// asResult coerces a runner's return into a displayable result.
// Runners are supposed to return serum errors with messages; anything else
// gets wrapped as a failure.
func asResult(err error) serum.ErrorInterfaceWithMessage {
	if result, ok := err.(serum.ErrorInterfaceWithMessage); ok {
		return result
	}
	return serum.Errorf(CodeRunFailure, "runner has invalid interface: %w", err).(serum.ErrorInterfaceWithMessage)
}

// Fprint emits one formatted result row per check to the writer.
// Errors:
//
//     - loom-error-internal -- when the health check was not run before printing results
func (h *HealthCheck) Fprint(w io.Writer) error {
	if len(h.Runners) != len(h.Results) {
		return serum.Error(loomapi.ECodeInternal,
			serum.WithMessageLiteral("HealthCheck must run before printing results"),
		)
	}
	maxHeaderLen := 0
	headers := make([]string, len(h.Runners))
	for i, runner := range h.Runners {
		headers[i] = runner.String()
		if n := len(headers[i]); n > maxHeaderLen {
			maxHeaderLen = n
		}
	}
	for i, result := range h.Results {
		status := Status(result)
		fmt.Fprintf(w, " %s  %-*s\t%s\n", statusColor(status).Sprint(status), maxHeaderLen, headers[i], result.Message())
	}
	return nil
}

// Status maps serum codes to status enumeration values.
func Status(err error) HealthCheckStatus {
	if err == nil {
		return StatusNone
	}
	if _, ok := err.(serum.ErrorInterface); !ok {
		return StatusNone
	}
	switch serum.Code(err) {
	case CodeRunOkay:
		return StatusOkay
	case CodeRunFailure:
		return StatusFail
	case CodeRunAmbiguous:
		return StatusAmbiguous
	default:
		return StatusUnknown
	}
}
