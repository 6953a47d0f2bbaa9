package util

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/warptools/loom/pkg/logging"
	"github.com/warptools/loom/pkg/tracing"
)

// ChainCmdMiddleware wraps a command action in the given middleware.
// The first middleware listed becomes the outermost wrapper, so it runs
// first on the way in and last on the way out.
func ChainCmdMiddleware(cmd cli.ActionFunc, middlewares ...func(cli.ActionFunc) cli.ActionFunc) cli.ActionFunc {
	wrapped := cmd
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

// CmdMiddlewareLogging installs a logger on the context, configured from
// the global output flags.
func CmdMiddlewareLogging(f cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		logger := logging.NewLogger(c.App.Writer, c.App.ErrWriter, c.Bool("json"), c.Bool("quiet"), c.Bool("verbose"))
		c.Context = logger.WithContext(c.Context)
		return f(c)
	}
}

// CmdMiddlewareTracingSpan runs the command inside a span named after the
// command.  An error returned by the command gets recorded on the span
// before it ends.
func CmdMiddlewareTracingSpan(f cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		ctx, span := tracing.Start(c.Context, c.Command.FullName())
		defer span.End()
		c.Context = ctx
		err := f(c)
		if err != nil {
			tracing.SetSpanError(ctx, err)
		}
		return err
	}
}

// CmdMiddlewareTracingConfig stands up the tracer provider selected by the
// tracing flags and hangs its tracer on the context.  The provider gets
// flushed and shut down after the command returns.
func CmdMiddlewareTracingConfig(f cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		tracerProvider, err := newTracingProvider(c)
		if err != nil {
			return fmt.Errorf("could not initialize tracing: %w", err)
		}
		if tracerProvider == nil {
			// No tracing flags were set.  A nil tracer on the context reads as noop.
			c.Context = tracing.SetTracer(c.Context, nil)
			return f(c)
		}
		ctx := tracing.SetTracer(c.Context, tracerProvider.Tracer(Module))
		defer func() {
			if err := tracerProvider.Shutdown(ctx); err != nil {
				logger := logging.Ctx(ctx)
				logger.Debug("", "tracing shutdown error: %s", err.Error())
			}
		}()
		c.Context = ctx
		return f(c)
	}
}
