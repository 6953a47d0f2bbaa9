package config

import (
	"maps"
	"os"
	"sync"

	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
)

// Process-wide facts (env vars, cwd, the executable path) are captured once
// behind a lock instead of being read piecemeal at use sites.  Values like
// these can change during runtime, and code that rereads them mid-operation
// behaves confusingly at best; a snapshot keeps one command's view
// consistent, and tests can swap the whole view at once.

type State struct {
	Env              map[string]string
	HomeDirectory    string
	WorkingDirectory string
	ExecutablePath   string
	TempDir          string
}

var (
	globalm sync.RWMutex
	global  State
)

// ReloadGlobalState recaptures every tracked process-wide value, halting on
// the first failure.  The prior capture stays in place if reloading fails.
// Safe for concurrent use.
//
// Errors:
//
//   - loom-error-initialization -- loading a value failed
func ReloadGlobalState() error {
	globalm.Lock()
	defer globalm.Unlock()
	next := State{
		Env:     make(map[string]string, len(envKeys)),
		TempDir: os.TempDir(),
	}
	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			next.Env[key] = v
		}
	}
	var err error
	if next.ExecutablePath, err = os.Executable(); err != nil {
		return serum.Error(loomapi.ECodeInitialization,
			serum.WithMessageLiteral("failed to locate binary path"),
			serum.WithCause(err),
		)
	}
	if next.WorkingDirectory, err = os.Getwd(); err != nil {
		return serum.Error(loomapi.ECodeInitialization,
			serum.WithMessageLiteral("unable to get working directory"),
			serum.WithCause(err),
		)
	}
	if next.HomeDirectory, err = os.UserHomeDir(); err != nil {
		return serum.Error(loomapi.ECodeInitialization,
			serum.WithMessageLiteral("unable to find user home directory"),
			serum.WithCause(err),
		)
	}
	global = next
	return nil
}

// NewState returns a copy of the captured global state.  The copy is
// independent: callers may modify it, and a later ReloadGlobalState does
// not touch it.  Safe for concurrent use.
func NewState() State {
	globalm.RLock()
	defer globalm.RUnlock()
	st := global
	st.Env = maps.Clone(st.Env)
	return st
}

// init captures the initial state and terminates the process if that fails;
// nothing else can proceed sensibly without it.
func init() {
	if err := ReloadGlobalState(); err != nil {
		serr, ok := err.(serum.ErrorInterface)
		if !ok {
			serr = serum.Error(loomapi.ECodeUnknown,
				serum.WithMessageLiteral("config initialization failed"),
				serum.WithCause(err),
			).(serum.ErrorInterface)
		}
		loomapi.TerminalError(serr, 10)
	}
}
