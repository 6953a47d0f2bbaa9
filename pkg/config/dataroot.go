package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/warptools/loom/loomapi"
)

// DefaultRootDirname is the directory that marks a data root: the envelope
// directory of the root collection.
const DefaultRootDirname = ".loom"

// BinPath returns the directory to search for sibling executables (git).
func BinPath(state State) string {
	path, ok := state.Env[EnvLoomPath]
	if ok {
		return path
	}
	return filepath.Dir(state.ExecutablePath)
}

// CachePath returns the directory for ingest caches.
// Layering: LOOM_CACHE env, then XDG_CACHE_HOME, then ~/.cache.
func CachePath(state State) string {
	if value, ok := state.Env[EnvLoomCache]; ok {
		return value
	}
	if value, ok := state.Env[EnvXdgCacheHome]; ok {
		return filepath.Join(value, "loom")
	}
	return filepath.Join(state.HomeDirectory, ".cache", "loom")
}

// DefaultDataRoot returns the data root used when neither a flag nor the
// environment names one and no root is found above the working directory.
// Layering: XDG_DATA_HOME, then ~/.local/share.
func DefaultDataRoot(state State) string {
	if value, ok := state.Env[EnvXdgDataHome]; ok {
		return filepath.Join(value, "loom", "root")
	}
	return filepath.Join(state.HomeDirectory, ".local", "share", "loom", "root")
}

// DataRoot resolves the data root directory for a command invocation.
// Layering: the explicit flag value, then LOOM_DATA_ROOT, then an upward
// search from the working directory, then the default location.
//
// An fsys handle is required, but is typically `os.DirFS("/")` outside of tests.
//
// Errors:
//
//    - loom-error-searching-filesystem -- when an unexpected error occurs traversing the search path
func DataRoot(fsys fs.FS, state State, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if value, ok := state.Env[EnvLoomDataRoot]; ok {
		return value, nil
	}
	found, err := FindDataRoot(fsys, "", state.WorkingDirectory[1:])
	if err != nil {
		return "", err
	}
	if found != "" {
		return filepath.Join("/", found), nil
	}
	return DefaultDataRoot(state), nil
}

// FindDataRoot looks for a data root on the filesystem and returns the first
// one found, searching directories upward.
//
// It searches from `join(basisPath,searchPath)` up to `basisPath`
// (in other words, it won't search above basisPath).
// Invoking it with an empty string for `basisPath` and cwd for `searchPath` is typical.
//
// If no data root is found, it will return nil for the error value.
// If errors are returned, they're due to filesystem IO.
//
// An fsys handle is required, but is typically `os.DirFS("/")` outside of tests.
//
// Errors:
//
//    - loom-error-searching-filesystem -- when an unexpected error occurs traversing the search path
func FindDataRoot(fsys fs.FS, basisPath, searchPath string) (path string, err error) {
	// Our search loops over searchPath, popping a path segment off at the end of every round.
	searchAt := searchPath
	for {
		probe := filepath.Join(basisPath, searchAt, DefaultRootDirname)
		fi, err := fs.Stat(fsys, probe)
		if err == nil && fi.IsDir() {
			return filepath.Join(basisPath, searchAt), nil
		}
		if err == nil || errors.Is(err, fs.ErrNotExist) { // no such thing?  oh well.  pop a segment and keep looking.
			searchAt = filepath.Dir(searchAt)
			// If popping a searchAt segment got us down to nothing,
			//  and we didn't find anything here either,
			//   that's it: return NotFound.
			if searchAt == "/" || searchAt == "." {
				return "", nil
			}
			// ... otherwise: continue, with popped searchAt.
			continue
		}
		// You're still here?  That means there's an error, but of some unpleasant kind.
		//  Whatever this error is, our search has blind spots: error out.
		return "", loomapi.ErrorSearchingFilesystem("data root", err)
	}
}
