package config

const (
	// EnvLoomDataRoot can be set to override data root resolution entirely.
	EnvLoomDataRoot = "LOOM_DATA_ROOT"
	// EnvLoomCache can be set to override the directory used for ingest caches.
	EnvLoomCache = "LOOM_CACHE"
	// EnvLoomPath is the path to expected sibling executables (git)
	EnvLoomPath = "LOOM_PATH"
	// EnvXdgDataHome and EnvXdgCacheHome feed the default locations per the
	// freedesktop basedir convention.
	EnvXdgDataHome  = "XDG_DATA_HOME"
	EnvXdgCacheHome = "XDG_CACHE_HOME"
)

// NOTE: keep this up to date or the config loader won't load them
var envKeys = []string{
	EnvLoomDataRoot,
	EnvLoomCache,
	EnvLoomPath,
	EnvXdgDataHome,
	EnvXdgCacheHome,
}
