package config

const (
	defaultConfigPath         = "~/.config/seasontrack/config.toml"
	defaultDataDir            = "~/.local/share/seasontrack"
	defaultStorageBackend     = BackendSQLite
	defaultStorageKey         = "@seasontrack:watchlist"
	defaultCorruptPolicy      = CorruptPolicyReset
	defaultLockTimeoutSeconds = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		// LogDir stays empty so normalize derives it from whichever
		// data_dir the file sets.
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Storage: Storage{
			Backend:            defaultStorageBackend,
			Key:                defaultStorageKey,
			CorruptPolicy:      defaultCorruptPolicy,
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultStorageFile returns the storage file name used when storage.path is unset.
func DefaultStorageFile(backend string) string {
	switch backend {
	case BackendFile:
		return "watchlist.json"
	case BackendSQLite:
		return "watchlist.db"
	default:
		return ""
	}
}
