package testsupport

import (
	"path/filepath"
	"testing"

	"seasontrack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The default backend is the file backend so tests exercise real persistence
// without SQLite start-up cost.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Storage.Backend = config.BackendFile
	cfgVal.Storage.Path = filepath.Join(cfgVal.Paths.DataDir, config.DefaultStorageFile(config.BackendFile))
	cfgVal.Storage.LockTimeoutSeconds = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return builder.cfg
}

// WithBackend switches the storage backend, deriving the path from the data dir.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = backend
		if name := config.DefaultStorageFile(backend); name != "" {
			b.cfg.Storage.Path = filepath.Join(b.cfg.Paths.DataDir, name)
		} else {
			b.cfg.Storage.Path = ""
		}
	}
}

// WithCorruptPolicy sets storage.corrupt_policy.
func WithCorruptPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.CorruptPolicy = policy
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
