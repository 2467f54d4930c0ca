package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"seasontrack/internal/config"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStorage opens the configured backend and decodes the stored list.
// A storage file that does not exist yet passes; the first write creates it.
func CheckStorage(ctx context.Context, cfg *config.Config) Result {
	const name = "Storage"

	snap := InspectStorage(ctx, cfg)
	switch {
	case snap.Err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", snap.Location(), snap.Err)}
	case snap.Corrupt != nil:
		return Result{Name: name, Passed: true, Warning: true,
			Detail: fmt.Sprintf("%s (stored list unreadable: %v)", snap.Location(), snap.Corrupt)}
	case snap.Backend == config.BackendMemory:
		return Result{Name: name, Passed: true, Warning: true, Detail: fmt.Sprintf("%s (%s)", snap.Location(), snap.Summary())}
	case !snap.Exists:
		if err := unix.Access(filepath.Dir(snap.Path), unix.W_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: parent not writable: %v)", snap.Location(), err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", snap.Location())}
	default:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", snap.Location(), snap.Summary())}
	}
}
