package main

import (
	"errors"
	"fmt"

	"seasontrack/internal/watchlist"
)

// describeError turns store errors into messages a terminal user can act on.
func describeError(action string, err error) error {
	if err == nil {
		return nil
	}
	switch watchlist.Kind(err) {
	case watchlist.KindValidation:
		return fmt.Errorf("%s: invalid input: %w", action, err)
	case watchlist.KindNotFound:
		return fmt.Errorf("%s: %w", action, err)
	case watchlist.KindCorrupt:
		return fmt.Errorf("%s: %w (set storage.corrupt_policy = \"reset\" to start over; the old value is backed up)", action, err)
	default:
		var storageErr *watchlist.StorageError
		if errors.As(err, &storageErr) && storageErr.Op == "lock" {
			return fmt.Errorf("%s: another seasontrack command is holding the storage lock: %w", action, err)
		}
		return fmt.Errorf("%s: %w", action, err)
	}
}
