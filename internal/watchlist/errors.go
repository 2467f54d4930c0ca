package watchlist

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors through errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("season record not found")
	ErrCorruptData = errors.New("stored watch list is corrupt")
	ErrStorage     = errors.New("storage failure")
)

// Error kinds reported by ErrorKind.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindCorrupt    = "corrupt"
	KindStorage    = "storage"
)

// ErrorClassifier is implemented by every error this package returns.
type ErrorClassifier interface {
	ErrorKind() string
}

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) ErrorKind() string { return KindValidation }

// NotFoundError reports an id absent from the current list.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("season record %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) ErrorKind() string { return KindNotFound }

// CorruptDataError reports a stored value that cannot be decoded.
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("stored watch list %q is corrupt: %v", e.Key, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

func (e *CorruptDataError) Is(target error) bool { return target == ErrCorruptData }

func (e *CorruptDataError) ErrorKind() string { return KindCorrupt }

// StorageError wraps a failure from the key-value backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) ErrorKind() string { return KindStorage }

// Kind returns the classification of err, or an empty string for errors that
// did not originate in this package.
func Kind(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ""
}
