package draft

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable wraps any failure of the backing store.
	ErrStorageUnavailable = errors.New("draft storage unavailable")
	// ErrCorruptRecord matches every *CorruptRecordError.
	ErrCorruptRecord = errors.New("corrupt draft record")
	// ErrInvalidText is returned when a slot is not valid UTF-8.
	ErrInvalidText = errors.New("draft text is not valid UTF-8")
)

// CorruptRecordError reports a stored value that does not decode as a record.
type CorruptRecordError struct {
	ID  string
	Key string
	Err error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt draft record %q: %v", e.Key, e.Err)
}

func (e *CorruptRecordError) Unwrap() error {
	return e.Err
}

func (e *CorruptRecordError) Is(target error) bool {
	return target == ErrCorruptRecord
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
