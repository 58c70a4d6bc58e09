package commands

import (
	"errors"

	"orderflow/internal/pkg/errs"
)

// asStorageError wraps err as *errs.StorageError unless it already carries a
// meaning the caller must see unchanged.
func asStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var storageErr *errs.StorageError
	if errors.As(err, &storageErr) ||
		errors.Is(err, errs.ErrObjectNotFound) ||
		errors.Is(err, errs.ErrConcurrentModification) {
		return err
	}
	return errs.NewStorageError(op, err)
}
