package fileutil

import (
	"errors"
	"fmt"
	"os"
)

// ErrEmptyFile reports an output that exists but holds no data.
var ErrEmptyFile = errors.New("file is empty")

// NonEmptySize returns the size of the regular file at path, failing when
// it is missing, not a regular file, or zero bytes long.
func NonEmptySize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return info.Size(), nil
}

// RemoveIfExists deletes path, ignoring a missing file.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
