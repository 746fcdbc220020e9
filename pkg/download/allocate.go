package download

import (
	"errors"
	"io/fs"
	"os"
)

// AllocateFile creates (or truncates) the file at path and extends it to exactly size bytes, so that every part can
// write at its own offset without extending the file. On failure nothing is left behind at path.
func AllocateFile(path string, size int64) error {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return &AllocationError{Path: path, Size: size, Err: err}
	}
	if err := file.Truncate(size); err != nil {
		_ = file.Close()
		removeQuietly(path)
		return &AllocationError{Path: path, Size: size, Err: err}
	}
	if err := file.Close(); err != nil {
		removeQuietly(path)
		return &AllocationError{Path: path, Size: size, Err: err}
	}
	return nil
}

// removeFile removes path, treating an already missing file as success.
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func removeQuietly(path string) {
	_ = removeFile(path)
}
