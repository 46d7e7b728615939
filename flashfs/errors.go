package flashfs

import "fmt"

// MountError indicates that the filesystem could not be mounted.
type MountError struct {
	// Formatted is set when the failure happened after a format
	Formatted bool
	Err       error
}

func (e *MountError) Error() string {
	if e.Formatted {
		return fmt.Sprintf("flashfs: mount after format failed: %v", e.Err)
	}
	return fmt.Sprintf("flashfs: mount failed: %v", e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// OpenError indicates that a file could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("flashfs: open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}
