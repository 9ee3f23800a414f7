package scaffold

import (
	"errors"
	"fmt"
)

var (
	// ErrCollision means the install target already exists.
	ErrCollision = errors.New("target path already exists")
	// ErrTemplateMissing means the package has no template/<targetPath> directory.
	ErrTemplateMissing = errors.New("template directory not found in package")
	// ErrCustomEntryMissing means a custom template declares no entry point.
	ErrCustomEntryMissing = errors.New("custom template has no entry point")
)

// ExitError is returned when a custom template installer exits non-zero.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("custom template installer exited with code %d", e.Code)
}
