package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by adapters and the application layer
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPathNotFound      = errors.New("path not found")
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrFileNotFound      = errors.New("file not found")
)

// PathNotFoundError is returned by a path resolver configured to verify
// that its base directory exists
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("the directory '%s' does not exist", e.Path)
}

func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}

// FileNotFoundError is returned when a project file that must exist is missing
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("project file does not exist: %s", e.Path)
}

func (e *FileNotFoundError) Is(target error) bool {
	return target == ErrFileNotFound
}

// InvalidArgument wraps ErrInvalidArgument with the offending argument name
func InvalidArgument(name, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, name, reason)
}
