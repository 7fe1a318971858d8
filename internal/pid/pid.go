// Package pid guards against a second daemon instance with a PID file.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/thermotrack/internal/errors"
)

const defaultFile = "thermotrack.pid"

// DefaultPath is used when no pid file is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), defaultFile)
}

// File is a PID file at a fixed path.
type File struct {
	path string
}

// New returns a File at path, or at DefaultPath when path is empty.
func New(path string) *File {
	if path == "" {
		path = DefaultPath()
	}
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Write writes the current process ID. It fails with ErrAlreadyRunning when
// the file names a live process; a stale file is overwritten.
func (f *File) Write() error {
	errFactory := errors.New()

	if _, err := os.Stat(f.path); err == nil {
		// PID file exists, check if the process is running
		bytes, err := os.ReadFile(f.path)
		if err != nil {
			return errFactory.Wrap(errors.ErrInternal, err)
		}

		if pid, err := strconv.Atoi(strings.TrimSpace(string(bytes))); err == nil && alive(pid) {
			return errFactory.WithData(errors.ErrAlreadyRunning, pid)
		}
	}

	err := os.WriteFile(f.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file. A missing file is not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
