// Package fs provides the filesystem seam used by expbox stores.
package fs

import (
	"io"
	iofs "io/fs"
	"os"
)

// FS is the subset of filesystem operations the stores depend on.
// Tests substitute failing implementations to exercise partial writes.
type FS interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Mkdir(path string, perm os.FileMode) error
	ReadDir(path string) ([]os.DirEntry, error)
	Stat(path string) (iofs.FileInfo, error)
	Rename(oldpath, newpath string) error
	Remove(path string) error
	Chmod(path string, perm os.FileMode) error
	CreateTemp(dir, pattern string) (string, io.WriteCloser, error)
}

type realFS struct{}

// NewRealFS returns an FS backed by the os package.
func NewRealFS() FS {
	return realFS{}
}

func (realFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (realFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (realFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (realFS) Mkdir(path string, perm os.FileMode) error    { return os.Mkdir(path, perm) }
func (realFS) ReadDir(path string) ([]os.DirEntry, error)   { return os.ReadDir(path) }
func (realFS) Stat(path string) (iofs.FileInfo, error)      { return os.Stat(path) }
func (realFS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (realFS) Remove(path string) error                     { return os.Remove(path) }
func (realFS) Chmod(path string, perm os.FileMode) error    { return os.Chmod(path, perm) }

func (realFS) CreateTemp(dir, pattern string) (string, io.WriteCloser, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, err
	}
	return f.Name(), f, nil
}

// Exists reports whether path exists. Stat errors other than not-exist
// are treated as existing so callers never clobber what they cannot see.
func Exists(fsys FS, path string) bool {
	_, err := fsys.Stat(path)
	if err == nil {
		return true
	}
	return !os.IsNotExist(err)
}
