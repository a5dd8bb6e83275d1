package filesystem

import (
	"io"
	"os"
)

// GacheFs lets gache caches, such as the resume history, live on the swappable backend.
// It reads the backend on every call, so SetMemMapFs also affects caches created earlier.
type GacheFs struct{}

func (GacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

func (GacheFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}
