// Package storage abstracts where downloaded pages and resources are written.
package storage

type Storage interface {
	// IsDir reports whether dir exists and is a directory.
	IsDir(dir string) (bool, error)
	MkdirAll(dir string) error
	// WriteFile replaces name with data.
	WriteFile(name string, data []byte) error
}
