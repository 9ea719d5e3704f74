package filestorage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStorage writes to the local file system. Files are written to a
// temporary sibling first and renamed into place, so a failed write never
// leaves a truncated file behind.
type FileStorage struct {
	options
}

func New(opts ...Option) *FileStorage {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &FileStorage{options: options}
}

func (s *FileStorage) IsDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (s *FileStorage) MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return err
	}
	s.logger.Debug("directory ready", zap.String("dir", dir))
	return nil
}

func (s *FileStorage) WriteFile(name string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err = os.Chmod(tmp.Name(), s.filePerm); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), name); err != nil {
		return err
	}

	s.logger.Debug("file saved", zap.String("path", name), zap.Int("bytes", len(data)))
	return nil
}
