package filestorage

import (
	"os"

	"go.uber.org/zap"
)

type options struct {
	logger   *zap.Logger
	filePerm os.FileMode
	dirPerm  os.FileMode
}

var defaultOptions = options{
	logger:   zap.NewNop(),
	filePerm: 0o644,
	dirPerm:  0o755,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithFilePerm(perm os.FileMode) Option {
	return func(opts *options) {
		opts.filePerm = perm
	}
}

func WithDirPerm(perm os.FileMode) Option {
	return func(opts *options) {
		opts.dirPerm = perm
	}
}
