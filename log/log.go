package log

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type plugin = zapcore.Core

func NewLogger(plugin zapcore.Core, options ...zap.Option) *zap.Logger {
	return zap.New(plugin, append(DefaultOption(), options...)...)
}

func NewPlugin(writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) plugin {
	return zapcore.NewCore(DefaultEncoder(), writer, enabler)
}

// NewWriterPlugin logs to an arbitrary writer, e.g. the stderr of a cobra command.
func NewWriterPlugin(w io.Writer, enabler zapcore.LevelEnabler) plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(w)), enabler)
}

func NewFilePlugin(filePath string, enabler zapcore.LevelEnabler) (plugin, io.Closer) {
	var writer = DefaultLumberjackLogger()
	writer.Filename = filePath
	return NewPlugin(zapcore.AddSync(writer), enabler), writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Build creates the page-loader logger. Records go to w and, when filePath is
// not empty, to a rotated log file as well. The returned closer releases the
// log file.
func Build(levelText string, filePath string, w io.Writer) (*zap.Logger, io.Closer, error) {
	if levelText == "" {
		levelText = "INFO"
	}
	level, err := zapcore.ParseLevel(levelText)
	if err != nil {
		return nil, nil, err
	}

	cores := []zapcore.Core{NewWriterPlugin(w, level)}
	var closer io.Closer = nopCloser{}
	if filePath != "" {
		var core zapcore.Core
		core, closer = NewFilePlugin(filePath, level)
		cores = append(cores, core)
	}

	return NewLogger(zapcore.NewTee(cores...)), closer, nil
}
