package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// DefaultPath is where the TUI writes its log when no file is configured.
func DefaultPath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "kmllinks.log")
	}
	return filepath.Join(base, "kmllinks", "kmllinks.log")
}

// New returns a logger at the given level writing to out.
func New(level string, out io.Writer) (*logrus.Logger, error) {
	l := logrus.New()
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(parsed)
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return l, nil
}

// NewFile opens (appending) the log file at path and returns a logger writing to it.
// The returned closer releases the file.
func NewFile(level string, path string) (*logrus.Logger, io.Closer, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	l, err := New(level, file)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return l, file, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
