// Package backup copies an existing manifest aside before it is overwritten.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/dl-alexandre/qrcgen/internal/logging"
	"github.com/dl-alexandre/qrcgen/internal/utils"
)

// ErrBackupFailed wraps every error that prevented a complete backup. The
// manifest must not be overwritten after it.
var ErrBackupFailed = errors.New("backup failed")

// Manager creates timestamped copies of a file.
type Manager struct {
	fs     billy.Filesystem
	now    func() time.Time
	logger logging.Logger
}

type Option func(*Manager)

// WithClock replaces time.Now as the source of backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(fs billy.Filesystem, logger logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	m := &Manager{
		fs:     fs,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the backup path for manifestPath taken at t (local time).
func Name(manifestPath string, t time.Time) string {
	return manifestPath + utils.BackupSuffix + t.Format(utils.BackupTimeLayout)
}

// BackupIfExists copies manifestPath to Name(manifestPath, now) and returns
// the backup path. It returns "" and no error when there is nothing to back up.
func (m *Manager) BackupIfExists(manifestPath string) (string, error) {
	info, err := m.fs.Stat(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.logger.Debug("no existing manifest to back up", logging.F("path", manifestPath))
			return "", nil
		}
		return "", fmt.Errorf("%w: stat %q: %w", ErrBackupFailed, manifestPath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %q is a directory", ErrBackupFailed, manifestPath)
	}

	target := Name(manifestPath, m.now())
	if err := m.copyFile(manifestPath, target, info); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	m.preserveMetadata(target, info)

	m.logger.Info("manifest backed up",
		logging.F("source", manifestPath),
		logging.F("backup", target),
		logging.F("bytes", info.Size()))

	return target, nil
}

func (m *Manager) copyFile(src, dst string, info os.FileInfo) (err error) {
	in, err := m.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	out, err := m.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %q: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %q: %w", dst, closeErr)
		}
		if err != nil {
			// a partial copy is worse than none
			_ = m.fs.Remove(dst)
		}
	}()

	n, err := io.Copy(out, in)
	if err != nil {
		return fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}
	if n != info.Size() {
		return fmt.Errorf("copy %q to %q: wrote %d of %d bytes", src, dst, n, info.Size())
	}
	return nil
}

// preserveMetadata carries mode and modification time over when the
// filesystem supports it. Failures here do not invalidate the backup.
func (m *Manager) preserveMetadata(target string, info os.FileInfo) {
	ch, ok := m.fs.(billy.Change)
	if !ok {
		return
	}
	if err := ch.Chmod(target, info.Mode().Perm()); err != nil {
		m.logger.Debug("could not preserve backup mode", logging.F("path", target), logging.F("error", err))
	}
	if err := ch.Chtimes(target, info.ModTime(), info.ModTime()); err != nil {
		m.logger.Debug("could not preserve backup mtime", logging.F("path", target), logging.F("error", err))
	}
}
