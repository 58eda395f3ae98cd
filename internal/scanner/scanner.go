// Package scanner finds image files below a scan root.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/dl-alexandre/qrcgen/internal/logging"
)

// ErrRootNotFound is returned when the scan root is missing or is not a
// directory. Callers treat it as an empty result, not a failure.
var ErrRootNotFound = errors.New("scan root not found")

// Scanner walks a filesystem rooted at the working directory.
type Scanner struct {
	fs     billy.Filesystem
	logger logging.Logger
}

// New returns a Scanner over fs. A nil logger discards messages.
func New(fs billy.Filesystem, logger logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Scanner{fs: fs, logger: logger}
}

// Scan returns every image below root as a slash-separated path that keeps
// the root prefix, sorted ascending. A missing root yields an empty slice
// together with ErrRootNotFound.
func (s *Scanner) Scan(root string) ([]string, error) {
	info, err := s.fs.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("scan root does not exist", logging.F("root", root))
			return []string{}, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("failed to stat scan root %q: %w", root, err)
	}
	if !info.IsDir() {
		s.logger.Warn("scan root is not a directory", logging.F("root", root))
		return []string{}, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}

	// The root is listed through Stat semantics so a symlinked root is
	// followed; util.Walk uses Lstat and would stop at the link.
	entries, err := s.fs.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan root %q: %w", root, err)
	}

	paths := []string{}
	skipped := 0
	visit := func(current string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			// unreadable entries are skipped, the rest of the tree is still scanned
			s.logger.Warn("skipping unreadable path", logging.F("path", current), logging.F("error", walkErr))
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !IsImage(info.Name()) {
			skipped++
			return nil
		}
		paths = append(paths, filepath.ToSlash(current))
		return nil
	}
	for _, entry := range entries {
		child := filepath.Join(root, entry.Name())
		if err := util.Walk(s.fs, child, visit); err != nil {
			return nil, fmt.Errorf("failed to walk %q: %w", child, err)
		}
	}

	sort.Strings(paths)

	s.logger.Debug("scan complete",
		logging.F("root", root),
		logging.F("images", len(paths)),
		logging.F("skipped", skipped))

	return paths, nil
}
