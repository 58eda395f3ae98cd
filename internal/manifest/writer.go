package manifest

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/dl-alexandre/qrcgen/internal/logging"
)

// ErrWriteFailed wraps errors from writing the manifest file.
var ErrWriteFailed = errors.New("failed to write manifest")

// Writer reads and writes manifests on a filesystem.
type Writer struct {
	fs     billy.Filesystem
	logger logging.Logger
}

func NewWriter(fs billy.Filesystem, logger logging.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Writer{fs: fs, logger: logger}
}

// Write renders paths and replaces outputPath with the result. Any backup
// must be taken before calling it.
func (w *Writer) Write(paths []string, outputPath string) error {
	data, err := Render(paths)
	if err != nil {
		return err
	}

	if err := util.WriteFile(w.fs, outputPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, outputPath, err)
	}

	w.logger.Info("manifest written",
		logging.F("path", outputPath),
		logging.F("entries", len(paths)),
		logging.F("bytes", len(data)))
	return nil
}

// ReadRaw returns the current contents of path. ok is false when the file
// does not exist.
func (w *Writer) ReadRaw(path string) (data []byte, ok bool, err error) {
	data, err = util.ReadFile(w.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return data, true, nil
}

// Read parses the manifest at path.
func (w *Writer) Read(path string) (*Document, error) {
	data, ok, err := w.ReadRaw(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, os.ErrNotExist)
	}
	return Parse(data)
}
