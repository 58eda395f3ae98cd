package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dl-alexandre/qrcgen/internal/types"
	"github.com/dl-alexandre/qrcgen/internal/utils"
)

// Config holds the settings for one generation run. There is no config
// file or environment layer: defaults are overridden by flags only.
type Config struct {
	// ImagesDir is the scan root, relative to the working directory
	ImagesDir string `json:"imagesDir"`

	// OutputFile is the manifest path, relative to the working directory
	OutputFile string `json:"outputFile"`

	// OutputFormat selects the report format (table, json)
	OutputFormat types.OutputFormat `json:"outputFormat"`

	// DryRun prints the manifest instead of writing it
	DryRun bool `json:"dryRun"`

	// Check compares the manifest on disk with the generated one
	Check bool `json:"check"`

	// NoBackup skips the backup of an existing manifest
	NoBackup bool `json:"noBackup"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ImagesDir:    utils.DefaultImagesDir,
		OutputFile:   utils.DefaultManifestFile,
		OutputFormat: types.OutputFormatTable,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OutputFormat != types.OutputFormatJSON &&
		c.OutputFormat != types.OutputFormatTable {
		return fmt.Errorf("invalid output format: %s (must be 'json' or 'table')", c.OutputFormat)
	}

	if strings.TrimSpace(c.ImagesDir) == "" {
		return fmt.Errorf("images directory must not be empty")
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return fmt.Errorf("output file must not be empty")
	}

	if c.DryRun && c.Check {
		return fmt.Errorf("--dry-run and --check cannot be combined")
	}

	return nil
}

// Resolve rewrites ImagesDir and OutputFile as clean paths relative to
// workDir. Absolute paths are accepted as long as they stay inside workDir.
func (c *Config) Resolve(workDir string) error {
	images, err := relativeTo(workDir, c.ImagesDir)
	if err != nil {
		return fmt.Errorf("images directory: %w", err)
	}
	output, err := relativeTo(workDir, c.OutputFile)
	if err != nil {
		return fmt.Errorf("output file: %w", err)
	}
	if output == "." {
		return fmt.Errorf("output file: %q is a directory", c.OutputFile)
	}

	c.ImagesDir = images
	c.OutputFile = output
	return nil
}

func relativeTo(workDir, p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(workDir, p)
		if err != nil {
			return "", fmt.Errorf("failed to relativize %q: %w", p, err)
		}
		p = rel
	}

	p = filepath.Clean(p)
	if p == ".." || strings.HasPrefix(p, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is outside the working directory", p)
	}
	return p, nil
}
