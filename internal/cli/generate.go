package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dl-alexandre/qrcgen/internal/backup"
	"github.com/dl-alexandre/qrcgen/internal/config"
	"github.com/dl-alexandre/qrcgen/internal/logging"
	"github.com/dl-alexandre/qrcgen/internal/manifest"
	"github.com/dl-alexandre/qrcgen/internal/scanner"
	"github.com/dl-alexandre/qrcgen/internal/types"
	"github.com/dl-alexandre/qrcgen/internal/utils"
)

const commandGenerate = "generate"

var (
	// ErrNoImages means the scan root exists but holds no image files.
	ErrNoImages = errors.New("no image files found")
	// ErrManifestStale means --check found a manifest that differs from
	// what would be generated.
	ErrManifestStale = errors.New("manifest is out of date")
)

// generator runs one scan → backup → write pass.
type generator struct {
	cfg     *config.Config
	fs      billy.Filesystem
	scanner *scanner.Scanner
	backups *backup.Manager
	writer  *manifest.Writer
	out     *OutputWriter
	logger  logging.Logger
}

func (o *rootOptions) runGenerate(cmd *cobra.Command) error {
	workDir := o.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}

	if err := o.cfg.Validate(); err != nil {
		return invalidArgument(cmd, err)
	}
	if err := o.cfg.Resolve(workDir); err != nil {
		return invalidArgument(cmd, err)
	}

	traceID := uuid.New().String()
	ctx := logging.ContextWithTraceID(cmd.Context(), traceID)
	logger, err := o.newLogger(ctx)
	if err != nil {
		return invalidArgument(cmd, err)
	}
	defer logger.Close()

	fs := o.fs
	if fs == nil {
		fs = osfs.New(workDir)
	}

	g := newGenerator(o.cfg, fs, o.now, NewOutputWriter(o.stdout, o.cfg.OutputFormat, o.flags.Quiet, traceID), logger)
	logger.Debug("starting run",
		logging.F("workDir", workDir),
		logging.F("images", o.cfg.ImagesDir),
		logging.F("output", o.cfg.OutputFile))

	result, err := g.run()
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			logger.Error("run failed", logging.F("code", appErr.CLIError.Code), logging.F("error", err))
			if writeErr := g.out.WriteError(commandGenerate, result, appErr.CLIError); writeErr != nil {
				return writeErr
			}
		}
		return err
	}
	return g.out.WriteSuccess(commandGenerate, result)
}

func newGenerator(cfg *config.Config, fs billy.Filesystem, now func() time.Time, out *OutputWriter, logger logging.Logger) *generator {
	return &generator{
		cfg:     cfg,
		fs:      fs,
		scanner: scanner.New(fs, logger),
		backups: backup.NewManager(fs, logger, backup.WithClock(now)),
		writer:  manifest.NewWriter(fs, logger),
		out:     out,
		logger:  logger,
	}
}

func (g *generator) run() (*types.GenerateResult, error) {
	cfg := g.cfg
	result := &types.GenerateResult{
		Root:   cfg.ImagesDir,
		Output: cfg.OutputFile,
		Files:  []string{},
		DryRun: cfg.DryRun,
	}

	g.out.Banner("qrcgen - Qt resource manifest generator")
	g.out.Notice("\nScanning %s...", cfg.ImagesDir)

	files, err := g.scanner.Scan(cfg.ImagesDir)
	if err != nil {
		if errors.Is(err, scanner.ErrRootNotFound) {
			msg := fmt.Sprintf("%s directory not found", cfg.ImagesDir)
			g.out.AddWarning(utils.ErrCodeInputMissing, msg)
			g.out.Println("Make sure qrcgen is run from the project root.")
			return result, newAppError(utils.ErrCodeInputMissing, msg, err, logging.F("root", cfg.ImagesDir))
		}
		return result, newAppError(utils.ErrCodeUnknown, err.Error(), err)
	}
	if len(files) == 0 {
		msg := fmt.Sprintf("no image files found in %s", cfg.ImagesDir)
		g.out.AddWarning(utils.ErrCodeNoImages, msg)
		return result, newAppError(utils.ErrCodeNoImages, msg, ErrNoImages, logging.F("root", cfg.ImagesDir))
	}

	result.Files = files
	result.Count = len(files)
	g.out.Tree(files)
	g.out.Table(result)

	switch {
	case cfg.DryRun:
		return g.dryRun(result)
	case cfg.Check:
		return g.check(result)
	}

	if !cfg.NoBackup {
		if err := g.backup(result); err != nil {
			return result, err
		}
	}

	g.out.Notice("\nGenerating %s...", cfg.OutputFile)
	if err := g.writer.Write(files, cfg.OutputFile); err != nil {
		msg := fmt.Sprintf("failed to write %s: %v", cfg.OutputFile, err)
		return result, newAppError(utils.ErrCodeWriteFailed, msg, err, logging.F("path", cfg.OutputFile))
	}
	result.Written = true
	g.out.Println("✓ Wrote %s", cfg.OutputFile)
	g.out.Println("✓ %d resource files included", len(files))

	g.out.Notice("")
	g.out.Rule()
	g.out.Notice("Done!")
	g.out.Rule()
	g.out.Notice("\nRebuild the Qt project to recompile the resources:")
	g.out.Notice("  cmake --build .")

	return result, nil
}

// backup copies the existing manifest aside. Any failure stops the run
// before the manifest is touched.
func (g *generator) backup(result *types.GenerateResult) error {
	if _, err := g.fs.Stat(g.cfg.OutputFile); err == nil {
		g.out.Notice("\nFound existing %s", g.cfg.OutputFile)
	}

	backupPath, err := g.backups.BackupIfExists(g.cfg.OutputFile)
	if err != nil {
		msg := fmt.Sprintf("could not back up %s, leaving it untouched: %v", g.cfg.OutputFile, err)
		return newAppError(utils.ErrCodeBackupFailed, msg, err, logging.F("path", g.cfg.OutputFile))
	}
	if backupPath != "" {
		result.Backup = backupPath
		g.out.Println("✓ Backed up existing manifest to %s", backupPath)
	}
	return nil
}

func (g *generator) dryRun(result *types.GenerateResult) (*types.GenerateResult, error) {
	data, err := manifest.Render(result.Files)
	if err != nil {
		return result, newAppError(utils.ErrCodeUnknown, err.Error(), err)
	}
	result.Manifest = string(data)

	g.out.Notice("\nDry run, %s not written:\n", g.cfg.OutputFile)
	g.out.Println("%s", bytes.TrimRight(data, "\n"))
	return result, nil
}

func (g *generator) check(result *types.GenerateResult) (*types.GenerateResult, error) {
	want, err := manifest.Render(result.Files)
	if err != nil {
		return result, newAppError(utils.ErrCodeUnknown, err.Error(), err)
	}
	have, exists, err := g.writer.ReadRaw(g.cfg.OutputFile)
	if err != nil {
		return result, newAppError(utils.ErrCodeUnknown, err.Error(), err)
	}

	if exists && manifest.Equivalent(have, want) {
		g.out.Println("✓ %s is up to date", g.cfg.OutputFile)
		return result, nil
	}

	result.Stale = true
	msg := fmt.Sprintf("%s is out of date, run qrcgen to regenerate it", g.cfg.OutputFile)
	if !exists {
		msg = fmt.Sprintf("%s does not exist, run qrcgen to generate it", g.cfg.OutputFile)
	}
	g.logger.Warn("manifest check failed", logging.F("path", g.cfg.OutputFile), logging.F("exists", exists))
	return result, newAppError(utils.ErrCodeStale, msg, ErrManifestStale,
		logging.F("path", g.cfg.OutputFile), logging.F("exists", exists))
}

// newAppError builds the AppError for a failed run; fields end up in the
// error's context in json output.
func newAppError(code, message string, cause error, fields ...logging.Field) *utils.AppError {
	b := utils.NewCLIError(code, message)
	for _, f := range fields {
		b.WithContext(f.Key, f.Value)
	}
	return utils.NewAppError(b.Build(), cause)
}
