package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dl-alexandre/qrcgen/internal/config"
	"github.com/dl-alexandre/qrcgen/internal/logging"
	"github.com/dl-alexandre/qrcgen/internal/types"
	"github.com/dl-alexandre/qrcgen/internal/utils"
	"github.com/dl-alexandre/qrcgen/pkg/version"
)

// Option customizes the root command. Tests use them to swap the
// filesystem, working directory and clock.
type Option func(*rootOptions)

// WithFilesystem runs against fs instead of the working directory on disk.
// fs must be rooted at the working directory.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *rootOptions) { o.fs = fs }
}

// WithWorkDir sets the directory relative paths are resolved against.
func WithWorkDir(dir string) Option {
	return func(o *rootOptions) { o.workDir = dir }
}

// WithClock replaces time.Now for backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *rootOptions) { o.now = now }
}

type rootOptions struct {
	flags   types.GlobalFlags
	cfg     *config.Config
	fs      billy.Filesystem
	workDir string
	now     func() time.Time
	stdout  io.Writer
	stderr  io.Writer
}

// NewRootCmd returns the qrcgen command. Run without arguments it scans
// ./images and writes ./resources.qrc.
func NewRootCmd(stdout, stderr io.Writer, opts ...Option) *cobra.Command {
	o := &rootOptions{
		cfg:    config.DefaultConfig(),
		now:    time.Now,
		stdout: stdout,
		stderr: stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	cmd := &cobra.Command{
		Use:   "qrcgen",
		Short: "Generate a Qt resource manifest from an image directory",
		Long: `qrcgen scans the images directory for image files and writes resources.qrc,
the resource collection file consumed by the Qt resource compiler (rcc).

An existing manifest is copied to resources.qrc.backup_YYYYMMDD_HHMMSS before
it is overwritten. Run it from the project root.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return invalidArgument(cmd, fmt.Errorf("unexpected argument %q", args[0]))
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validateGlobalFlags(); err != nil {
				return invalidArgument(cmd, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runGenerate(cmd)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(invalidArgument)

	flags := cmd.PersistentFlags()
	flags.StringVar((*string)(&o.flags.OutputFormat), "format", string(types.OutputFormatTable), "Output format (table, json)")
	flags.BoolVarP(&o.flags.Quiet, "quiet", "q", false, "Suppress the banner and file listing")
	flags.BoolVarP(&o.flags.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&o.flags.LogLevel, "log-level", "info", "Minimum log level (debug, info, warn, error)")
	flags.StringVar(&o.flags.LogFile, "log-file", "", "Path to a JSON log file")

	cmd.Flags().StringVar(&o.cfg.ImagesDir, "images", o.cfg.ImagesDir, "Directory to scan for images")
	cmd.Flags().StringVarP(&o.cfg.OutputFile, "output", "o", o.cfg.OutputFile, "Manifest file to write")
	cmd.Flags().BoolVar(&o.cfg.DryRun, "dry-run", false, "Print the manifest instead of writing it")
	cmd.Flags().BoolVar(&o.cfg.Check, "check", false, "Fail if the manifest on disk is out of date")
	cmd.Flags().BoolVar(&o.cfg.NoBackup, "no-backup", false, "Do not back up an existing manifest")

	cmd.AddCommand(newVersionCmd(o))

	return cmd
}

func newVersionCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if o.flags.OutputFormat == types.OutputFormatJSON {
				out := NewOutputWriter(o.stdout, o.flags.OutputFormat, o.flags.Quiet, uuid.New().String())
				return out.WriteSuccess("version", info)
			}
			fmt.Fprintln(o.stdout, info.String())
			return nil
		},
	}
}

func (o *rootOptions) validateGlobalFlags() error {
	if o.flags.OutputFormat != types.OutputFormatJSON && o.flags.OutputFormat != types.OutputFormatTable {
		return fmt.Errorf("invalid output format: %s", o.flags.OutputFormat)
	}
	if _, err := logging.ParseLevel(o.flags.LogLevel); err != nil {
		return err
	}
	o.cfg.OutputFormat = o.flags.OutputFormat
	return nil
}

// newLogger builds the run logger, tagged with the trace ID carried by ctx.
// Console logging is opt-in with --verbose and moves to stderr in json
// format to keep stdout parseable.
func (o *rootOptions) newLogger(ctx context.Context) (logging.Logger, error) {
	console := o.stdout
	if o.flags.OutputFormat == types.OutputFormatJSON {
		console = o.stderr
	}

	level, err := logging.ParseLevel(o.flags.LogLevel)
	if err != nil {
		return nil, err
	}

	logConfig := logging.DefaultLogConfig()
	logConfig.Level = level
	logConfig.OutputFile = o.flags.LogFile
	logConfig.EnableConsole = o.flags.Verbose
	logConfig.Console = console
	logConfig.EnableColor = isTerminal(console)
	if o.flags.Verbose {
		logConfig.Level = logging.DEBUG
	}

	logger, err := logging.NewLogger(logConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.WithContext(ctx), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// invalidArgument prints err with a usage hint and converts it to an
// INVALID_ARGUMENT AppError.
func invalidArgument(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\nRun '%s --help' for usage.\n", err, cmd.CommandPath())
	return utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument, err.Error()).Build(), err)
}

// Run executes qrcgen with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer, opts ...Option) int {
	cmd := NewRootCmd(stdout, stderr, opts...)
	cmd.SetArgs(args)
	return exitCode(stderr, cmd.ExecuteContext(context.Background()))
}

// Execute runs the root command with the process arguments
func Execute() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return utils.ExitSuccess
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return utils.ExitUnknown
}
