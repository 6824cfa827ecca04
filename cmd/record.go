package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eykd/scenariodoc/internal/capture"
	"github.com/eykd/scenariodoc/internal/config"
	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/recorder"
	"github.com/eykd/scenariodoc/internal/reporter"
)

// stdinName is the argument that selects standard input.
const stdinName = "-"

// RecordIO handles I/O for the record command.
type RecordIO interface {
	// LoadConfig reads the configuration; an empty path means the default file.
	LoadConfig(path string) (config.Config, error)
	// ResolveGit fills git-derived branch and revision values.
	ResolveGit(cfg *config.Config) error
	// Open opens one reporter input file.
	Open(path string) (io.ReadCloser, error)
}

// NewRecordCmd creates the record subcommand.
func NewRecordCmd(rio RecordIO) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record [file...]",
		Short: "Write scenario documentation from test framework output",
		Long: "Reads reporter input from the named files, or from standard input when\n" +
			"no file (or \"-\") is given, and writes the documentation tree.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cmd)
			if err != nil {
				return err
			}
			kind, _ := cmd.Flags().GetString("reporter")
			kind = strings.ToLower(strings.TrimSpace(kind))
			factory, err := reporter.Lookup(kind)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, rio.LoadConfig)
			if err != nil {
				return err
			}
			applyRecordFlags(cmd, &cfg)
			if err := rio.ResolveGit(&cfg); err != nil {
				return err
			}
			// An events stream may name its branch and build in runStarted.
			if reporter.Kind(kind) != reporter.KindEvents {
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid config: %w", err)
				}
			}

			rec, err := recorder.New(recorder.Options{
				Capturer:                capture.Blank{},
				Format:                  cfg.Format,
				Schema:                  cfg.SchemaValue(),
				Logger:                  log,
				Disabled:                cfg.Disabled,
				CapturePageSource:       cfg.CapturePageSource,
				RecordLastStepForStatus: cfg.LastStepStatuses(),
			})
			if err != nil {
				return err
			}
			status, _ := cmd.Flags().GetString("status")
			adapter := factory(reporter.NewGeneric(rec, log), reporter.Options{
				Run: recorder.RunOptions{
					TargetDir:         cfg.TargetDir,
					BranchName:        cfg.BranchName,
					BranchDescription: cfg.BranchDescription,
					BuildName:         cfg.BuildName,
					Revision:          cfg.Revision,
				},
				DefaultStatus:           entity.Status(status),
				StepOnExpectationFailed: cfg.ReportStepOnExpectationFailed,
				Logger:                  log,
			})

			if len(args) == 0 {
				args = []string{stdinName}
			}
			for _, name := range args {
				if err := feed(cmd, rio, adapter, name); err != nil {
					return err
				}
			}
			build, err := adapter.Close(cmd.Context())
			if err != nil {
				return err
			}

			if cfg.Disabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Documentation disabled; nothing written")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Documented build %s: %s (%d passed, %d failed, %d skipped use cases)\n",
				build.Name, build.Status, build.PassedUseCases, build.FailedUseCases, build.SkippedUseCases)
			return nil
		},
	}

	cmd.Flags().String("reporter", string(reporter.KindEvents), fmt.Sprintf("input format: %v", reporter.Kinds()))
	cmd.Flags().String("target-dir", "", "documentation root (overrides config)")
	cmd.Flags().String("branch", "", "branch name (overrides config; \"git\" reads the checked-out branch)")
	cmd.Flags().String("build", "", "build name (overrides config)")
	cmd.Flags().String("revision", "", "revision (overrides config; \"git\" reads HEAD)")
	cmd.Flags().String("format", "", "entity file format: xml or json (overrides config)")
	cmd.Flags().String("status", string(entity.StatusSkipped), "gwt scenario status when a spec sets none")

	return cmd
}

func applyRecordFlags(cmd *cobra.Command, cfg *config.Config) {
	set := func(flag string, dst *string) {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
	set("target-dir", &cfg.TargetDir)
	set("branch", &cfg.BranchName)
	set("build", &cfg.BuildName)
	set("revision", &cfg.Revision)
	set("format", &cfg.Format)
}

func feed(cmd *cobra.Command, rio RecordIO, adapter reporter.Adapter, name string) error {
	if name == stdinName {
		return adapter.Feed(cmd.Context(), "stdin", cmd.InOrStdin())
	}
	f, err := rio.Open(name)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()
	return adapter.Feed(cmd.Context(), name, f)
}

// fileRecordIO implements RecordIO using the OS and the enclosing git
// repository of the working directory.
type fileRecordIO struct{}

func newDefaultRecordIO() *fileRecordIO {
	return &fileRecordIO{}
}

// LoadConfig reads .env, the config file and the environment.
func (f *fileRecordIO) LoadConfig(path string) (config.Config, error) {
	return config.Load(path)
}

// ResolveGit looks up "git" placeholders in the working directory's repository.
func (f *fileRecordIO) ResolveGit(cfg *config.Config) error {
	return cfg.ResolveGit(".")
}

// Open opens path for reading.
func (f *fileRecordIO) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
