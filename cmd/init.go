package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eykd/scenariodoc/internal/config"
)

// InitIO handles I/O for the init command.
type InitIO interface {
	StatFile(path string) (bool, error)
	WriteFileAtomic(path string, content []byte) error
}

// NewInitCmd creates the init subcommand.
func NewInitCmd(io InitIO) *cobra.Command {
	return newInitCmdWithGetCWD(io, os.Getwd)
}

func newInitCmdWithGetCWD(io InitIO, getwd func() (string, error)) *cobra.Command {
	var (
		force  bool
		branch string
		build  string
	)

	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Write a default " + config.FileName + " in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				cwd, err := getwd()
				if err != nil {
					return fmt.Errorf("getting working directory: %w", err)
				}
				dir = cwd
			}
			configPath := filepath.Join(dir, config.FileName)

			exists, err := io.StatFile(configPath)
			if err != nil {
				return fmt.Errorf("checking %s: %w", configPath, err)
			}
			if exists && !force {
				return fmt.Errorf("%s already exists in %s; use --force to overwrite", config.FileName, dir)
			}

			cfg := config.Default()
			cfg.BranchName = branch
			cfg.BuildName = build
			content, err := cfg.Marshal()
			if err != nil {
				return fmt.Errorf("rendering config: %w", err)
			}
			content = append([]byte("# scenario documentation settings\n"), content...)
			if err := io.WriteFileAtomic(configPath, content); err != nil {
				return fmt.Errorf("writing %s: %w", config.FileName, err)
			}

			if exists {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: overwriting existing "+config.FileName)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Initialized "+configPath)
			return nil
		},
	}

	cmd.Flags().String("dir", "", "directory to write the config into (default: current directory)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	cmd.Flags().StringVar(&branch, "branch", config.RevisionFromGit, "branch name to record (\"git\" reads the checked-out branch)")
	cmd.Flags().StringVar(&build, "build", "", "build name to record")

	return cmd
}

// fileInitIO implements InitIO using OS file I/O.
type fileInitIO struct{}

func newDefaultInitIO() *fileInitIO {
	return &fileInitIO{}
}

// StatFile returns true if the file at path exists, false if it does not.
// Returns an error only for unexpected OS errors.
func (f *fileInitIO) StatFile(path string) (bool, error) {
	return f.StatFileImpl(path)
}

// StatFileImpl wraps os.Stat to check file existence.
func (f *fileInitIO) StatFileImpl(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// WriteFileAtomic replaces path with content via a temp file and rename.
func (f *fileInitIO) WriteFileAtomic(path string, content []byte) error {
	return f.WriteFileAtomicImpl(path, content)
}

// WriteFileAtomicImpl performs the atomic write with 0600 permissions.
func (f *fileInitIO) WriteFileAtomicImpl(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".init-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
