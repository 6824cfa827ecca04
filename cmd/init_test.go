package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/eykd/scenariodoc/internal/config"
)

// mockInitIO is a test double for InitIO.
type mockInitIO struct {
	exists   bool
	statErr  error
	writeErr error
	written  map[string][]byte
}

func newMockInitIO() *mockInitIO {
	return &mockInitIO{written: make(map[string][]byte)}
}

func (m *mockInitIO) StatFile(string) (bool, error) {
	return m.exists, m.statErr
}

func (m *mockInitIO) WriteFileAtomic(path string, content []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written[path] = content
	return nil
}

func runInit(t *testing.T, mock *mockInitIO, args ...string) (string, string, error) {
	t.Helper()
	c := newInitCmdWithGetCWD(mock, func() (string, error) { return "/work", nil })
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	c.SetOut(out)
	c.SetErr(errOut)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), errOut.String(), err
}

func TestNewInitCmd_HasRequiredFlags(t *testing.T) {
	c := NewInitCmd(nil)
	for _, name := range []string{"dir", "force", "branch", "build"} {
		if c.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag on init command", name)
		}
	}
}

func TestInitCmd_WritesDefaultConfig(t *testing.T) {
	mock := newMockInitIO()
	out, _, err := runInit(t, mock, "--build", "nightly")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join("/work", config.FileName)
	content, ok := mock.written[path]
	if !ok {
		t.Fatalf("expected %s to be written, got %v", path, mock.written)
	}
	var cfg config.Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		t.Fatalf("written config is not YAML: %v", err)
	}
	if cfg.BuildName != "nightly" {
		t.Errorf("buildName = %q, want nightly", cfg.BuildName)
	}
	if cfg.BranchName != config.RevisionFromGit {
		t.Errorf("branchName = %q, want %q", cfg.BranchName, config.RevisionFromGit)
	}
	if cfg.TargetDir != config.DefaultTargetDir {
		t.Errorf("targetDir = %q, want %q", cfg.TargetDir, config.DefaultTargetDir)
	}
	if !strings.Contains(out, "Initialized") {
		t.Errorf("stdout = %q, want Initialized message", out)
	}
}

func TestInitCmd_ExistingConfig(t *testing.T) {
	mock := newMockInitIO()
	mock.exists = true

	if _, _, err := runInit(t, mock); err == nil {
		t.Fatal("expected error when config exists without --force")
	}
	if len(mock.written) != 0 {
		t.Errorf("expected nothing written, got %v", mock.written)
	}

	_, errOut, err := runInit(t, mock, "--force")
	if err != nil {
		t.Fatalf("unexpected error with --force: %v", err)
	}
	if !strings.Contains(errOut, "warning: overwriting") {
		t.Errorf("stderr = %q, want overwrite warning", errOut)
	}
}

func TestInitCmd_IOErrors(t *testing.T) {
	tests := []struct {
		name string
		mock *mockInitIO
		want string
	}{
		{"stat", &mockInitIO{statErr: errors.New("permission denied")}, "checking"},
		{"write", &mockInitIO{writeErr: errors.New("disk full"), written: map[string][]byte{}}, "writing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runInit(t, tt.mock)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestInitCmd_GetCWDError(t *testing.T) {
	c := newInitCmdWithGetCWD(newMockInitIO(), func() (string, error) {
		return "", errors.New("getwd failed")
	})
	c.SetOut(new(bytes.Buffer))
	c.SetErr(new(bytes.Buffer))
	c.SetArgs([]string{})
	if err := c.Execute(); err == nil {
		t.Error("expected error when getwd fails")
	}
}

func TestFileInitIO_WriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	fio := newDefaultInitIO()

	if exists, err := fio.StatFile(path); err != nil || exists {
		t.Fatalf("StatFile before write = %v, %v; want false, nil", exists, err)
	}
	if err := fio.WriteFileAtomic(path, []byte("targetDir: docs\n")); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the config file, found %d entries", len(entries))
	}
}
