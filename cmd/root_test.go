package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/eykd/scenariodoc/internal/config"
)

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"init", "record", "inspect", "publish"} {
		t.Run(name, func(t *testing.T) {
			var found bool
			for _, sub := range root.Commands() {
				if sub.Name() == name {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected %q subcommand registered on root command", name)
			}
		})
	}
}

func TestBuildCommandTree_AllCommandsHaveRunE(t *testing.T) {
	root := NewRootCmd()
	for _, sub := range root.Commands() {
		c := sub
		t.Run(c.Name(), func(t *testing.T) {
			if c.RunE == nil {
				t.Errorf("command %q has nil RunE; must wire RunE for error visibility", c.Name())
			}
		})
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"config", "log-level", "log-format"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent --%s flag on root command", name)
		}
	}
}

func TestRootCmd_NoArgs_ShowsHelp(t *testing.T) {
	root := NewRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "sdoc") {
		t.Errorf("expected help output to mention sdoc, got %q", out.String())
	}
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	root := NewRootCmd()
	var gotErr error
	probe := &cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, gotErr = newLogger(cmd)
			return nil
		},
	}
	root.AddCommand(probe)
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"probe", "--log-level", "chatty"})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotErr == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestLoadConfig_PassesConfigFlag(t *testing.T) {
	root := NewRootCmd()
	var gotPath string
	probe := &cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := loadConfig(cmd, func(path string) (config.Config, error) {
				gotPath = path
				return config.Default(), nil
			})
			return err
		},
	}
	root.AddCommand(probe)
	root.SetArgs([]string{"probe", "--config", "ci.yml"})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "ci.yml" {
		t.Errorf("config path = %q, want %q", gotPath, "ci.yml")
	}
}
