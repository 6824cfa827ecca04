package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/eykd/scenariodoc/internal/config"
	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/inspect"
	"github.com/eykd/scenariodoc/internal/writer"
)

// InspectIO handles I/O for the inspect command.
type InspectIO interface {
	LoadConfig(path string) (config.Config, error)
	// LoadTree reads the documentation tree under root.
	LoadTree(root string, codec writer.Codec, validator entity.Validator) (inspect.Data, error)
}

// NewInspectCmd creates the inspect subcommand.
func NewInspectCmd(iio InspectIO) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "inspect [dir]",
		Short:        "Check a documentation tree for files the viewer cannot load",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd, iio.LoadConfig)
			if err != nil {
				return err
			}
			root := cfg.TargetDir
			if len(args) == 1 {
				root = args[0]
			}
			codec, err := writer.CodecFor(cfg.Format)
			if err != nil {
				return err
			}

			data, err := iio.LoadTree(root, codec, entity.Validator{Schema: cfg.SchemaValue()})
			if err != nil {
				return err
			}
			report := inspect.Audit(cmd.Context(), data)

			if jsonMode {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				renderReport(cmd.OutOrStdout(), root, report)
			}

			if report.HasErrors() {
				return fmt.Errorf("documentation tree %s has errors", root)
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "output the report as JSON")

	return cmd
}

// renderReport writes a summary box followed by one line per diagnostic.
func renderReport(w io.Writer, root string, report inspect.Report) {
	r := lipgloss.NewRenderer(w)
	boxStyle := r.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	headerStyle := r.NewStyle().Bold(true)
	errorStyle := r.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle := r.NewStyle().Foreground(lipgloss.Color("3"))
	okStyle := r.NewStyle().Foreground(lipgloss.Color("2"))

	c := report.Counts
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(root))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "branches %d  builds %d  use cases %d\n", c.Branches, c.Builds, c.UseCases)
	fmt.Fprintf(&sb, "scenarios %d  steps %d  screenshots %d", c.Scenarios, c.Steps, c.Screenshots)
	fmt.Fprintln(w, boxStyle.Render(sb.String()))

	errs, warns := 0, 0
	for _, d := range report.Diagnostics {
		style := warnStyle
		if d.Severity == inspect.SeverityError {
			style = errorStyle
			errs++
		} else {
			warns++
		}
		fmt.Fprintf(w, "%s %s %s\n", style.Render(string(d.Code)), d.Path, d.Message)
	}
	if errs == 0 && warns == 0 {
		fmt.Fprintln(w, okStyle.Render("no problems found"))
		return
	}
	fmt.Fprintf(w, "%d error(s), %d warning(s)\n", errs, warns)
}

// fileInspectIO implements InspectIO using OS file I/O.
type fileInspectIO struct{}

func newDefaultInspectIO() *fileInspectIO {
	return &fileInspectIO{}
}

// LoadConfig reads .env, the config file and the environment.
func (f *fileInspectIO) LoadConfig(path string) (config.Config, error) {
	return config.Load(path)
}

// LoadTree walks root on disk.
func (f *fileInspectIO) LoadTree(root string, codec writer.Codec, validator entity.Validator) (inspect.Data, error) {
	return inspect.Load(root, codec, validator)
}
