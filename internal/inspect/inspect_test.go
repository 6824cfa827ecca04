package inspect_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eykd/scenariodoc/internal/capture"
	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/inspect"
	"github.com/eykd/scenariodoc/internal/recorder"
	"github.com/eykd/scenariodoc/internal/writer"
)

const scenarioDir = "master/b1/Login/Happy+path"

// recordTree writes a run with one use case, one successful scenario and
// two steps.
func recordTree(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()
	r, err := recorder.New(recorder.Options{
		Capturer: capture.Static{Locator: "https://example.com/login", PNG: capture.BlankPNG()},
		Clock:    func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	require.NoError(t, r.StartRun(ctx, recorder.RunOptions{TargetDir: root, BranchName: "master", BuildName: "b1"}))
	require.NoError(t, r.StartUseCase(ctx, "Login", recorder.UseCaseOptions{}))
	require.NoError(t, r.StartScenario(ctx, "Happy path", recorder.ScenarioOptions{}))
	_, err = r.RecordStep(ctx, "opened page", recorder.StepProperties{})
	require.NoError(t, err)
	_, err = r.RecordStep(ctx, "signed in", recorder.StepProperties{})
	require.NoError(t, err)
	require.NoError(t, r.EndScenario(ctx, recorder.ScenarioEnd{Name: "Happy path", Status: entity.StatusSuccess}))
	require.NoError(t, r.EndUseCase(ctx, recorder.UseCaseEnd{Name: "Login"}))
	_, err = r.EndRun(ctx)
	require.NoError(t, err)
	return root
}

func audit(t *testing.T, root string) inspect.Report {
	t.Helper()
	data, err := inspect.Load(root, writer.XMLCodec{}, entity.Validator{})
	require.NoError(t, err)
	return inspect.Audit(context.Background(), data)
}

func codes(r inspect.Report) []inspect.Code {
	out := make([]inspect.Code, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		out = append(out, d.Code)
	}
	return out
}

func at(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

func TestAudit_CleanTree(t *testing.T) {
	root := recordTree(t)
	report := audit(t, root)

	assert.Empty(t, report.Diagnostics)
	assert.False(t, report.HasErrors())
	assert.Equal(t, inspect.Counts{
		Branches:    1,
		Builds:      1,
		UseCases:    1,
		Scenarios:   1,
		Steps:       2,
		Screenshots: 2,
	}, report.Counts)
}

func TestAudit_Defects(t *testing.T) {
	tests := []struct {
		name   string
		damage func(t *testing.T, root string)
		want   inspect.Code
		path   string
	}{
		{
			name: "numbering gap",
			damage: func(t *testing.T, root string) {
				require.NoError(t, os.Remove(at(root, scenarioDir+"/steps/000.xml")))
			},
			want: inspect.DOC003,
			path: scenarioDir + "/steps",
		},
		{
			name: "missing screenshot",
			damage: func(t *testing.T, root string) {
				require.NoError(t, os.Remove(at(root, scenarioDir+"/screenshots/001.png")))
			},
			want: inspect.DOC004,
			path: scenarioDir + "/steps/001.xml",
		},
		{
			name: "undecodable entity",
			damage: func(t *testing.T, root string) {
				require.NoError(t, os.WriteFile(at(root, "master/b1/build.xml"), []byte("<build><name>"), 0o644))
			},
			want: inspect.DOC001,
			path: "master/b1/build.xml",
		},
		{
			name: "missing use case file",
			damage: func(t *testing.T, root string) {
				require.NoError(t, os.Remove(at(root, "master/b1/Login/usecase.xml")))
			},
			want: inspect.DOC005,
			path: "master/b1/Login",
		},
		{
			name: "bad step file name",
			damage: func(t *testing.T, root string) {
				require.NoError(t, os.WriteFile(at(root, scenarioDir+"/steps/next.xml"), []byte("<step/>"), 0o644))
			},
			want: inspect.DOC006,
			path: scenarioDir + "/steps/next.xml",
		},
		{
			name: "renamed use case directory",
			damage: func(t *testing.T, root string) {
				require.NoError(t, os.Rename(at(root, "master/b1/Login"), at(root, "master/b1/Sign+in")))
			},
			want: inspect.DOC008,
			path: "master/b1/Sign+in",
		},
		{
			name: "undecodable directory name",
			damage: func(t *testing.T, root string) {
				require.NoError(t, os.Rename(at(root, "master/b1"), at(root, "master/b%zz")))
			},
			want: inspect.DOC008,
			path: "master/b%zz",
		},
		{
			name: "counter mismatch",
			damage: func(t *testing.T, root string) {
				require.NoError(t, os.RemoveAll(at(root, scenarioDir)))
			},
			want: inspect.DOCW001,
			path: "master/b1/Login",
		},
		{
			name: "stray file",
			damage: func(t *testing.T, root string) {
				require.NoError(t, os.WriteFile(at(root, "master/notes.txt"), []byte("hi"), 0o644))
			},
			want: inspect.DOCW002,
			path: "master/notes.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := recordTree(t)
			tt.damage(t, root)
			report := audit(t, root)

			require.Contains(t, codes(report), tt.want)
			for _, d := range report.Diagnostics {
				if d.Code == tt.want {
					assert.Equal(t, tt.path, d.Path)
				}
			}
		})
	}
}

func TestAudit_ErrorsSortBeforeWarnings(t *testing.T) {
	root := recordTree(t)
	require.NoError(t, os.WriteFile(at(root, "aaa.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Remove(at(root, scenarioDir+"/screenshots/000.png")))

	report := audit(t, root)
	require.True(t, report.HasErrors())
	require.GreaterOrEqual(t, len(report.Diagnostics), 2)
	assert.Equal(t, inspect.SeverityError, report.Diagnostics[0].Severity)
	last := report.Diagnostics[len(report.Diagnostics)-1]
	assert.Equal(t, inspect.SeverityWarning, last.Severity)
}

func TestAudit_UnreferencedScreenshot(t *testing.T) {
	root := recordTree(t)
	require.NoError(t, os.WriteFile(at(root, scenarioDir+"/screenshots/007.png"), capture.BlankPNG(), 0o644))

	report := audit(t, root)
	assert.Equal(t, []inspect.Code{inspect.DOCW003}, codes(report))
	assert.Equal(t, 3, report.Counts.Screenshots)
}

func TestLoad_SkipsTempFiles(t *testing.T) {
	root := recordTree(t)
	require.NoError(t, os.WriteFile(at(root, "master/.sdoc-123.tmp"), []byte("partial"), 0o644))

	data, err := inspect.Load(root, writer.XMLCodec{}, entity.Validator{})
	require.NoError(t, err)
	assert.NotContains(t, data.Assets, "master/.sdoc-123.tmp")
	assert.Contains(t, data.Files, "master/branch.xml")
	assert.True(t, data.Assets[scenarioDir+"/screenshots/000.png"])
}

func TestLoad_Errors(t *testing.T) {
	_, err := inspect.Load(filepath.Join(t.TempDir(), "missing"), writer.XMLCodec{}, entity.Validator{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.xml")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = inspect.Load(file, writer.XMLCodec{}, entity.Validator{})
	assert.Error(t, err)
}
