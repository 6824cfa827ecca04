package inspect

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/sanitize"
	"github.com/eykd/scenariodoc/internal/writer"
)

// Data is a pre-loaded documentation tree. Paths are slash-separated and
// relative to the documentation root.
type Data struct {
	Codec     writer.Codec
	Validator entity.Validator
	// Files holds the contents of every entity file (those ending in the
	// codec's extension).
	Files map[string][]byte
	// Assets lists every other regular file, screenshots included.
	Assets map[string]bool
}

const (
	depthBranch   = 2
	depthBuild    = 3
	depthUseCase  = 4
	depthScenario = 5
	depthStep     = 6

	stepsDir       = "steps"
	screenshotsDir = "screenshots"
)

type tally struct {
	passed, failed, skipped int
}

func (t *tally) add(s entity.Status) {
	switch s {
	case entity.StatusSuccess:
		t.passed++
	case entity.StatusFailed:
		t.failed++
	case entity.StatusSkipped:
		t.skipped++
	}
}

type auditor struct {
	data  Data
	ext   string
	diags []Diagnostic
	rep   Counts

	stepIndices   map[string][]int          // scenario dir -> step indices
	shotRefs      map[string]bool           // screenshot paths referenced by steps
	useCases      map[string]entity.UseCase // use case dir -> entity
	builds        map[string]entity.Build   // build dir -> entity
	scenarioTally map[string]*tally         // use case dir -> scenario statuses
	useCaseTally  map[string]*tally         // build dir -> use case statuses
}

// Audit checks a pre-loaded tree and returns counts and diagnostics sorted
// errors first, then by path. It performs no IO.
func Audit(ctx context.Context, data Data) Report {
	a := &auditor{
		data:          data,
		ext:           "." + data.Codec.Ext(),
		stepIndices:   make(map[string][]int),
		shotRefs:      make(map[string]bool),
		useCases:      make(map[string]entity.UseCase),
		builds:        make(map[string]entity.Build),
		scenarioTally: make(map[string]*tally),
		useCaseTally:  make(map[string]*tally),
	}

	for _, p := range sortedKeys(data.Files) {
		if ctx.Err() != nil {
			break
		}
		a.checkFile(p, data.Files[p])
	}
	a.checkDirectories()
	a.checkStepNumbering()
	a.checkAssets()
	a.checkCounters()

	sort.SliceStable(a.diags, func(i, j int) bool {
		si, sj := severityRank(a.diags[i].Severity), severityRank(a.diags[j].Severity)
		if si != sj {
			return si < sj
		}
		return a.diags[i].Path < a.diags[j].Path
	})
	return Report{Counts: a.rep, Diagnostics: a.diags}
}

func severityRank(s Severity) int {
	if s == SeverityError {
		return 0
	}
	return 1
}

func (a *auditor) checkFile(p string, content []byte) {
	parts := strings.Split(p, "/")
	base := parts[len(parts)-1]
	dir := path.Dir(p)

	switch {
	case len(parts) == depthBranch && base == entity.KindBranch.FileBase()+a.ext:
		var b entity.Branch
		if a.decode(entity.KindBranch, p, content, &b) {
			a.rep.Branches++
			a.checkDirName(entity.KindBranch, dir, b.Name)
		}
	case len(parts) == depthBuild && base == entity.KindBuild.FileBase()+a.ext:
		var b entity.Build
		if a.decode(entity.KindBuild, p, content, &b) {
			a.rep.Builds++
			a.builds[dir] = b
			a.checkDirName(entity.KindBuild, dir, b.Name)
		}
	case len(parts) == depthUseCase && base == entity.KindUseCase.FileBase()+a.ext:
		var u entity.UseCase
		if a.decode(entity.KindUseCase, p, content, &u) {
			a.rep.UseCases++
			a.useCases[dir] = u
			a.checkDirName(entity.KindUseCase, dir, u.Name)
			a.tallyFor(a.useCaseTally, path.Dir(dir)).add(u.Status)
		}
	case len(parts) == depthScenario && base == entity.KindScenario.FileBase()+a.ext:
		var s entity.Scenario
		if a.decode(entity.KindScenario, p, content, &s) {
			a.rep.Scenarios++
			a.checkDirName(entity.KindScenario, dir, s.Name)
			a.tallyFor(a.scenarioTally, path.Dir(dir)).add(s.Status)
		}
	case len(parts) == depthStep && parts[depthStep-2] == stepsDir:
		a.checkStep(p, base, content)
	default:
		a.diags = append(a.diags, warnDiag(DOCW002, p, fmt.Sprintf("unexpected file in documentation tree: %s", p)))
	}
}

func (a *auditor) checkStep(p, base string, content []byte) {
	scenarioDir := path.Dir(path.Dir(p))
	stem := strings.TrimSuffix(base, a.ext)
	fileIndex, err := strconv.Atoi(stem)
	if err != nil || fileIndex < 0 || len(stem) < 3 {
		a.diags = append(a.diags, errDiag(DOC006, p, fmt.Sprintf("step file name is not a step index: %s", base)))
		return
	}
	a.stepIndices[scenarioDir] = append(a.stepIndices[scenarioDir], fileIndex)

	var s entity.Step
	if !a.decode(entity.KindStep, p, content, &s) {
		return
	}
	a.rep.Steps++
	if s.Index != fileIndex {
		a.diags = append(a.diags, errDiag(DOC007, p, fmt.Sprintf("step index %d does not match file name %s", s.Index, base)))
	}
	if s.ScreenshotFileName != "" {
		shot := path.Join(scenarioDir, screenshotsDir, s.ScreenshotFileName)
		a.shotRefs[shot] = true
		if !a.data.Assets[shot] {
			a.diags = append(a.diags, errDiag(DOC004, p, fmt.Sprintf("screenshot missing: %s", shot)))
		}
	}
}

// checkDirName requires dir to be the encoded, sanitized form of name.
func (a *auditor) checkDirName(kind entity.Kind, dir, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	decoded, err := sanitize.DecodeFileName(path.Base(dir))
	if err != nil {
		a.diags = append(a.diags, errDiag(DOC008, dir, err.Error()))
		return
	}
	if want := sanitize.SanitizeForID(name); decoded != want {
		a.diags = append(a.diags, errDiag(DOC008, dir,
			fmt.Sprintf("%s %q is stored in the directory for %q", kind, want, decoded)))
	}
}

// decode unmarshals and validates one entity, recording diagnostics. It
// reports whether the entity decoded (validation failures still count).
func (a *auditor) decode(kind entity.Kind, p string, content []byte, v any) bool {
	if err := a.data.Codec.Unmarshal(kind, content, v); err != nil {
		a.diags = append(a.diags, errDiag(DOC001, p, fmt.Sprintf("cannot decode %s: %v", kind, err)))
		return false
	}
	if err := a.data.Validator.Validate(v); err != nil {
		a.diags = append(a.diags, errDiag(DOC002, p, err.Error()))
	}
	return true
}

// checkDirectories requires every branch, build, use case and scenario
// directory implied by a file path to hold its entity file.
func (a *auditor) checkDirectories() {
	expected := make(map[string]entity.Kind)
	note := func(p string) {
		parts := strings.Split(p, "/")
		kinds := []entity.Kind{entity.KindBranch, entity.KindBuild, entity.KindUseCase, entity.KindScenario}
		for depth, kind := range kinds {
			if len(parts) > depth+1 {
				expected[strings.Join(parts[:depth+1], "/")] = kind
			}
		}
	}
	for p := range a.data.Files {
		note(p)
	}
	for p := range a.data.Assets {
		note(p)
	}
	for _, dir := range sortedKeys(expected) {
		kind := expected[dir]
		file := path.Join(dir, kind.FileBase()+a.ext)
		if _, ok := a.data.Files[file]; !ok {
			a.diags = append(a.diags, errDiag(DOC005, dir, fmt.Sprintf("%s directory has no %s", kind, path.Base(file))))
		}
	}
}

func (a *auditor) checkStepNumbering() {
	for _, dir := range sortedKeys(a.stepIndices) {
		indices := a.stepIndices[dir]
		sort.Ints(indices)
		present := make(map[int]bool, len(indices))
		for _, i := range indices {
			present[i] = true
		}
		last := indices[len(indices)-1]
		for i := 0; i < last; i++ {
			if !present[i] {
				a.diags = append(a.diags, errDiag(DOC003, path.Join(dir, stepsDir),
					fmt.Sprintf("step %d is missing (last step is %d)", i, last)))
			}
		}
	}
}

func (a *auditor) checkAssets() {
	for _, p := range sortedKeys(a.data.Assets) {
		parts := strings.Split(p, "/")
		if len(parts) == depthStep && parts[depthStep-2] == screenshotsDir && strings.HasSuffix(p, ".png") {
			a.rep.Screenshots++
			if !a.shotRefs[p] {
				a.diags = append(a.diags, warnDiag(DOCW003, p, fmt.Sprintf("screenshot not referenced by any step: %s", p)))
			}
			continue
		}
		a.diags = append(a.diags, warnDiag(DOCW002, p, fmt.Sprintf("unexpected file in documentation tree: %s", p)))
	}
}

func (a *auditor) checkCounters() {
	for _, dir := range sortedKeys(a.useCases) {
		u := a.useCases[dir]
		got := a.tallyFor(a.scenarioTally, dir)
		if got.passed != u.PassedScenarios || got.failed != u.FailedScenarios || got.skipped != u.SkippedScenarios {
			a.diags = append(a.diags, warnDiag(DOCW001, dir, fmt.Sprintf(
				"use case counts %d/%d/%d passed/failed/skipped but scenarios on disk give %d/%d/%d",
				u.PassedScenarios, u.FailedScenarios, u.SkippedScenarios, got.passed, got.failed, got.skipped)))
		}
	}
	for _, dir := range sortedKeys(a.builds) {
		b := a.builds[dir]
		got := a.tallyFor(a.useCaseTally, dir)
		if got.passed != b.PassedUseCases || got.failed != b.FailedUseCases || got.skipped != b.SkippedUseCases {
			a.diags = append(a.diags, warnDiag(DOCW001, dir, fmt.Sprintf(
				"build counts %d/%d/%d passed/failed/skipped but use cases on disk give %d/%d/%d",
				b.PassedUseCases, b.FailedUseCases, b.SkippedUseCases, got.passed, got.failed, got.skipped)))
		}
	}
}

func (a *auditor) tallyFor(m map[string]*tally, dir string) *tally {
	t, ok := m[dir]
	if !ok {
		t = &tally{}
		m[dir] = t
	}
	return t
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
