package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/recorder"
)

// TestEvent is one line of `go test -json` output.
type TestEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"` // start, run, pass, fail, skip, output, pause, cont
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// goTestCase is a top-level test or one of its subtests.
type goTestCase struct {
	name     string
	status   entity.Status
	subtests []*goTestCase
}

type goTestPackage struct {
	name   string
	failed bool
	tests  []*goTestCase
	byName map[string]*goTestCase
}

// goTest collects every event first and replays the results on Close, so
// interleaved output from parallel packages still yields one use case per
// package.
type goTest struct {
	rep       Reporter
	opts      Options
	pkgs      []*goTestPackage
	byName    map[string]*goTestPackage
	malformed int
}

func newGoTest(rep Reporter, opts Options) *goTest {
	return &goTest{rep: rep, opts: opts, byName: make(map[string]*goTestPackage)}
}

// Feed reads a go test -json stream. Lines that are not JSON, such as
// compiler output, are counted and skipped.
func (g *goTest) Feed(ctx context.Context, name string, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		var ev TestEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			g.malformed++
			continue
		}
		g.process(ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}

func (g *goTest) pkg(name string) *goTestPackage {
	p, ok := g.byName[name]
	if !ok {
		p = &goTestPackage{name: name, byName: make(map[string]*goTestCase)}
		g.byName[name] = p
		g.pkgs = append(g.pkgs, p)
	}
	return p
}

// testCase finds or registers the test named by a go test event. Subtests
// hang off their top-level test whatever their depth.
func (p *goTestPackage) testCase(name string) *goTestCase {
	if tc, ok := p.byName[name]; ok {
		return tc
	}
	tc := &goTestCase{name: name}
	p.byName[name] = tc
	top, _, isSub := strings.Cut(name, "/")
	if !isSub {
		p.tests = append(p.tests, tc)
		return tc
	}
	parent := p.testCase(top)
	parent.subtests = append(parent.subtests, tc)
	return tc
}

func (g *goTest) process(ev TestEvent) {
	if ev.Package == "" {
		return
	}
	p := g.pkg(ev.Package)
	status, terminal := actionStatus(ev.Action)
	if ev.Test == "" {
		if terminal && status == entity.StatusFailed {
			p.failed = true
		}
		return
	}
	tc := p.testCase(ev.Test)
	if terminal {
		tc.status = status
	}
}

func actionStatus(action string) (entity.Status, bool) {
	switch action {
	case "pass":
		return entity.StatusSuccess, true
	case "fail":
		return entity.StatusFailed, true
	case "skip":
		return entity.StatusSkipped, true
	}
	return "", false
}

// Close replays the collected results: one use case per package, one
// scenario per top-level test and one step per subtest.
func (g *goTest) Close(ctx context.Context) (entity.Build, error) {
	log := g.opts.logger()
	if g.malformed > 0 {
		log.WithField("lines", g.malformed).Warn("skipped lines that are not go test events")
	}
	if len(g.pkgs) == 0 {
		return entity.Build{}, ErrNoRun
	}
	if err := g.rep.RunStarted(ctx, g.opts.Run); err != nil {
		return entity.Build{}, err
	}
	for _, p := range g.pkgs {
		if len(p.tests) == 0 {
			if p.failed {
				log.WithField("package", p.name).Warn("package failed without running tests")
			}
			continue
		}
		if err := g.replayPackage(ctx, p); err != nil {
			return entity.Build{}, fmt.Errorf("package %s: %w", p.name, err)
		}
	}
	return g.rep.RunEnded(ctx)
}

func (g *goTest) replayPackage(ctx context.Context, p *goTestPackage) error {
	if err := g.rep.UseCaseStarted(ctx, p.name, recorder.UseCaseOptions{}); err != nil {
		return err
	}
	for _, tc := range p.tests {
		if err := g.rep.ScenarioStarted(ctx, tc.name, recorder.ScenarioOptions{}); err != nil {
			return err
		}
		for _, sub := range tc.subtests {
			title := strings.TrimPrefix(sub.name, tc.name+"/")
			if err := g.rep.StepReached(ctx, title, recorder.StepProperties{Status: finalStatus(sub.status)}); err != nil {
				return err
			}
		}
		if err := g.rep.ScenarioEnded(ctx, tc.name, finalStatus(tc.status)); err != nil {
			return err
		}
	}
	return g.rep.UseCaseEnded(ctx, p.name)
}

// finalStatus treats a test that never reported a result as failed; go test
// leaves tests unfinished on panic or timeout.
func finalStatus(s entity.Status) entity.Status {
	if s == "" {
		return entity.StatusFailed
	}
	return s
}
