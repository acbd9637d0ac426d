package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/concat"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/fsys"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/logging"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/seqfile"
)

// Stage is one concatenation of InputDir into Output.
type Stage struct {
	Name     string
	InputDir string
	Output   string
	// Suffixes overrides RunOptions.Suffixes when set.
	Suffixes seqfile.Suffixes
	// After lists stages that must succeed before this one runs.
	After []string
}

// Status is the outcome of one stage in a run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusBlocked Status = "blocked" // a dependency failed
	StatusNotRun  Status = "not run" // the run stopped before reaching it
)

// StageResult reports one stage.
type StageResult struct {
	Stage    Stage
	Status   Status
	Result   concat.Result
	Err      error
	Duration time.Duration
}

// Summary lists stage results in declaration order.
type Summary struct {
	Stages []StageResult
}

// Failed returns the stages whose status is not ok.
func (s Summary) Failed() []StageResult {
	var out []StageResult
	for _, r := range s.Stages {
		if r.Status != StatusOK {
			out = append(out, r)
		}
	}
	return out
}

// RunOptions are applied to every stage.
type RunOptions struct {
	// Only restricts the run to these stage names. Dependencies are not
	// added automatically.
	Only []string
	// Parallel runs stages whose dependencies are done concurrently.
	Parallel bool
	// Workers bounds concurrent stages when Parallel is set; 0 means no bound.
	Workers     int
	Suffixes    seqfile.Suffixes
	OnReadError concat.ReadErrorPolicy
	SortEntries bool
	// NoMkdir disables creating each output's parent directory.
	NoMkdir bool
	Logger  *log.Logger
}

// Pipeline is a validated, ordered stage list.
type Pipeline struct {
	stages []Stage
	index  map[string]int
}

// New validates stages: names are unique and non-empty, every After entry
// names an earlier stage, and no two stages share an output.
func New(stages []Stage) (*Pipeline, error) {
	p := &Pipeline{stages: append([]Stage(nil), stages...), index: make(map[string]int, len(stages))}
	outputs := make(map[string]string, len(stages))
	for i, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("stage %d: name is required", i)
		}
		if _, dup := p.index[s.Name]; dup {
			return nil, fmt.Errorf("stage %s: duplicate name", s.Name)
		}
		for _, dep := range s.After {
			if _, ok := p.index[dep]; ok {
				continue
			}
			if declared(stages[i+1:], dep) {
				return nil, fmt.Errorf("stage %s: depends on %s, which is declared after it", s.Name, dep)
			}
			return nil, fmt.Errorf("stage %s: unknown dependency %s", s.Name, dep)
		}
		out := filepath.Clean(s.Output)
		if prev, ok := outputs[out]; ok {
			return nil, fmt.Errorf("stages %s and %s both write %s", prev, s.Name, s.Output)
		}
		outputs[out] = s.Name
		p.index[s.Name] = i
	}
	return p, nil
}

func declared(stages []Stage, name string) bool {
	for _, s := range stages {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Stages returns the stages in declaration order.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Plan returns the stages a run with the given selection would execute,
// in execution order.
func (p *Pipeline) Plan(only []string) ([]Stage, error) {
	if len(only) == 0 {
		return p.Stages(), nil
	}
	want := make(map[string]bool, len(only))
	for _, name := range only {
		if _, ok := p.index[name]; !ok {
			return nil, fmt.Errorf("unknown stage %q", name)
		}
		want[name] = true
	}
	var out []Stage
	for _, s := range p.stages {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}

// Run executes the planned stages. It stops at the first failure; stages
// depending on a failed stage are reported as blocked and the rest as not
// run. The returned error wraps the first stage failure.
func (p *Pipeline) Run(ctx context.Context, files fsys.FS, opts RunOptions) (Summary, error) {
	plan, err := p.Plan(opts.Only)
	if err != nil {
		return Summary{}, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	r := &runner{files: files, opts: opts, plan: plan, results: make([]StageResult, len(plan)), pos: make(map[string]int, len(plan))}
	for i, s := range plan {
		r.pos[s.Name] = i
		r.results[i] = StageResult{Stage: s, Status: StatusNotRun}
	}
	if opts.Parallel {
		err = r.runWaves(ctx)
	} else {
		err = r.runSequential(ctx)
	}
	return Summary{Stages: r.results}, err
}

type runner struct {
	files   fsys.FS
	opts    RunOptions
	plan    []Stage
	results []StageResult
	pos     map[string]int
}

func (r *runner) runSequential(ctx context.Context) error {
	for i, s := range r.plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.results[i] = r.runStage(ctx, s)
		if r.results[i].Status == StatusFailed {
			r.markBlocked()
			return fmt.Errorf("stage %s: %w", s.Name, r.results[i].Err)
		}
	}
	return nil
}

// runWaves repeatedly runs every stage whose selected dependencies are done,
// using a bounded pool of workers for each wave.
func (r *runner) runWaves(ctx context.Context) error {
	done := make(map[string]bool, len(r.plan))
	for len(done) < len(r.plan) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var wave []int
		for i, s := range r.plan {
			if !done[s.Name] && r.ready(s, done) {
				wave = append(wave, i)
			}
		}
		if len(wave) == 0 {
			// cannot happen for a validated pipeline
			return errors.New("no runnable stage left")
		}

		workers := r.opts.Workers
		if workers <= 0 || workers > len(wave) {
			workers = len(wave)
		}
		tasks := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range tasks {
					r.results[i] = r.runStage(ctx, r.plan[i])
				}
			}()
		}
		for _, i := range wave {
			tasks <- i
		}
		close(tasks)
		wg.Wait()

		var firstErr error
		for _, i := range wave {
			done[r.plan[i].Name] = true
			if res := r.results[i]; res.Status == StatusFailed && firstErr == nil {
				firstErr = fmt.Errorf("stage %s: %w", res.Stage.Name, res.Err)
			}
		}
		if firstErr != nil {
			r.markBlocked()
			return firstErr
		}
	}
	return nil
}

func (r *runner) ready(s Stage, done map[string]bool) bool {
	for _, dep := range s.After {
		if _, selected := r.pos[dep]; selected && !done[dep] {
			return false
		}
	}
	return true
}

// markBlocked flags not-run stages that depend, directly or not, on a
// failed or blocked stage.
func (r *runner) markBlocked() {
	for i, s := range r.plan {
		if r.results[i].Status != StatusNotRun {
			continue
		}
		for _, dep := range s.After {
			j, ok := r.pos[dep]
			if !ok {
				continue
			}
			if st := r.results[j].Status; st == StatusFailed || st == StatusBlocked {
				r.results[i].Status = StatusBlocked
				break
			}
		}
	}
}

func (r *runner) runStage(ctx context.Context, s Stage) StageResult {
	logger := r.opts.Logger.With("stage", s.Name)
	res := StageResult{Stage: s}
	start := time.Now()

	if !r.opts.NoMkdir {
		if err := r.files.MkdirAll(filepath.Dir(s.Output)); err != nil {
			res.Status, res.Err = StatusFailed, fmt.Errorf("create output directory: %w", err)
			res.Duration = time.Since(start)
			return res
		}
	}
	suffixes := s.Suffixes
	if len(suffixes) == 0 {
		suffixes = r.opts.Suffixes
	}
	logger.Info("starting stage", "input_dir", s.InputDir, "output", s.Output)
	cres, err := concat.Concatenate(ctx, r.files, concat.Options{
		InputDir:    s.InputDir,
		Output:      s.Output,
		Suffixes:    suffixes,
		OnReadError: r.opts.OnReadError,
		SortEntries: r.opts.SortEntries,
		Logger:      logger,
	})
	res.Result = cres
	res.Duration = time.Since(start)
	if err != nil {
		logger.Error("stage failed", "err", err)
		res.Status, res.Err = StatusFailed, err
		return res
	}
	res.Status = StatusOK
	return res
}
