package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/pipeline"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/report"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/seqfile"
)

func newRunCmd(a *app) *cobra.Command {
	var only []string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured stages in order",
		Long: `Run every configured stage. The per-taxon stages run first; a stage listed
in another stage's "after" must succeed before that stage starts, so the
master file is only built from complete per-taxon files.`,
		Example: `  refcat run
  refcat run --only archaea,fungi
  refcat run --config refcat.yaml --sort --report run.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPipeline(cmd.Context(), only, dryRun)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&only, "only", nil, "run only these stages (comma separated)")
	f.Bool("parallel", false, "run stages whose dependencies are done concurrently")
	f.Bool("sort", false, "visit input files in lexical order instead of directory order")
	f.String("on-read-error", "", "abort or skip when an input file cannot be read")
	f.String("report", "", "write a JSON run report to this path")
	f.BoolVar(&dryRun, "dry-run", false, "print the stages that would run without running them")
	return cmd
}

// pipelineStages resolves the configured stages, applying per-stage suffix
// overrides.
func (a *app) pipelineStages() ([]pipeline.Stage, error) {
	stages := make([]pipeline.Stage, 0, len(a.cfg.Stages))
	for _, sc := range a.cfg.Stages {
		st := pipeline.Stage{Name: sc.Name, InputDir: sc.InputDir, Output: sc.Output, After: sc.After}
		if len(sc.Suffixes) > 0 {
			sfx, err := seqfile.ParseSuffixes(strings.Join(sc.Suffixes, ","))
			if err != nil {
				return nil, fmt.Errorf("stage %s: suffixes: %w", sc.Name, err)
			}
			st.Suffixes = sfx
		}
		stages = append(stages, st)
	}
	return stages, nil
}

func (a *app) runPipeline(ctx context.Context, only []string, dryRun bool) error {
	stages, err := a.pipelineStages()
	if err != nil {
		return err
	}
	p, err := pipeline.New(stages)
	if err != nil {
		return err
	}
	if dryRun {
		plan, err := p.Plan(only)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, renderStages(plan, a.suffixes()))
		a.logger.Info("dry-run: no files written", "stages", len(plan))
		return nil
	}

	a.logger.Info("starting refcat", "stages", len(stages), "parallel", a.cfg.Parallel, "on_read_error", a.cfg.OnReadError)
	sum, runErr := p.Run(ctx, a.files, pipeline.RunOptions{
		Only:        only,
		Parallel:    a.cfg.Parallel,
		Suffixes:    a.suffixes(),
		OnReadError: a.cfg.Policy(),
		SortEntries: a.cfg.SortEntries,
		Logger:      a.logger,
	})
	if len(sum.Stages) > 0 {
		fmt.Fprintln(a.stdout, renderSummary(sum))
		for _, sr := range sum.Stages {
			if sr.Status == pipeline.StatusOK {
				fmt.Fprintln(a.stdout, savedLine(sr.Stage.Output))
			}
		}
	}

	if a.cfg.Report != "" {
		rep := report.FromSummary(sum, version, time.Now())
		if err := report.Write(a.files, a.cfg.Report, rep); err != nil {
			a.logger.Error("failed to write run report", "path", a.cfg.Report, "err", err)
			if runErr == nil {
				runErr = err
			}
		} else {
			a.logger.Info("wrote run report", "path", a.cfg.Report)
		}
	}
	return runErr
}

func (a *app) suffixes() seqfile.Suffixes {
	sfx, err := a.cfg.ParsedSuffixes()
	if err != nil {
		// Validate already rejected this
		return seqfile.DefaultSuffixes
	}
	return sfx
}
