package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/concat"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/pipeline"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/report"
)

func newConcatCmd(a *app) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "concat",
		Short: "Concatenate the sequence files of one directory",
		Long: `Concatenate every file of --in whose name ends with one of the suffixes into
--out. Subdirectories are not searched. The output replaces any previous file
only once it is complete; if --out lies inside --in it is not read back.`,
		Example: `  refcat concat --in archaea_folder --out archaea_refseq.fna
  refcat concat --in combined --out all_refseq.fna --suffix .fna --sort`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			res, err := concat.Concatenate(cmd.Context(), a.files, concat.Options{
				InputDir:    in,
				Output:      out,
				Suffixes:    a.suffixes(),
				OnReadError: a.cfg.Policy(),
				SortEntries: a.cfg.SortEntries,
				Logger:      a.logger,
			})
			if a.cfg.Report != "" {
				status := pipeline.StatusOK
				if err != nil {
					status = pipeline.StatusFailed
				}
				rep := report.Report{
					GeneratedAt: time.Now().UTC(),
					Version:     version,
					Stages:      []report.Stage{report.FromResult("concat", status, res, err, time.Since(start))},
				}
				if werr := report.Write(a.files, a.cfg.Report, rep); werr != nil {
					a.logger.Error("failed to write run report", "path", a.cfg.Report, "err", werr)
				}
			}
			if err != nil {
				return err
			}
			for _, sk := range res.Skipped {
				fmt.Fprintln(a.stdout, warnStyle.Render("skipped "+sk.Name+": "+sk.Err.Error()))
			}
			fmt.Fprintln(a.stdout, savedLine(out))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in, "in", "", "directory holding the sequence files")
	f.StringVar(&out, "out", "", "combined output file")
	f.StringSlice("suffix", nil, "file name suffixes to include (default .fna,.fa)")
	f.String("on-read-error", "", "abort or skip when an input file cannot be read")
	f.Bool("sort", false, "visit input files in lexical order instead of directory order")
	f.String("report", "", "write a JSON run report to this path")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
