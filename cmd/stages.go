package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/config"
)

func newStagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "Print the configured stages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := a.pipelineStages()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, renderStages(stages, a.suffixes()))
			return nil
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "init [path]",
		Short:       "Write a config file with the default stages",
		Long:        "Write a config file holding the default archaea, fungi, bacteria and all stages.\nThe format follows the extension (.json, .yaml, .toml). Existing files are not overwritten.",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"config": "skip"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "refcat.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if filepath.Ext(path) == "" {
				return fmt.Errorf("config path %s needs an extension (.json, .yaml, .toml)", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, savedStyle.Render("Wrote default config to "+path))
			return nil
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the refcat version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"config": "skip"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.stdout, "refcat "+version)
		},
	}
}
