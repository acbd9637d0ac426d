// Package config holds refcat settings. Values come from a config file,
// REFCAT_* environment variables and command line flags bound by cmd,
// merged by viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/concat"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/seqfile"
)

// EnvPrefix is the prefix of environment overrides, e.g. REFCAT_LOG_LEVEL.
const EnvPrefix = "REFCAT"

// StageConfig is one named concatenation.
type StageConfig struct {
	Name     string `mapstructure:"name"`
	InputDir string `mapstructure:"input_dir"`
	Output   string `mapstructure:"output"`
	// Suffixes overrides the top-level suffixes for this stage.
	Suffixes []string `mapstructure:"suffixes"`
	// After names stages that must finish first.
	After []string `mapstructure:"after"`
}

// Config is the root settings struct.
type Config struct {
	LogFile     string        `mapstructure:"log_file"`
	LogLevel    string        `mapstructure:"log_level"`
	Verbose     bool          `mapstructure:"verbose"`
	Suffixes    []string      `mapstructure:"suffixes"`
	OnReadError string        `mapstructure:"on_read_error"`
	SortEntries bool          `mapstructure:"sort_entries"`
	Parallel    bool          `mapstructure:"parallel"`
	Report      string        `mapstructure:"report"`
	Stages      []StageConfig `mapstructure:"stages"`
}

// DefaultStages are the three per-taxon passes followed by the pass that
// merges their outputs into the master file. The master file is written
// outside the directory it reads.
func DefaultStages() []StageConfig {
	combined := "combined"
	return []StageConfig{
		{Name: "archaea", InputDir: "archaea_folder", Output: filepath.Join(combined, "archaea_refseq.fna")},
		{Name: "fungi", InputDir: "fungi_folder", Output: filepath.Join(combined, "fungi_refseq.fna")},
		{Name: "bacteria", InputDir: "bacteria_folder", Output: filepath.Join(combined, "bacteria_refseq.fna")},
		{Name: "all", InputDir: combined, Output: "all_refseq.fna", After: []string{"archaea", "fungi", "bacteria"}},
	}
}

// SetDefaults registers defaults for every top-level key so that
// environment overrides are picked up by AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("verbose", false)
	v.SetDefault("suffixes", []string(seqfile.DefaultSuffixes))
	v.SetDefault("on_read_error", string(concat.Abort))
	v.SetDefault("sort_entries", false)
	v.SetDefault("parallel", false)
	v.SetDefault("report", "")
	v.SetDefault("stages", stagesToMaps(DefaultStages()))
}

// Load reads the config file and environment into a Config.
// With an empty path, ./refcat.{json,yaml,toml} is used when present and
// defaults otherwise; an explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("refcat")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(c.Stages) == 0 {
		c.Stages = DefaultStages()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that can be checked without touching the disk.
// Stage ordering is checked by the pipeline.
func (c *Config) Validate() error {
	if _, err := c.ParsedSuffixes(); err != nil {
		return fmt.Errorf("suffixes: %w", err)
	}
	if _, err := concat.ParsePolicy(c.OnReadError); err != nil {
		return fmt.Errorf("on_read_error: %w", err)
	}
	for i, s := range c.Stages {
		if s.Name == "" {
			return fmt.Errorf("stages[%d]: name is required", i)
		}
		if s.InputDir == "" || s.Output == "" {
			return fmt.Errorf("stage %s: input_dir and output are required", s.Name)
		}
	}
	return nil
}

// ParsedSuffixes normalizes the top-level suffix list.
func (c *Config) ParsedSuffixes() (seqfile.Suffixes, error) {
	return seqfile.ParseSuffixes(strings.Join(c.Suffixes, ","))
}

// Policy returns the parsed read error policy.
func (c *Config) Policy() concat.ReadErrorPolicy {
	p, _ := concat.ParsePolicy(c.OnReadError)
	return p
}

// WriteDefault writes a config file holding the defaults. The format
// follows the file extension (json, yaml, toml).
func WriteDefault(path string) error {
	v := viper.New()
	SetDefaults(v)
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func stagesToMaps(stages []StageConfig) []map[string]any {
	out := make([]map[string]any, 0, len(stages))
	for _, s := range stages {
		m := map[string]any{
			"name":      s.Name,
			"input_dir": s.InputDir,
			"output":    s.Output,
		}
		if len(s.Suffixes) > 0 {
			m["suffixes"] = s.Suffixes
		}
		if len(s.After) > 0 {
			m["after"] = s.After
		}
		out = append(out, m)
	}
	return out
}
