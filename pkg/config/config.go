// Package config holds run settings unmarshalled from viper, which merges
// command line flags, HGTMATCH_* environment variables (a .env file is loaded
// first) and an optional hgtmatch.yaml.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yumyai/hgtmatch/pkg/model"
)

// InputConfig points at the run inputs.
type InputConfig struct {
	// output prefix, also the name of the working folder "<prefix>_MetaCHIP_wd"
	Prefix string `mapstructure:"prefix"`
	// grouping file, "group,genome" per line
	Grouping string `mapstructure:"grouping"`
	// all-vs-all blastn results, 14 column tabular
	Blast string `mapstructure:"blast"`
	// folder with <genome>.gff and <genome>.fna
	Genomes string `mapstructure:"genomes"`
	// combined gene nucleotide fasta
	Genes string `mapstructure:"genes"`
}

// FilterConfig are the hit filter settings.
type FilterConfig struct {
	// minimum coverage of query and subject, percent
	Coverage int `mapstructure:"coverage"`
	// minimum alignment length, bp
	AlignLength int `mapstructure:"align-length"`
}

// ThresholdConfig are the group pair cutoff settings.
type ThresholdConfig struct {
	// percentile of group pair identities used as the cutoff
	Percentile float64 `mapstructure:"percentile"`
	// group pairs with fewer hits are reported as under-sampled
	MinimumSamples int `mapstructure:"minimum-samples"`
}

// ContigConfig are the secondary alignment settings.
type ContigConfig struct {
	// flanking length to each side of a candidate gene, kbp
	FlankingKbp int `mapstructure:"flanking-kbp"`
	// end match identity cutoff
	EndMatchIdentity float64 `mapstructure:"end-match-identity"`
	// distance to a contig end still counted as "at the end", bp
	EndMatchDistance int `mapstructure:"end-match-distance"`
	// blastn executable
	Blastn string `mapstructure:"blastn"`
	// number of concurrent contig comparisons
	Threads int `mapstructure:"threads"`
}

// Config is the root-level settings struct
type Config struct {
	Input     InputConfig     `mapstructure:"input"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Threshold ThresholdConfig `mapstructure:"threshold"`
	Contig    ContigConfig    `mapstructure:"contig"`

	// scan or lexical
	Dedup string `mapstructure:"dedup"`
	// sqlite file receiving run results, empty for <output>/hgtmatch.db
	DB string `mapstructure:"db"`
	// keep per-candidate temporary folders
	KeepTemp bool `mapstructure:"keep-temp"`
	Quiet    bool `mapstructure:"quiet"`
	Verbose  bool `mapstructure:"verbose"`
	// address for the result browser
	Listen string `mapstructure:"listen"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("filter.coverage", model.DefaultCoverageCutoff)
	v.SetDefault("filter.align-length", model.DefaultAlignLenCutoff)
	v.SetDefault("threshold.percentile", model.DefaultIdentityPercentile)
	v.SetDefault("threshold.minimum-samples", model.DefaultMinimumSamples)
	v.SetDefault("contig.flanking-kbp", model.DefaultFlankingLengthKbp)
	v.SetDefault("contig.end-match-identity", model.DefaultEndMatchIdentity)
	v.SetDefault("contig.end-match-distance", model.DefaultEndMatchDistance)
	v.SetDefault("contig.blastn", "blastn")
	v.SetDefault("contig.threads", 1)
	v.SetDefault("dedup", string(model.DedupScan))
	v.SetDefault("listen", "0.0.0.0:8080")
}

// Load reads .env, the optional config file and the environment into v and
// unmarshals the result. Flags must already be bound to v.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// Missing .env is fine, the process environment is used as is.
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix("HGTMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("hgtmatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return &c, nil
}

// Validate checks the inputs a run needs. Numeric thresholds are not range
// checked: a negative cutoff simply accepts everything.
func (c *Config) Validate() error {
	var errs []error
	if c.Input.Prefix == "" {
		errs = append(errs, errors.New("missing output prefix (-p)"))
	}
	if c.Input.Grouping == "" {
		errs = append(errs, errors.New("missing grouping file (-g)"))
	}
	if _, err := model.ParseDedupPolicy(c.Dedup); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// WorkDir is "<prefix>_MetaCHIP_wd".
func (c *Config) WorkDir() string {
	return c.Input.Prefix + "_MetaCHIP_wd"
}

// BlastResults falls back to the all-vs-all file inside the work dir.
func (c *Config) BlastResults() string {
	if c.Input.Blast != "" {
		return c.Input.Blast
	}
	return filepath.Join(c.WorkDir(), c.Input.Prefix+"_all_vs_all_ffn.tab")
}

// GenomeDir falls back to "<prefix>_gbk_files" inside the work dir.
func (c *Config) GenomeDir() string {
	if c.Input.Genomes != "" {
		return c.Input.Genomes
	}
	return filepath.Join(c.WorkDir(), c.Input.Prefix+"_gbk_files")
}

// CombinedGenes falls back to "<prefix>_combined.ffn" inside the work dir.
func (c *Config) CombinedGenes() string {
	if c.Input.Genes != "" {
		return c.Input.Genes
	}
	return filepath.Join(c.WorkDir(), c.Input.Prefix+"_combined.ffn")
}

// GroupingRank is the first letter of the last "_" token of the grouping
// file name, "c" for "demo_grouping_c15.txt".
func (c *Config) GroupingRank() string {
	if c.Input.Grouping == "" {
		return ""
	}
	base := filepath.Base(c.Input.Grouping)
	last := base[strings.LastIndex(base, "_")+1:]
	if last == "" {
		return ""
	}
	return last[:1]
}

// OutputDir encodes the run parameters in the folder name, e.g.
// "demo_HGTs_ip90_al200bp_c70_ei95bp_f10kbp_c3".
func (c *Config) OutputDir(groups int) string {
	name := fmt.Sprintf("%s_HGTs_ip%s_al%dbp_c%d_ei%sbp_f%dkbp_%s%d",
		c.Input.Prefix,
		formatNumber(c.Threshold.Percentile),
		c.Filter.AlignLength,
		c.Filter.Coverage,
		formatNumber(c.Contig.EndMatchIdentity),
		c.Contig.FlankingKbp,
		c.GroupingRank(),
		groups,
	)
	return filepath.Join(c.WorkDir(), name)
}

// ResultDB is the configured database or "<output>/hgtmatch.db".
func (c *Config) ResultDB(outputDir string) string {
	if c.DB != "" {
		return c.DB
	}
	return filepath.Join(outputDir, "hgtmatch.db")
}

// Params renders the settings as JSON for the run record.
func (c *Config) Params() string {
	b, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
