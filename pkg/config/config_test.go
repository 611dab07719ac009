package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 70, cfg.Filter.Coverage)
	assert.Equal(t, 200, cfg.Filter.AlignLength)
	assert.Equal(t, 90.0, cfg.Threshold.Percentile)
	assert.Equal(t, 10, cfg.Threshold.MinimumSamples)
	assert.Equal(t, 10, cfg.Contig.FlankingKbp)
	assert.Equal(t, 95.0, cfg.Contig.EndMatchIdentity)
	assert.Equal(t, 20, cfg.Contig.EndMatchDistance)
	assert.Equal(t, "blastn", cfg.Contig.Blastn)
	assert.Equal(t, 1, cfg.Contig.Threads)
	assert.Equal(t, "scan", cfg.Dedup)

	assert.Error(t, cfg.Validate(), "prefix and grouping are required")
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := "input:\n  prefix: demo\n  grouping: grouping.txt\nfilter:\n  coverage: 50\ncontig:\n  threads: 8\ndedup: lexical\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hgtmatch.yaml"), []byte(yaml), 0o644))
	t.Setenv("HGTMATCH_CONTIG_FLANKING_KBP", "5")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "demo", cfg.Input.Prefix)
	assert.Equal(t, 50, cfg.Filter.Coverage)
	assert.Equal(t, 8, cfg.Contig.Threads)
	assert.Equal(t, 5, cfg.Contig.FlankingKbp)
	assert.Equal(t, "lexical", cfg.Dedup)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	cfg := &Config{
		Input:     InputConfig{Prefix: "demo", Grouping: filepath.Join("in", "demo_grouping_c15.txt")},
		Filter:    FilterConfig{Coverage: 70, AlignLength: 200},
		Threshold: ThresholdConfig{Percentile: 90},
		Contig:    ContigConfig{FlankingKbp: 10, EndMatchIdentity: 95},
	}

	assert.Equal(t, "demo_MetaCHIP_wd", cfg.WorkDir())
	assert.Equal(t, filepath.Join("demo_MetaCHIP_wd", "demo_all_vs_all_ffn.tab"), cfg.BlastResults())
	assert.Equal(t, filepath.Join("demo_MetaCHIP_wd", "demo_gbk_files"), cfg.GenomeDir())
	assert.Equal(t, filepath.Join("demo_MetaCHIP_wd", "demo_combined.ffn"), cfg.CombinedGenes())
	assert.Equal(t, filepath.Join("demo_MetaCHIP_wd", "demo_HGTs_ip90_al200bp_c70_ei95bp_f10kbp_c3"), cfg.OutputDir(3))

	cfg.Threshold.Percentile = 92.5
	assert.Equal(t, filepath.Join("demo_MetaCHIP_wd", "demo_HGTs_ip92.5_al200bp_c70_ei95bp_f10kbp_c3"), cfg.OutputDir(3))

	out := cfg.OutputDir(3)
	assert.Equal(t, filepath.Join(out, "hgtmatch.db"), cfg.ResultDB(out))
	cfg.DB = "/tmp/results.db"
	assert.Equal(t, "/tmp/results.db", cfg.ResultDB(out))

	cfg.Input.Grouping = "grouping.txt"
	assert.Equal(t, "g", cfg.GroupingRank())
	cfg.Input.Grouping = "groups_"
	assert.Equal(t, "", cfg.GroupingRank())

	cfg.Input.Blast = "hits.tab"
	assert.Equal(t, "hits.tab", cfg.BlastResults())
}
