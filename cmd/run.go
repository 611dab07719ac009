package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yumyai/hgtmatch/pkg/model"
	"github.com/yumyai/hgtmatch/pkg/pipeline"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Find HGT candidates with the best-match approach",
	Long: `Find HGT candidates with the best-match approach

1. Filter all-vs-all blastn hits by genome grouping, alignment length and coverage
2. Estimate an identity cutoff per group pair from a percentile of its hits
3. For every query gene, pick the non-self group whose genes match better than
   its own group, and keep the best subject when it passes the pair cutoff
4. Collapse reciprocal pairs into a single candidate
5. Align the contigs of both genes and flag end matches and full length matches`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindRunFlags(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		p := pipeline.New(cfg)
		if !cfg.Quiet {
			p.Progress = os.Stderr
		}
		_, err = p.Run(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("prefix", "p", "", "output prefix")
	flags.StringP("grouping", "g", "", "grouping file, \"group,genome\" per line")
	flags.String("blast", "", "all-vs-all blastn results (default <prefix>_MetaCHIP_wd/<prefix>_all_vs_all_ffn.tab)")
	flags.String("genomes", "", "folder with <genome>.gff and <genome>.fna (default <prefix>_MetaCHIP_wd/<prefix>_gbk_files)")
	flags.String("genes", "", "combined gene fasta (default <prefix>_MetaCHIP_wd/<prefix>_combined.ffn)")
	flags.Int("cov", model.DefaultCoverageCutoff, "coverage cutoff, percent")
	flags.Int("al", model.DefaultAlignLenCutoff, "alignment length cutoff, bp")
	flags.Float64("ip", model.DefaultIdentityPercentile, "identity percentile")
	flags.Int("min-samples", model.DefaultMinimumSamples, "group pairs with fewer hits are reported as under-sampled")
	flags.Int("flk", model.DefaultFlankingLengthKbp, "flanking sequence length, kbp")
	flags.Float64("ei", model.DefaultEndMatchIdentity, "end match identity cutoff")
	flags.Int("ed", model.DefaultEndMatchDistance, "end match distance to contig ends, bp")
	flags.String("blastn", "blastn", "blastn executable")
	flags.IntP("threads", "t", 1, "number of concurrent contig comparisons")
	flags.String("dedup", string(model.DedupScan), "reciprocal pair policy: scan or lexical")
	flags.String("db", "", "sqlite file receiving run results (default <output>/hgtmatch.db)")
	flags.Bool("keep-temp", false, "keep per-candidate temporary folders")
}

// bindRunFlags ties run flags to config keys. Called on PreRun since serve
// binds "db" too and viper keeps one flag per key.
func bindRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	viper.BindPFlag("input.prefix", flags.Lookup("prefix"))
	viper.BindPFlag("input.grouping", flags.Lookup("grouping"))
	viper.BindPFlag("input.blast", flags.Lookup("blast"))
	viper.BindPFlag("input.genomes", flags.Lookup("genomes"))
	viper.BindPFlag("input.genes", flags.Lookup("genes"))
	viper.BindPFlag("filter.coverage", flags.Lookup("cov"))
	viper.BindPFlag("filter.align-length", flags.Lookup("al"))
	viper.BindPFlag("threshold.percentile", flags.Lookup("ip"))
	viper.BindPFlag("threshold.minimum-samples", flags.Lookup("min-samples"))
	viper.BindPFlag("contig.flanking-kbp", flags.Lookup("flk"))
	viper.BindPFlag("contig.end-match-identity", flags.Lookup("ei"))
	viper.BindPFlag("contig.end-match-distance", flags.Lookup("ed"))
	viper.BindPFlag("contig.blastn", flags.Lookup("blastn"))
	viper.BindPFlag("contig.threads", flags.Lookup("threads"))
	viper.BindPFlag("dedup", flags.Lookup("dedup"))
	viper.BindPFlag("db", flags.Lookup("db"))
	viper.BindPFlag("keep-temp", flags.Lookup("keep-temp"))
}
