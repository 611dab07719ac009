package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/hgtmatch/logger"
	"github.com/yumyai/hgtmatch/pkg/model"
)

var (
	clusterFile  string
	groupingOut  string
	withGroupIDs bool
)

// groupingCmd represents the grouping command
var groupingCmd = &cobra.Command{
	Use:   "grouping",
	Short: "Turn a \"genome,cluster\" file into a grouping file",
	Long: `Turn a "genome,cluster" file into a grouping file

Rows starting with "," are treated as headers. Clusters are sorted and
labelled A..Z, then AA..ZZ. Output lines are "group,genome", or "A_1,genome"
with --with-id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(clusterFile)
		if err != nil {
			return err
		}
		defer in.Close()

		grouping, err := model.GroupingFromClusters(in)
		if err != nil {
			return fmt.Errorf("%s: %w", clusterFile, err)
		}

		var out io.Writer = cmd.OutOrStdout()
		if groupingOut != "" {
			f, err := os.Create(groupingOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		w := bufio.NewWriter(out)
		write := grouping.Write
		if withGroupIDs {
			write = grouping.WriteIndexed
		}
		if err := write(w); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}

		logger.Info("Grouping written",
			zap.Int("groups", len(grouping.Groups())),
			zap.Int("genomes", len(grouping.Genomes())),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(groupingCmd)

	groupingCmd.Flags().StringVarP(&clusterFile, "cluster", "c", "", "\"genome,cluster\" file")
	groupingCmd.Flags().StringVarP(&groupingOut, "out", "o", "", "output grouping file (default stdout)")
	groupingCmd.Flags().BoolVar(&withGroupIDs, "with-id", false, "write per-group genome labels")

	groupingCmd.MarkFlagRequired("cluster")
}
