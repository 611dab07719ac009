package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yumyai/hgtmatch/pkg/model"
)

const (
	groupingWithIDFile     = "grouping_with_id.txt"
	identityCutoffFile     = "identity_cutoff.txt"
	insufficientPairsFile  = "insufficient_pairs.txt"
	candidateTableFile     = "HGT_candidates_BM.txt"
	candidateNucleotideFas = "HGT_candidates_BM_nc.fasta"
	candidateProteinFas    = "HGT_candidates_BM_aa.fasta"
	flankingFolder         = "Flanking_regions"
	tempFolder             = "tmp"
)

var candidateTableHeader = []string{
	"Gene_1", "Gene_2", "Gene_1_group", "Gene_2_group", "Identity", "end_match", "full_length_match",
}

// WriteCandidateTable writes the final tab separated table with its header.
func WriteCandidateTable(w io.Writer, candidates []*model.AnnotatedCandidate) error {
	if _, err := fmt.Fprintln(w, strings.Join(candidateTableHeader, "\t")); err != nil {
		return err
	}
	for _, c := range candidates {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Recipient, c.Donor, c.RecipientGroup, c.DonorGroup,
			model.FormatIdentity(c.Identity), yesNo(c.EndMatch()), yesNo(c.FullLengthMatch()),
		); err != nil {
			return err
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// writeFile creates path and hands a buffered writer to fill.
func writeFile(path string, fill func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeFlankingJSON stores the match category and both flanking regions of a
// pair for the diagram renderer.
func writeFlankingJSON(dir string, result *ContigResult) error {
	path := filepath.Join(dir, result.Pair.Key()+".json")
	return writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	})
}
