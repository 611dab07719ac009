// Model for exporting nucleotide and protein sequences of candidate genes

package model

import (
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

const fastaLineWidth = 60

func init() {
	// contigs and genes may carry any IUPAC letter
	seq.ValidateSeq = false
}

// QualifiedGenes collects the genes of every pair that is not an end match,
// in table order without repeats.
func QualifiedGenes(pairs []*AnnotatedCandidate) []string {
	seen := make(map[string]struct{})
	var genes []string
	for _, p := range pairs {
		if p.EndMatch() {
			continue
		}
		for _, g := range []string{p.Recipient, p.Donor} {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			genes = append(genes, g)
		}
	}
	return genes
}

// ExportSequences scans the combined gene FASTA and writes every wanted
// record to nc, and its standard-code translation to aa, in file order.
// It returns how many records were written.
func ExportSequences(ffnFile string, wanted []string, nc, aa io.Writer) (int, error) {
	want := make(map[string]struct{}, len(wanted))
	for _, g := range wanted {
		want[g] = struct{}{}
	}

	reader, err := fastx.NewReader(seq.DNAredundant, ffnFile, "")
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", ffnFile, err)
	}
	defer reader.Close()

	written := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return written, fmt.Errorf("read %s: %w", ffnFile, err)
		}

		if _, ok := want[string(record.ID)]; !ok {
			continue
		}

		if err := writeFasta(nc, record.Name, record.Seq); err != nil {
			return written, err
		}

		protein, err := record.Seq.Translate(1, 1, false, false, true, false)
		if err != nil {
			return written, fmt.Errorf("translate %s: %w", record.ID, err)
		}
		if err := writeFasta(aa, record.Name, protein); err != nil {
			return written, err
		}
		written++
	}

	return written, nil
}

func writeFasta(w io.Writer, header []byte, s *seq.Seq) error {
	if _, err := fmt.Fprintf(w, ">%s\n", header); err != nil {
		return err
	}
	if _, err := w.Write(s.FormatSeq(fastaLineWidth)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
