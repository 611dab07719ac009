package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yumyai/hgtmatch/logger"
	"github.com/yumyai/hgtmatch/pkg/db"
	"github.com/yumyai/hgtmatch/pkg/model"
)

// ContigAligner compares two FASTA files. *model.Blastn satisfies it.
type ContigAligner interface {
	Compare(ctx context.Context, queryFasta, subjectFasta string) ([]*model.AlignmentHit, error)
}

// ContigResult is the secondary alignment outcome of one candidate pair.
type ContigResult struct {
	Pair      *model.CandidatePair  `json:"pair"`
	Category  model.MatchCategory   `json:"category"`
	BestHit   *model.AlignmentHit   `json:"best_hit,omitempty"`
	Recipient *model.FlankingRegion `json:"recipient_region"`
	Donor     *model.FlankingRegion `json:"donor_region"`
}

// ContigComparer aligns the full contigs carrying both genes of a pair.
type ContigComparer struct {
	Genomes  *db.GenomeStore
	Aligner  ContigAligner
	Matcher  *model.ContigMatcher
	Flank    int // bp
	TempDir  string
	KeepTemp bool
}

// Compare owns its own folder under TempDir, so comparisons can run concurrently.
func (c *ContigComparer) Compare(ctx context.Context, pair *model.CandidatePair) (*ContigResult, error) {
	dir := filepath.Join(c.TempDir, pair.Key())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if !c.KeepTemp {
		defer os.RemoveAll(dir)
	}

	recipientFasta := filepath.Join(dir, pair.Recipient+".fasta")
	recipientRegion, err := c.prepare(pair.Recipient, recipientFasta)
	if err != nil {
		return nil, err
	}

	donorFasta := filepath.Join(dir, pair.Donor+".fasta")
	donorRegion, err := c.prepare(pair.Donor, donorFasta)
	if err != nil {
		return nil, err
	}

	hits, err := c.Aligner.Compare(ctx, recipientFasta, donorFasta)
	if err != nil {
		return nil, err
	}

	category, best := c.Matcher.ClassifyHits(hits)
	logger.Debug("Contig comparison",
		zap.String("pair", pair.Key()),
		zap.Int("hits", len(hits)),
		zap.String("category", category.String()),
	)

	return &ContigResult{
		Pair:      pair,
		Category:  category,
		BestHit:   best,
		Recipient: recipientRegion,
		Donor:     donorRegion,
	}, nil
}

// prepare writes the gene's contig to dst and cuts its flanking region.
func (c *ContigComparer) prepare(geneID, dst string) (*model.FlankingRegion, error) {
	focal, neighbours, err := c.Genomes.LocateGene(geneID)
	if err != nil {
		return nil, err
	}

	contigLen, err := c.Genomes.WriteContig(model.GenomeOfGene(geneID), focal.Contig, dst)
	if err != nil {
		return nil, fmt.Errorf("gene %s: %w", geneID, err)
	}

	return model.Flank(focal, contigLen, neighbours, c.Flank)
}
