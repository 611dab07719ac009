// Package pipeline runs best-match HGT detection end to end: filter the
// all-vs-all hits, estimate group pair cutoffs, classify and deduplicate
// candidates, then check each pair's contig context with blastn.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yumyai/hgtmatch/internal/util"
	"github.com/yumyai/hgtmatch/logger"
	"github.com/yumyai/hgtmatch/pkg/config"
	"github.com/yumyai/hgtmatch/pkg/db"
	"github.com/yumyai/hgtmatch/pkg/jobs"
	"github.com/yumyai/hgtmatch/pkg/model"
)

// Pipeline holds one configured run.
type Pipeline struct {
	Config *config.Config
	// Aligner defaults to blastn from the config.
	Aligner ContigAligner
	// Progress receives the contig pass progress bar, nil hides it.
	Progress io.Writer
	// Jobs tracks contig comparisons, created on Run when nil.
	Jobs *jobs.Manager
}

// Result sums up a finished run.
type Result struct {
	RunID      string
	OutputDir  string
	HitsTotal  int
	HitsKept   int
	Thresholds *model.ThresholdTable
	Candidates []*model.AnnotatedCandidate
	Sequences  int
}

func New(cfg *config.Config) *Pipeline {
	return &Pipeline{Config: cfg}
}

// Run executes every stage and writes all outputs into the run folder.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := model.ParseDedupPolicy(cfg.Dedup)
	if err != nil {
		return nil, err
	}

	grouping, err := readGrouping(cfg.Input.Grouping)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     uuid.NewString(),
		OutputDir: cfg.OutputDir(len(grouping.Groups())),
	}
	if err := util.ForceCreateDir(res.OutputDir); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}
	logger.Info("Start run",
		zap.String("run_id", res.RunID),
		zap.String("output", res.OutputDir),
		zap.Int("groups", len(grouping.Groups())),
		zap.Int("genomes", len(grouping.Genomes())),
	)

	if err := writeFile(filepath.Join(res.OutputDir, groupingWithIDFile), grouping.WriteIndexed); err != nil {
		return nil, err
	}

	filter := &model.HitFilter{
		Genomes:        grouping,
		CoverageCutoff: cfg.Filter.Coverage,
		AlignLenCutoff: cfg.Filter.AlignLength,
	}
	hits, stats, err := readFilteredHits(cfg.BlastResults(), filter)
	if err != nil {
		return nil, err
	}
	for reason, n := range stats {
		res.HitsTotal += n
		if reason != model.Kept {
			logger.Debug("Hits dropped", zap.String("reason", reason.String()), zap.String("count", humanize.Comma(int64(n))))
		}
	}
	res.HitsKept = len(hits)
	logger.Info("Filtered hits",
		zap.String("total", humanize.Comma(int64(res.HitsTotal))),
		zap.String("kept", humanize.Comma(int64(res.HitsKept))),
	)

	estimator := &model.ThresholdEstimator{
		Genomes:        grouping,
		Percentile:     cfg.Threshold.Percentile,
		MinimumSamples: cfg.Threshold.MinimumSamples,
	}
	table, err := estimator.Estimate(hits)
	if err != nil {
		return nil, err
	}
	res.Thresholds = table
	if err := writeFile(filepath.Join(res.OutputDir, identityCutoffFile), table.WriteReport); err != nil {
		return nil, err
	}
	if insufficient := table.Insufficient(); len(insufficient) > 0 {
		logger.Warn("Group pairs with few hits, cutoffs may be unreliable", zap.Int("pairs", len(insufficient)))
	}
	if err := writeFile(filepath.Join(res.OutputDir, insufficientPairsFile), table.WriteInsufficient); err != nil {
		return nil, err
	}

	evidence, err := model.CollectEvidence(hits, grouping)
	if err != nil {
		return nil, err
	}
	classifier := &model.Classifier{Thresholds: table}
	candidates, err := classifier.ClassifyAll(evidence)
	if err != nil {
		return nil, err
	}
	final := candidates.Deduplicate(policy)
	logger.Info("Candidates",
		zap.Int("queries", len(evidence)),
		zap.Int("classified", candidates.Len()),
		zap.Int("deduplicated", final.Len()),
	)

	annotated, err := p.matchContigs(ctx, final.Pairs(), res.OutputDir)
	if err != nil {
		return nil, err
	}
	res.Candidates = annotated

	if err := writeFile(filepath.Join(res.OutputDir, candidateTableFile), func(w io.Writer) error {
		return WriteCandidateTable(w, annotated)
	}); err != nil {
		return nil, err
	}

	res.Sequences, err = exportSequences(cfg.CombinedGenes(), res.OutputDir, model.QualifiedGenes(annotated))
	if err != nil {
		return nil, err
	}

	if err := saveRun(ctx, cfg, res); err != nil {
		return nil, err
	}

	logger.Info("Done",
		zap.String("run_id", res.RunID),
		zap.Int("candidates", len(res.Candidates)),
		zap.Int("sequences", res.Sequences),
	)
	return res, nil
}

// matchContigs runs the contig pass over the deduplicated pairs and returns
// them annotated, in input order.
func (p *Pipeline) matchContigs(ctx context.Context, pairs []*model.CandidatePair, outputDir string) ([]*model.AnnotatedCandidate, error) {
	cfg := p.Config
	if len(pairs) == 0 {
		return nil, nil
	}

	store, err := db.NewGenomeStore(cfg.GenomeDir())
	if err != nil {
		return nil, err
	}
	if err := store.Check(pairGenomes(pairs)); err != nil {
		return nil, err
	}

	aligner := p.Aligner
	if aligner == nil {
		aligner = model.NewBlastn(cfg.Contig.Blastn)
	}

	tmp := filepath.Join(outputDir, tempFolder)
	comparer := &ContigComparer{
		Genomes:  store,
		Aligner:  aligner,
		Matcher:  model.NewContigMatcher(cfg.Filter.AlignLength, cfg.Contig.EndMatchIdentity, cfg.Contig.EndMatchDistance),
		Flank:    cfg.Contig.FlankingKbp * 1000,
		TempDir:  tmp,
		KeepTemp: cfg.KeepTemp,
	}

	if p.Jobs == nil {
		p.Jobs = jobs.NewManager()
	}
	pool := &jobs.Pool{
		Workers:  cfg.Contig.Threads,
		Manager:  p.Jobs,
		Progress: p.Progress,
		Label:    "contig match: ",
	}

	tasks := make([]jobs.Task[*model.CandidatePair], 0, len(pairs))
	for _, pair := range pairs {
		tasks = append(tasks, jobs.Task[*model.CandidatePair]{Key: pair.Key(), Input: pair})
	}

	logger.Info("Contig pass", zap.Int("pairs", len(tasks)), zap.Int("threads", pool.Workers))
	results, runErr := jobs.Run(ctx, pool, tasks, comparer.Compare)
	if !cfg.KeepTemp {
		os.RemoveAll(tmp)
	}
	if runErr != nil {
		for _, key := range p.Jobs.Unfinished() {
			job, _ := p.Jobs.Get(key)
			logger.Error("Contig comparison failed", zap.String("pair", key), zap.String("error", job.Error))
		}
		return nil, fmt.Errorf("contig pass: %w", runErr)
	}

	flankDir := filepath.Join(outputDir, flankingFolder)
	if err := os.MkdirAll(flankDir, 0o755); err != nil {
		return nil, err
	}

	annotated := make([]*model.AnnotatedCandidate, 0, len(pairs))
	for _, pair := range pairs {
		r := results[pair.Key()]
		if err := writeFlankingJSON(flankDir, r); err != nil {
			return nil, err
		}
		annotated = append(annotated, &model.AnnotatedCandidate{CandidatePair: *pair, Category: r.Category})
	}
	return annotated, nil
}

// pairGenomes lists the genomes of both genes of every pair, first seen first.
func pairGenomes(pairs []*model.CandidatePair) []string {
	seen := make(map[string]bool)
	var genomes []string
	for _, pair := range pairs {
		for _, gene := range []string{pair.Recipient, pair.Donor} {
			g := model.GenomeOfGene(gene)
			if !seen[g] {
				seen[g] = true
				genomes = append(genomes, g)
			}
		}
	}
	return genomes
}

func readGrouping(file string) (*model.Grouping, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("grouping file: %w", err)
	}
	defer f.Close()
	g, err := model.ReadGrouping(f)
	if err != nil {
		return nil, fmt.Errorf("grouping file %s: %w", file, err)
	}
	return g, nil
}

// readFilteredHits streams the all-vs-all file, holding only kept hits.
func readFilteredHits(file string, filter *model.HitFilter) ([]*model.AlignmentHit, model.FilterStats, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("blast results: %w", err)
	}
	defer f.Close()

	stats := make(model.FilterStats)
	var kept []*model.AlignmentHit
	reader := model.NewHitReader(f)
	for {
		h, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", file, err)
		}
		reason := filter.Check(h)
		stats[reason]++
		if reason == model.Kept {
			kept = append(kept, h)
		}
	}
	return kept, stats, nil
}

func exportSequences(ffn, outputDir string, genes []string) (int, error) {
	if len(genes) == 0 {
		return 0, nil
	}
	if !util.FileExists(ffn) {
		return 0, fmt.Errorf("combined gene fasta %s not found", ffn)
	}

	var n int
	err := writeFile(filepath.Join(outputDir, candidateNucleotideFas), func(nc io.Writer) error {
		return writeFile(filepath.Join(outputDir, candidateProteinFas), func(aa io.Writer) error {
			var err error
			n, err = model.ExportSequences(ffn, genes, nc, aa)
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	if n < len(genes) {
		logger.Warn("Some candidate genes are missing from the combined fasta",
			zap.Int("wanted", len(genes)), zap.Int("found", n))
	}
	return n, nil
}

func saveRun(ctx context.Context, cfg *config.Config, res *Result) error {
	rdb, err := db.OpenResultDB(cfg.ResultDB(res.OutputDir))
	if err != nil {
		return err
	}
	defer rdb.Close()

	if err := rdb.Init(ctx); err != nil {
		return err
	}
	run := db.Run{
		RunID:      res.RunID,
		CreatedAt:  time.Now(),
		OutputDir:  res.OutputDir,
		Params:     cfg.Params(),
		HitsTotal:  res.HitsTotal,
		HitsKept:   res.HitsKept,
		Candidates: len(res.Candidates),
	}
	return rdb.SaveRun(ctx, run, res.Thresholds.Pairs(), res.Candidates)
}
