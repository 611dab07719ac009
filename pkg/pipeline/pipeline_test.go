package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/hgtmatch/pkg/config"
	"github.com/yumyai/hgtmatch/pkg/db"
	"github.com/yumyai/hgtmatch/pkg/jobs"
	"github.com/yumyai/hgtmatch/pkg/model"
)

type fakeAligner struct {
	mu    sync.Mutex
	calls []string
	hits  []*model.AlignmentHit
	err   error
}

func (f *fakeAligner) Compare(ctx context.Context, queryFasta, subjectFasta string) ([]*model.AlignmentHit, error) {
	for _, p := range []string{queryFasta, subjectFasta} {
		if _, err := os.Stat(p); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(queryFasta)+" "+filepath.Base(subjectFasta))
	f.mu.Unlock()
	return f.hits, f.err
}

const allVsAll = "# all vs all\n" +
	"g1_1\tg2_1\t80\t300\t0\t0\t1\t300\t1\t300\t1e-50\t500\t300\t300\n" +
	"g1_1\tg3_1\t99\t300\t0\t0\t1\t300\t1\t300\t1e-50\t500\t300\t300\n" +
	"g3_1\tg4_1\t70\t300\t0\t0\t1\t300\t1\t300\t1e-50\t500\t300\t300\n" +
	"g3_1\tg1_1\t99\t300\t0\t0\t1\t300\t1\t300\t1e-50\t500\t300\t300\n" +
	"g3_1\tg4_1\t99\t250\t0\t0\t1\t250\t1\t250\t1e-50\t400\t500\t500\n" +
	"g9_1\tg4_1\t99\t300\t0\t0\t1\t300\t1\t300\t1e-50\t500\t300\t300\n"

func writeTestInputs(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	contig := strings.Repeat("ACGT", 150)
	for _, genome := range []string{"g1", "g3"} {
		write(filepath.Join("genomes", genome+".gff"),
			"##gff-version 3\n"+
				"c1\tProdigal\tCDS\t101\t400\t.\t+\t0\tID="+genome+"_1;locus_tag="+genome+"_1\n"+
				"c1\tProdigal\tCDS\t451\t590\t.\t-\t0\tID="+genome+"_2;locus_tag="+genome+"_2\n")
		write(filepath.Join("genomes", genome+".fna"), ">c1\n"+contig+"\n")
	}

	return &config.Config{
		Input: config.InputConfig{
			Prefix:   filepath.Join(dir, "demo"),
			Grouping: write("grouping.txt", "A,g1\nA,g2\nB,g3\nB,g4\n"),
			Blast:    write("all_vs_all.tab", allVsAll),
			Genomes:  filepath.Join(dir, "genomes"),
			Genes:    write("combined.ffn", ">g1_1 gene one\nATGGCCTAA\n>g2_1\nATGTAA\n>g3_1 gene three\nATGAAATAA\n"),
		},
		Filter:    config.FilterConfig{Coverage: 70, AlignLength: 200},
		Threshold: config.ThresholdConfig{Percentile: 90, MinimumSamples: 10},
		Contig: config.ContigConfig{
			FlankingKbp:      10,
			EndMatchIdentity: 95,
			EndMatchDistance: 20,
			Threads:          2,
		},
		Dedup: "scan",
	}
}

func TestPipelineRun(t *testing.T) {
	cfg := writeTestInputs(t)
	aligner := &fakeAligner{hits: []*model.AlignmentHit{{
		QueryID: "c1", SubjectID: "c1", Identity: 99, AlignLen: 590,
		QueryStart: 1, QueryEnd: 590, SubjectStart: 1, SubjectEnd: 590,
		BitScore: 1000, QueryLen: 600, SubjectLen: 600,
	}}}

	p := New(cfg)
	p.Aligner = aligner
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, res.HitsTotal)
	assert.Equal(t, 4, res.HitsKept)
	assert.Equal(t, 2, res.Sequences)
	assert.Equal(t, cfg.OutputDir(2), res.OutputDir)
	assert.Equal(t, []string{"g3_1.fasta g1_1.fasta"}, aligner.calls)
	assert.Equal(t, map[jobs.Status]int{jobs.Completed: 1}, p.Jobs.Counts())

	read := func(name string) string {
		b, err := os.ReadFile(filepath.Join(res.OutputDir, name))
		require.NoError(t, err)
		return string(b)
	}

	assert.Equal(t, "A_1,g1\nA_2,g2\nB_1,g3\nB_2,g4\n", read(groupingWithIDFile))
	assert.Equal(t, "A_B\t99.0\n", read(identityCutoffFile))
	assert.Equal(t, "Group\tHits_number\nA_A\t1\nA_B\t2\nB_B\t1\n", read(insufficientPairsFile))
	assert.Equal(t,
		"Gene_1\tGene_2\tGene_1_group\tGene_2_group\tIdentity\tend_match\tfull_length_match\n"+
			"g3_1\tg1_1\tB\tA\t99.0\tno\tyes\n",
		read(candidateTableFile))
	assert.Equal(t, ">g1_1 gene one\nATGGCCTAA\n>g3_1 gene three\nATGAAATAA\n", read(candidateNucleotideFas))
	assert.Contains(t, read(candidateProteinFas), ">g3_1 gene three\n")

	var flank ContigResult
	require.NoError(t, json.Unmarshal([]byte(read(filepath.Join(flankingFolder, "g3_1___g1_1.json"))), &flank))
	assert.Equal(t, model.MatchFullLength, flank.Category)
	assert.Equal(t, 0, flank.Recipient.Start)
	assert.Equal(t, 600, flank.Recipient.End)
	assert.Len(t, flank.Donor.Features, 2)

	_, err = os.Stat(filepath.Join(res.OutputDir, tempFolder))
	assert.True(t, os.IsNotExist(err), "temporary folder should be removed")

	rdb, err := db.OpenResultDB(cfg.ResultDB(res.OutputDir))
	require.NoError(t, err)
	defer rdb.Close()
	stored, err := rdb.Candidates(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Candidates[0], stored[0])
}

func TestPipelineLexicalDedup(t *testing.T) {
	cfg := writeTestInputs(t)
	cfg.Dedup = "lexical"
	cfg.KeepTemp = true

	p := New(cfg)
	p.Aligner = &fakeAligner{}
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "g1_1___g3_1", res.Candidates[0].Key())
	assert.Equal(t, model.MatchNormal, res.Candidates[0].Category)

	_, err = os.Stat(filepath.Join(res.OutputDir, tempFolder, "g1_1___g3_1", "g1_1.fasta"))
	assert.NoError(t, err, "temporary files are kept")
}

func TestPipelineContigFailure(t *testing.T) {
	cfg := writeTestInputs(t)

	p := New(cfg)
	p.Aligner = &fakeAligner{err: errors.New("blastn exited with status 2")}
	_, err := p.Run(context.Background())
	require.Error(t, err)

	var taskErr *jobs.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, "g3_1___g1_1", taskErr.Key)
	assert.Equal(t, []string{"g3_1___g1_1"}, p.Jobs.Unfinished())
}

func TestPipelineMissingGene(t *testing.T) {
	cfg := writeTestInputs(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Input.Genomes, "g3.gff"), []byte("##gff-version 3\n"), 0o644))

	p := New(cfg)
	p.Aligner = &fakeAligner{}
	_, err := p.Run(context.Background())
	assert.True(t, errors.Is(err, db.ErrGeneNotFound))
}

func TestPipelineInvalidConfig(t *testing.T) {
	_, err := New(&config.Config{}).Run(context.Background())
	assert.Error(t, err)
}

func TestPipelineMissingContigFile(t *testing.T) {
	cfg := writeTestInputs(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Input.Genomes, "g1.fna")))

	p := New(cfg)
	p.Aligner = &fakeAligner{}
	_, err := p.Run(context.Background())

	var seqErr *db.NoSequenceError
	require.True(t, errors.As(err, &seqErr))
	assert.Equal(t, "g1", seqErr.Genome)
	assert.Empty(t, p.Aligner.(*fakeAligner).calls)
}
