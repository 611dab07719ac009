package db

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/biogo/biogo/io/featio/gff"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/yumyai/hgtmatch/internal/util"
	"github.com/yumyai/hgtmatch/pkg/model"
)

// Defining possible error
var (
	ErrGenomeDirNotExists = errors.New("genome folder does not exists")
	ErrGeneNotFound       = errors.New("gene not found in annotation")
	ErrContigNotFound     = errors.New("contig not found in genome fasta")
)

// fastx readers share package state, so contig pulls from concurrent
// comparisons take turns.
var fastxMu sync.Mutex

type NoSequenceError struct {
	Genome string
	Msg    string // additional context for the error
}

func (e *NoSequenceError) Error() string {
	return fmt.Sprintf("Sequence error (%s): %s", e.Genome, e.Msg)
}

// folder which host [genome].gff and [genome].fna
type GenomeStore struct {
	Dir string
}

func NewGenomeStore(dir string) (*GenomeStore, error) {
	if !util.DirExists(dir) {
		return nil, fmt.Errorf("%w: %s", ErrGenomeDirNotExists, dir)
	}
	return &GenomeStore{Dir: dir}, nil
}

func (gs *GenomeStore) annotationPath(genome string) string {

	return path.Join(gs.Dir, genome+".gff")
}

func (gs *GenomeStore) contigPath(genome string) string {

	return path.Join(gs.Dir, genome+".fna")
}

// Check reports genomes whose annotation or contig file is missing.
func (gs *GenomeStore) Check(genomes []string) error {
	var errs []error
	for _, g := range genomes {
		for _, p := range []string{gs.annotationPath(g), gs.contigPath(g)} {
			if _, err := os.Stat(p); err != nil {
				errs = append(errs, &NoSequenceError{Genome: g, Msg: err.Error()})
			}
		}
	}
	return errors.Join(errs...)
}

// Features reads the CDS features of a genome, sorted by contig then start.
func (gs *GenomeStore) Features(genome string) ([]model.GeneFeature, error) {
	raw, err := os.ReadFile(gs.annotationPath(genome))
	if err != nil {
		return nil, &NoSequenceError{Genome: genome, Msg: err.Error()}
	}

	reader := gff.NewReader(bytes.NewReader(normalizeGFF(raw)))

	var features []model.GeneFeature
	for {
		f, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse %s: %w", gs.annotationPath(genome), err)
		}

		gf, ok := f.(*gff.Feature)
		if !ok || gf.Feature != "CDS" {
			continue
		}

		id := attribute(gf.FeatAttributes, "locus_tag")
		if id == "" {
			id = attribute(gf.FeatAttributes, "ID")
		}
		if id == "" {
			continue
		}

		features = append(features, model.GeneFeature{
			GeneID: id,
			Contig: gf.SeqName,
			Start:  gf.FeatStart,
			End:    gf.FeatEnd,
			Strand: int(gf.FeatStrand),
		})
	}

	sort.SliceStable(features, func(i, j int) bool {
		if features[i].Contig != features[j].Contig {
			return features[i].Contig < features[j].Contig
		}
		return features[i].Start < features[j].Start
	})

	return features, nil
}

// LocateGene finds a gene and every gene sharing its contig.
func (gs *GenomeStore) LocateGene(geneID string) (model.GeneFeature, []model.GeneFeature, error) {
	genome := model.GenomeOfGene(geneID)
	features, err := gs.Features(genome)
	if err != nil {
		return model.GeneFeature{}, nil, err
	}

	var focal *model.GeneFeature
	for i := range features {
		if features[i].GeneID == geneID {
			focal = &features[i]
			break
		}
	}
	if focal == nil {
		return model.GeneFeature{}, nil, fmt.Errorf("%w: %s", ErrGeneNotFound, geneID)
	}

	var sameContig []model.GeneFeature
	for _, f := range features {
		if f.Contig == focal.Contig {
			sameContig = append(sameContig, f)
		}
	}
	return *focal, sameContig, nil
}

// WriteContig copies one contig of a genome into its own FASTA file and
// returns the contig length.
func (gs *GenomeStore) WriteContig(genome, contig, dst string) (int, error) {
	fastxMu.Lock()
	defer fastxMu.Unlock()

	reader, err := fastx.NewReader(seq.DNAredundant, gs.contigPath(genome), "")
	if err != nil {
		return 0, &NoSequenceError{Genome: genome, Msg: err.Error()}
	}
	defer reader.Close()

	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("read %s: %w", gs.contigPath(genome), err)
		}
		if string(record.ID) != contig {
			continue
		}

		out, err := os.Create(dst)
		if err != nil {
			return 0, err
		}
		w := bufio.NewWriter(out)
		fmt.Fprintf(w, ">%s\n", record.ID)
		w.Write(record.Seq.FormatSeq(60))
		w.WriteString("\n")
		if err := w.Flush(); err != nil {
			out.Close()
			return 0, err
		}
		return len(record.Seq.Seq), out.Close()
	}

	return 0, fmt.Errorf("%w: %s in %s", ErrContigNotFound, contig, genome)
}

// normalizeGFF drops directives and comments, stops at an embedded ##FASTA
// section (Prokka) and rewrites GFF3 attributes into the GTF form biogo reads.
func normalizeGFF(raw []byte) []byte {
	var out bytes.Buffer
	for _, line := range bytes.Split(raw, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("##FASTA")) {
			break
		}
		line = bytes.TrimRight(line, "\r")
		if bytes.HasPrefix(line, []byte("#")) || len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		fields := bytes.Split(line, []byte("\t"))
		if len(fields) > 8 && isGFF3Attributes(fields[8]) {
			fields[8] = gff3ToGTF(fields[8])
			fields = fields[:9]
		}
		out.Write(bytes.Join(fields, []byte("\t")))
		out.WriteByte('\n')
	}
	return out.Bytes()
}

// gff3ToGTF turns "ID=x;locus_tag=y" into `ID "x"; locus_tag "y"`, dropping
// tags biogo cannot hold.
func gff3ToGTF(attrs []byte) []byte {
	var parts []string
	for _, kv := range strings.Split(string(attrs), ";") {
		tag, value, ok := strings.Cut(strings.TrimSpace(kv), "=")
		if !ok || !validTag(tag) {
			continue
		}
		if v, err := url.PathUnescape(value); err == nil {
			value = v
		}
		value = strings.NewReplacer(`"`, `'`, ";", ",").Replace(value)
		parts = append(parts, tag+` "`+value+`"`)
	}
	return []byte(strings.Join(parts, "; "))
}

func isGFF3Attributes(attrs []byte) bool {
	first, _, _ := bytes.Cut(attrs, []byte(";"))
	tag, _, ok := bytes.Cut(first, []byte("="))
	return ok && !bytes.ContainsAny(tag, " \t\"")
}

func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func attribute(attrs gff.Attributes, tag string) string {
	return strings.Trim(attrs.Get(tag), `"`)
}
