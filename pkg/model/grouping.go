package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var ErrEmptyGrouping = errors.New("grouping has no genomes")

// Grouping maps genomes to groups. Genomes keep their input order.
type Grouping struct {
	genomes map[string]*Genome
	order   []*Genome
	groups  []string
}

// ReadGrouping parses "group,genome" rows. Each genome is numbered within its
// group in first-seen order, so A,g1 / B,g2 / A,g3 yields A_1, B_1, A_2.
func ReadGrouping(r io.Reader) (*Grouping, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	g := &Grouping{genomes: make(map[string]*Genome)}
	counters := make(map[string]int)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read grouping: %w", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < 2 {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("grouping line %d: expected group,genome", line)
		}

		group := strings.TrimSpace(rec[0])
		genomeID := strings.TrimSpace(rec[1])
		if group == "" || genomeID == "" {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("grouping line %d: empty group or genome", line)
		}

		if err := g.add(group, genomeID, counters); err != nil {
			return nil, err
		}
	}

	if len(g.order) == 0 {
		return nil, ErrEmptyGrouping
	}
	return g, nil
}

// NewGrouping builds a grouping from (group, genome) pairs, numbering as ReadGrouping does.
func NewGrouping(pairs [][2]string) (*Grouping, error) {
	g := &Grouping{genomes: make(map[string]*Genome)}
	counters := make(map[string]int)
	for _, p := range pairs {
		if err := g.add(p[0], p[1], counters); err != nil {
			return nil, err
		}
	}
	if len(g.order) == 0 {
		return nil, ErrEmptyGrouping
	}
	return g, nil
}

func (g *Grouping) add(group, genomeID string, counters map[string]int) error {
	if strings.Contains(group, "_") {
		return fmt.Errorf("group id %q must not contain '_'", group)
	}
	if _, dup := g.genomes[genomeID]; dup {
		return fmt.Errorf("genome %q listed more than once", genomeID)
	}
	if _, seen := counters[group]; !seen {
		g.groups = append(g.groups, group)
	}
	counters[group]++
	genome := &Genome{ID: genomeID, Group: group, Index: counters[group]}
	g.genomes[genomeID] = genome
	g.order = append(g.order, genome)
	return nil
}

// Contains reports whether the genome is part of the grouping.
func (g *Grouping) Contains(genomeID string) bool {
	_, ok := g.genomes[genomeID]
	return ok
}

// Genome looks up a genome by id.
func (g *Grouping) Genome(genomeID string) (*Genome, bool) {
	genome, ok := g.genomes[genomeID]
	return genome, ok
}

// GroupOfGene resolves the group of the genome a gene belongs to.
func (g *Grouping) GroupOfGene(geneID string) (string, bool) {
	genome, ok := g.genomes[GenomeOfGene(geneID)]
	if !ok {
		return "", false
	}
	return genome.Group, true
}

// Genomes returns genomes in input order.
func (g *Grouping) Genomes() []*Genome {
	return g.order
}

// Groups returns distinct group ids in first-seen order.
func (g *Grouping) Groups() []string {
	return g.groups
}

// Write writes "group,genome" lines, the format ReadGrouping accepts.
func (g *Grouping) Write(w io.Writer) error {
	for _, genome := range g.order {
		if _, err := fmt.Fprintf(w, "%s,%s\n", genome.Group, genome.ID); err != nil {
			return err
		}
	}
	return nil
}

// WriteIndexed writes "A_1,genome" lines.
func (g *Grouping) WriteIndexed(w io.Writer) error {
	for _, genome := range g.order {
		if _, err := fmt.Fprintf(w, "%s,%s\n", genome.Label(), genome.ID); err != nil {
			return err
		}
	}
	return nil
}

// maxGroupLabels is the size of the A..Z, AA..ZZ label space.
const maxGroupLabels = 26 + 26*26

// GroupLabel returns the n-th (0-based) group label: A..Z, then AA..ZZ.
func GroupLabel(n int) (string, error) {
	if n < 0 || n >= maxGroupLabels {
		return "", fmt.Errorf("group index %d outside A..ZZ", n)
	}
	if n < 26 {
		return string(rune('A' + n)), nil
	}
	n -= 26
	return string([]rune{rune('A' + n/26), rune('A' + n%26)}), nil
}

// GroupingFromClusters converts "genome,cluster" rows into a grouping.
// Rows starting with ',' are headers. Rows are ordered by (cluster, genome)
// and clusters are labelled A, B, ... in that order.
func GroupingFromClusters(r io.Reader) (*Grouping, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	type row struct{ cluster, genome string }
	var rows []row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cluster file: %w", err)
		}
		if len(rec) < 2 || rec[0] == "" {
			continue
		}
		rows = append(rows, row{cluster: strings.TrimSpace(rec[1]), genome: strings.TrimSpace(rec[0])})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].cluster != rows[j].cluster {
			return rows[i].cluster < rows[j].cluster
		}
		return rows[i].genome < rows[j].genome
	})

	pairs := make([][2]string, 0, len(rows))
	labels := make(map[string]string)
	for _, rw := range rows {
		label, ok := labels[rw.cluster]
		if !ok {
			var err error
			label, err = GroupLabel(len(labels))
			if err != nil {
				return nil, fmt.Errorf("too many clusters: %w", err)
			}
			labels[rw.cluster] = label
		}
		pairs = append(pairs, [2]string{label, rw.genome})
	}

	return NewGrouping(pairs)
}
