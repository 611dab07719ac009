package model

import (
	"fmt"
	"io"
	"sort"
)

// DefaultMinimumSamples is the observation count below which a group pair is
// flagged as under-sampled. Under-sampled pairs still get a cutoff.
const DefaultMinimumSamples = 10

// GroupPair is an ordered pair of group ids.
type GroupPair struct {
	A string
	B string
}

// NewGroupPair returns the pair sorted alphabetically.
func NewGroupPair(a, b string) GroupPair {
	if b < a {
		a, b = b, a
	}
	return GroupPair{A: a, B: b}
}

func (p GroupPair) Swapped() GroupPair {
	return GroupPair{A: p.B, B: p.A}
}

func (p GroupPair) IsSelf() bool {
	return p.A == p.B
}

func (p GroupPair) String() string {
	return p.A + "_" + p.B
}

// MissingThresholdError means classification asked for a group pair the
// estimator never observed, i.e. the two stages ran over different hit sets.
type MissingThresholdError struct {
	RecipientGroup string
	DonorGroup     string
}

func (e *MissingThresholdError) Error() string {
	return fmt.Sprintf("no identity cutoff for group pair %s_%s", e.RecipientGroup, e.DonorGroup)
}

// PairThreshold summarises one unordered group pair.
type PairThreshold struct {
	Pair       GroupPair `json:"pair"`
	Cutoff     float64   `json:"cutoff"`
	Samples    int       `json:"samples"`
	Sufficient bool      `json:"sufficient"`
}

// ThresholdTable holds per group-pair identity cutoffs. Every cutoff is
// stored under both orderings so lookups never normalize.
type ThresholdTable struct {
	Percentile float64
	cutoffs    map[GroupPair]float64
	pairs      []PairThreshold
}

// ThresholdEstimator computes the percentile cutoff table.
type ThresholdEstimator struct {
	Genomes        *Grouping
	Percentile     float64
	MinimumSamples int
}

// Estimate aggregates identities of filtered hits by sorted group pair.
func (e *ThresholdEstimator) Estimate(hits []*AlignmentHit) (*ThresholdTable, error) {
	identities := make(map[GroupPair][]float64)

	for _, h := range hits {
		qg, ok := e.Genomes.GroupOfGene(h.QueryID)
		if !ok {
			return nil, fmt.Errorf("query %s: genome not in grouping", h.QueryID)
		}
		sg, ok := e.Genomes.GroupOfGene(h.SubjectID)
		if !ok {
			return nil, fmt.Errorf("subject %s: genome not in grouping", h.SubjectID)
		}
		key := NewGroupPair(qg, sg)
		identities[key] = append(identities[key], h.Identity)
	}

	return NewThresholdTable(identities, e.Percentile, e.minimumSamples()), nil
}

func (e *ThresholdEstimator) minimumSamples() int {
	if e.MinimumSamples <= 0 {
		return DefaultMinimumSamples
	}
	return e.MinimumSamples
}

// NewThresholdTable builds the table from identities keyed by sorted pair.
func NewThresholdTable(identities map[GroupPair][]float64, percentile float64, minimumSamples int) *ThresholdTable {
	t := &ThresholdTable{
		Percentile: percentile,
		cutoffs:    make(map[GroupPair]float64, 2*len(identities)),
	}

	for key, values := range identities {
		key = NewGroupPair(key.A, key.B)
		cutoff := Round2(Percentile(values, percentile))
		t.cutoffs[key] = cutoff
		t.cutoffs[key.Swapped()] = cutoff
		t.pairs = append(t.pairs, PairThreshold{
			Pair:       key,
			Cutoff:     cutoff,
			Samples:    len(values),
			Sufficient: len(values) >= minimumSamples,
		})
	}

	sort.Slice(t.pairs, func(i, j int) bool {
		return t.pairs[i].Pair.String() < t.pairs[j].Pair.String()
	})
	return t
}

// Cutoff looks up the cutoff for (recipient group, donor group).
func (t *ThresholdTable) Cutoff(recipientGroup, donorGroup string) (float64, error) {
	cutoff, ok := t.cutoffs[GroupPair{A: recipientGroup, B: donorGroup}]
	if !ok {
		return 0, &MissingThresholdError{RecipientGroup: recipientGroup, DonorGroup: donorGroup}
	}
	return cutoff, nil
}

// Pairs lists every observed unordered pair, self-pairs included, sorted by label.
func (t *ThresholdTable) Pairs() []PairThreshold {
	return t.pairs
}

// Insufficient lists the pairs with fewer observations than the minimum.
func (t *ThresholdTable) Insufficient() []PairThreshold {
	var out []PairThreshold
	for _, p := range t.pairs {
		if !p.Sufficient {
			out = append(out, p)
		}
	}
	return out
}

// WriteReport writes "A_B\tcutoff" for every non-self pair.
func (t *ThresholdTable) WriteReport(w io.Writer) error {
	for _, p := range t.pairs {
		if p.Pair.IsSelf() {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", p.Pair, FormatIdentity(p.Cutoff)); err != nil {
			return err
		}
	}
	return nil
}

// WriteInsufficient writes the under-sampled pairs with their hit counts.
func (t *ThresholdTable) WriteInsufficient(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Group\tHits_number"); err != nil {
		return err
	}
	for _, p := range t.Insufficient() {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", p.Pair, p.Samples); err != nil {
			return err
		}
	}
	return nil
}
