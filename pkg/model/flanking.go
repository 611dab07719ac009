package model

import "fmt"

// GeneFeature is an annotated gene on a contig, 0-based half-open.
type GeneFeature struct {
	GeneID string `json:"gene_id"`
	Contig string `json:"contig"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Strand int    `json:"strand"` // 1, -1, or 0 when unknown
}

// FlankingRegion is the window around a focal gene, with features re-based to
// the window start.
type FlankingRegion struct {
	FocalGene     string        `json:"focal_gene"`
	Contig        string        `json:"contig"`
	ContigLen     int           `json:"contig_len"`
	Start         int           `json:"start"`
	End           int           `json:"end"`
	LeftDistance  int           `json:"left_distance"`  // focal gene start to contig start
	RightDistance int           `json:"right_distance"` // focal gene end to contig end
	Features      []GeneFeature `json:"features"`
}

// Flank cuts a window of flank bp on each side of the focal gene. Genes that
// straddle a window boundary are kept whole by widening the window to them.
// features must all lie on the focal gene's contig.
func Flank(focal GeneFeature, contigLen int, features []GeneFeature, flank int) (*FlankingRegion, error) {
	if focal.End > contigLen || focal.Start < 0 || focal.Start >= focal.End {
		return nil, fmt.Errorf("gene %s [%d,%d) outside contig %s of length %d",
			focal.GeneID, focal.Start, focal.End, focal.Contig, contigLen)
	}

	start := focal.Start - flank
	if start < 0 {
		start = 0
	}
	end := focal.End + flank
	if end > contigLen {
		end = contigLen
	}

	var kept []GeneFeature
	for _, f := range features {
		if f.Contig != focal.Contig {
			continue
		}
		switch {
		case f.Start < start && f.End >= start:
			kept = append(kept, f)
			start = f.Start
		case f.Start >= start && f.End <= end:
			kept = append(kept, f)
		case f.Start <= end && f.End > end:
			kept = append(kept, f)
			end = f.End
		}
	}

	region := &FlankingRegion{
		FocalGene:     focal.GeneID,
		Contig:        focal.Contig,
		ContigLen:     contigLen,
		Start:         start,
		End:           end,
		LeftDistance:  focal.Start,
		RightDistance: contigLen - focal.End,
		Features:      make([]GeneFeature, 0, len(kept)),
	}
	for _, f := range kept {
		rebased := f
		rebased.Start = f.Start - start
		if rebased.Start < 0 {
			rebased.Start = 0
		}
		rebased.End = f.End - start
		region.Features = append(region.Features, rebased)
	}
	return region, nil
}
