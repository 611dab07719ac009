package model

import (
	"testing"
)

func testGrouping(t *testing.T) *Grouping {
	t.Helper()
	g, err := NewGrouping([][2]string{
		{"A", "g1"},
		{"A", "g2"},
		{"B", "g3"},
		{"C", "g4"},
	})
	if err != nil {
		t.Fatalf("NewGrouping: %v", err)
	}
	return g
}

func hit(query, subject string, identity float64, alignLen, qlen, slen int) *AlignmentHit {
	return &AlignmentHit{
		QueryID:      query,
		SubjectID:    subject,
		Identity:     identity,
		AlignLen:     alignLen,
		QueryStart:   1,
		QueryEnd:     alignLen,
		SubjectStart: 1,
		SubjectEnd:   alignLen,
		BitScore:     float64(alignLen),
		QueryLen:     qlen,
		SubjectLen:   slen,
	}
}

func TestHitFilterCheck(t *testing.T) {
	f := &HitFilter{Genomes: testGrouping(t), CoverageCutoff: 70, AlignLenCutoff: 200}

	tests := []struct {
		name string
		hit  *AlignmentHit
		want FilterReason
	}{
		{"FullCoverage", hit("g1_1", "g3_1", 99, 300, 300, 300), Kept},
		{"ExactCutoffs", hit("g1_1", "g3_1", 99, 200, 200, 200), Kept},
		{"SameGroupDifferentGenome", hit("g1_1", "g2_7", 80, 300, 300, 300), Kept},
		{"SelfGenome", hit("g1_1", "g1_2", 99, 300, 300, 300), SelfGenome},
		{"UnknownQueryGenome", hit("gX_1", "g3_1", 99, 300, 300, 300), FilteredOut},
		{"UnknownSubjectGenome", hit("g1_1", "gX_1", 99, 300, 300, 300), FilteredOut},
		{"NoUnderscore", hit("g1", "g3_1", 99, 300, 300, 300), FilteredOut},
		{"ShortAlignment", hit("g1_1", "g3_1", 99, 199, 199, 199), ShortAlignment},
		{"LowQueryCoverage", hit("g1_1", "g3_1", 99, 250, 500, 250), LowCoverage},
		{"LowSubjectCoverage", hit("g1_1", "g3_1", 99, 250, 250, 500), LowCoverage},
		// 699/1000 = 69.9%
		{"JustBelowCoverage", hit("g1_1", "g3_1", 99, 699, 1000, 1000), LowCoverage},
		// 2099/3000 = 69.9667% rounds to 69.97
		{"RoundedBelowCoverage", hit("g1_1", "g3_1", 99, 2099, 3000, 2099), LowCoverage},
		// 2333/3333 = 69.9970% rounds to 70.00
		{"RoundedUpToCoverage", hit("g1_1", "g3_1", 99, 2333, 3333, 2333), Kept},
		// 13999*100/20000 rounds to 70.00
		{"MultiplyBeforeDivide", hit("g1_1", "g3_1", 99, 13999, 20000, 13999), Kept},
		{"ZeroLength", hit("g1_1", "g3_1", 99, 300, 0, 300), LowCoverage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Check(tt.hit); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHitFilterIdempotent(t *testing.T) {
	f := &HitFilter{Genomes: testGrouping(t), CoverageCutoff: 70, AlignLenCutoff: 200}
	hits := []*AlignmentHit{
		hit("g1_1", "g3_1", 99, 300, 300, 300),
		hit("g1_1", "g1_2", 99, 300, 300, 300),
		hit("g3_1", "g4_1", 90, 500, 600, 650),
		hit("g3_1", "g4_2", 90, 100, 600, 650),
		hit("gX_1", "g4_2", 90, 500, 500, 500),
	}

	once, stats := f.Filter(hits)
	if len(once) != 2 {
		t.Fatalf("expected 2 kept hits, got %d", len(once))
	}
	if once[0] != hits[0] || once[1] != hits[2] {
		t.Errorf("kept hits are not the originals in input order")
	}
	if stats[Kept] != 2 || stats[SelfGenome] != 1 || stats[ShortAlignment] != 1 || stats[FilteredOut] != 1 {
		t.Errorf("unexpected stats %v", stats)
	}

	twice, _ := f.Filter(once)
	if len(twice) != len(once) {
		t.Fatalf("second pass kept %d, first pass %d", len(twice), len(once))
	}
	for i := range once {
		if twice[i] != once[i] {
			t.Errorf("hit %d changed on second pass", i)
		}
	}
}
