package model

import (
	"fmt"
	"strings"
)

// DedupPolicy picks which direction of a reciprocal pair survives.
type DedupPolicy string

const (
	// DedupScan keeps the direction scanned last and appends reciprocal
	// pairs after all one-directional ones. Output matches the classic
	// HGT_candidates table byte for byte.
	DedupScan DedupPolicy = "scan"
	// DedupLexical keeps the same rows but orients each reciprocal pair so
	// the lexicographically smaller gene is the recipient.
	DedupLexical DedupPolicy = "lexical"
)

func ParseDedupPolicy(s string) (DedupPolicy, error) {
	switch DedupPolicy(strings.ToLower(s)) {
	case DedupScan, "":
		return DedupScan, nil
	case DedupLexical:
		return DedupLexical, nil
	default:
		return "", fmt.Errorf("unknown dedup policy %q (want scan or lexical)", s)
	}
}

// CandidateSet is an ordered list of candidate pairs.
type CandidateSet struct {
	pairs []*CandidatePair
	byKey map[string]*CandidatePair
}

func NewCandidateSet() *CandidateSet {
	return &CandidateSet{byKey: make(map[string]*CandidatePair)}
}

// Add appends a pair. A pair already present in the same direction is ignored.
func (s *CandidateSet) Add(p *CandidatePair) {
	if _, dup := s.byKey[p.Key()]; dup {
		return
	}
	s.byKey[p.Key()] = p
	s.pairs = append(s.pairs, p)
}

func (s *CandidateSet) Pairs() []*CandidatePair {
	return s.pairs
}

func (s *CandidateSet) Len() int {
	return len(s.pairs)
}

// Get finds a pair by its "recipient___donor" key.
func (s *CandidateSet) Get(key string) (*CandidatePair, bool) {
	p, ok := s.byKey[key]
	return p, ok
}

// Deduplicate collapses (A,B)/(B,A) into one pair. Pairs are dropped, never
// modified; under DedupLexical the surviving reciprocal pair is whichever of
// the two original records has the smaller recipient id.
func (s *CandidateSet) Deduplicate(policy DedupPolicy) *CandidateSet {
	scanned := make(map[string]struct{}, len(s.pairs))
	overlap := make(map[string]struct{})
	var overlapOrder []*CandidatePair

	for _, p := range s.pairs {
		scanned[p.Key()] = struct{}{}
		if _, ok := scanned[p.reverseKey()]; ok {
			overlap[p.Key()] = struct{}{}
			overlapOrder = append(overlapOrder, p)
		}
	}

	out := NewCandidateSet()
	for _, p := range s.pairs {
		_, fwd := overlap[p.Key()]
		_, rev := overlap[p.reverseKey()]
		if !fwd && !rev {
			out.Add(p)
		}
	}

	for _, p := range overlapOrder {
		if policy == DedupLexical && p.Donor < p.Recipient {
			if reverse, ok := s.byKey[p.reverseKey()]; ok {
				out.Add(reverse)
				continue
			}
		}
		out.Add(p)
	}

	return out
}
