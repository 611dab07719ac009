package model

// DonorChoice is the outcome of comparing self-group against non-self-group evidence.
type DonorChoice struct {
	DonorGene    string
	DonorGroup   string
	Identity     float64
	SelfAverage  float64
	DonorAverage float64
}

type groupStats struct {
	group   string
	sum     float64
	count   int
	best    Subject
	hasBest bool
}

func (s *groupStats) add(sub Subject) {
	s.sum += sub.Identity
	s.count++
	if !s.hasBest || sub.Identity > s.best.Identity {
		s.best = sub
		s.hasBest = true
	}
}

func (s *groupStats) average() float64 {
	return s.sum / float64(s.count)
}

// ChooseDonor decides whether a query gene has a donor candidate.
//
// A decision needs at least two subjects with at least one in the query's
// own group and one outside it. The non-self group whose mean identity is
// strictly above the self-group mean (and above every earlier non-self group)
// becomes the donor group; its best-identity subject is the donor gene.
// Groups and subjects are scanned in the given order, so earlier entries win ties.
func ChooseDonor(queryGroup string, subjects []Subject) (DonorChoice, bool) {
	if len(subjects) <= 1 {
		return DonorChoice{}, false
	}

	self := &groupStats{group: queryGroup}
	others := make(map[string]*groupStats)
	var otherOrder []*groupStats

	for _, sub := range subjects {
		if sub.Group == queryGroup {
			self.add(sub)
			continue
		}
		st, ok := others[sub.Group]
		if !ok {
			st = &groupStats{group: sub.Group}
			others[sub.Group] = st
			otherOrder = append(otherOrder, st)
		}
		st.add(sub)
	}

	if self.count == 0 || len(otherOrder) == 0 {
		return DonorChoice{}, false
	}

	selfAverage := self.average()
	bestAverage := selfAverage
	var winner *groupStats
	for _, st := range otherOrder {
		if avg := st.average(); avg > bestAverage {
			bestAverage = avg
			winner = st
		}
	}

	if winner == nil {
		return DonorChoice{}, false
	}

	return DonorChoice{
		DonorGene:    winner.best.GeneID,
		DonorGroup:   winner.group,
		Identity:     winner.best.Identity,
		SelfAverage:  selfAverage,
		DonorAverage: bestAverage,
	}, true
}

// Classifier turns query evidence into candidate pairs gated by group-pair cutoffs.
type Classifier struct {
	Thresholds *ThresholdTable
}

// Classify returns the candidate for one query, or nil when there is none.
// A missing group-pair cutoff is returned as *MissingThresholdError.
func (c *Classifier) Classify(ev *QueryEvidence) (*CandidatePair, error) {
	choice, ok := ChooseDonor(ev.QueryGroup, ev.Subjects)
	if !ok {
		return nil, nil
	}

	cutoff, err := c.Thresholds.Cutoff(ev.QueryGroup, choice.DonorGroup)
	if err != nil {
		return nil, err
	}
	if choice.Identity < cutoff {
		return nil, nil
	}

	return &CandidatePair{
		Recipient:      ev.QueryID,
		Donor:          choice.DonorGene,
		Identity:       choice.Identity,
		RecipientGroup: ev.QueryGroup,
		DonorGroup:     choice.DonorGroup,
	}, nil
}

// ClassifyAll runs Classify over every query and collects the candidates in order.
func (c *Classifier) ClassifyAll(evidence []*QueryEvidence) (*CandidateSet, error) {
	set := NewCandidateSet()
	for _, ev := range evidence {
		cand, err := c.Classify(ev)
		if err != nil {
			return nil, err
		}
		if cand != nil {
			set.Add(cand)
		}
	}
	return set, nil
}
