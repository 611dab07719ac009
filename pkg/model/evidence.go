package model

import "fmt"

// Subject is one gene hit by a query, tagged with its group.
type Subject struct {
	GeneID   string
	Group    string
	Identity float64
}

// QueryEvidence holds every distinct subject a query gene hit, in first-seen order.
type QueryEvidence struct {
	QueryID    string
	QueryGroup string
	Subjects   []Subject
}

// CollectEvidence groups filtered hits by query gene. Queries keep the order
// of their first hit; a subject hit twice by the same query keeps its first
// identity.
func CollectEvidence(hits []*AlignmentHit, genomes *Grouping) ([]*QueryEvidence, error) {
	byQuery := make(map[string]*QueryEvidence)
	seen := make(map[string]map[string]struct{})
	var order []*QueryEvidence

	for _, h := range hits {
		ev, ok := byQuery[h.QueryID]
		if !ok {
			qg, found := genomes.GroupOfGene(h.QueryID)
			if !found {
				return nil, fmt.Errorf("query %s: genome not in grouping", h.QueryID)
			}
			ev = &QueryEvidence{QueryID: h.QueryID, QueryGroup: qg}
			byQuery[h.QueryID] = ev
			seen[h.QueryID] = make(map[string]struct{})
			order = append(order, ev)
		}

		if _, dup := seen[h.QueryID][h.SubjectID]; dup {
			continue
		}
		sg, found := genomes.GroupOfGene(h.SubjectID)
		if !found {
			return nil, fmt.Errorf("subject %s: genome not in grouping", h.SubjectID)
		}
		seen[h.QueryID][h.SubjectID] = struct{}{}
		ev.Subjects = append(ev.Subjects, Subject{GeneID: h.SubjectID, Group: sg, Identity: h.Identity})
	}

	return order, nil
}
