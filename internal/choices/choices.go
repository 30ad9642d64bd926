// Package choices joins reconstructed trajectory steps to their
// classified turns, producing the feature table consumed by the
// external regression fit and the unrestricted table used for tip and
// nest arrival analysis.
package choices

import (
	"sort"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/maze"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/trajectory"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/turns"
)

// TurnChoice is one traversal matched to its geometric classification.
// Ambiguous marks rows where more than one turn matched the same
// (junction, node_from, node_to) key; all candidates are kept so the
// ambiguity stays visible downstream instead of being resolved by a
// silent first-match policy.
type TurnChoice struct {
	Step      trajectory.Step
	Turn      turns.Turn
	Ambiguous bool
}

// Join matches every step to the turn table on exact
// (junction, node_from, node_to). Steps at nodes absent from the
// catalog are dropped — those are tips or the start sentinel, not
// navigable junctions. Steps whose endpoint pair matches no turn
// (first and last steps carry the start/end sentinels) drop out the
// same way an inner join would.
func Join(steps []trajectory.Step, table *turns.Table, cat *maze.Catalog) []TurnChoice {
	choices := make([]TurnChoice, 0, len(steps))
	for _, step := range steps {
		if !cat.HasJunction(step.Junction) {
			continue
		}
		matches := table.Match(step.Junction, step.NodeFrom, step.NodeTo)
		for _, turn := range matches {
			choices = append(choices, TurnChoice{
				Step:      step,
				Turn:      turn,
				Ambiguous: len(matches) > 1,
			})
		}
	}
	return choices
}

// Policy restricts the feature table handed to the regression fit.
// Return trips and correlated pair members confound the path-choice
// model, so the default analysis keeps only outward exploration steps
// from the first member of each release pair.
type Policy struct {
	ExplorationOnly     bool
	FirstPairMemberOnly bool
}

// DefaultPolicy is the restriction used for the published analysis.
var DefaultPolicy = Policy{ExplorationOnly: true, FirstPairMemberOnly: true}

// FeatureTable applies the policy and refuses ambiguous rows: an
// ambiguous match would double-count a traversal and silently corrupt
// the fitted probabilities.
func FeatureTable(choices []TurnChoice, policy Policy) ([]TurnChoice, error) {
	firstMember := firstMembers(choices)

	out := make([]TurnChoice, 0, len(choices))
	for _, c := range choices {
		if policy.ExplorationOnly && !c.Step.ExplorationPhase {
			continue
		}
		if policy.FirstPairMemberOnly {
			key := pairKey{c.Step.Colony, c.Step.PairID}
			if c.Step.PairMember != firstMember[key] {
				continue
			}
		}
		if c.Ambiguous {
			return nil, &JoinAmbiguityError{
				Junction: c.Step.Junction,
				NodeFrom: c.Step.NodeFrom,
				NodeTo:   c.Step.NodeTo,
			}
		}
		out = append(out, c)
	}
	return out, nil
}

type pairKey struct{ colony, pairID string }

// firstMembers finds, per (colony, pair), the lowest member tag
// actually observed. That ant is the pair's first member.
func firstMembers(choices []TurnChoice) map[pairKey]string {
	first := make(map[pairKey]string)
	for _, c := range choices {
		key := pairKey{c.Step.Colony, c.Step.PairID}
		member, ok := first[key]
		if !ok || c.Step.PairMember < member {
			first[key] = c.Step.PairMember
		}
	}
	return first
}

// Arrival is a trajectory step whose destination is a known terminal
// tip, annotated from the tip reference table.
type Arrival struct {
	Step trajectory.Step
	Tip  maze.Tip
}

// Arrivals scans the unrestricted step table for traversals ending at
// a tip. Unlike the feature table, no policy restriction applies here:
// return trips and both pair members count.
func Arrivals(steps []trajectory.Step, tips maze.TipTable) []Arrival {
	var arrivals []Arrival
	for _, step := range steps {
		if tip, ok := tips.Lookup(step.NodeTo); ok {
			arrivals = append(arrivals, Arrival{Step: step, Tip: tip})
		}
	}
	sort.SliceStable(arrivals, func(i, j int) bool {
		if arrivals[i].Step.Colony != arrivals[j].Step.Colony {
			return arrivals[i].Step.Colony < arrivals[j].Step.Colony
		}
		if arrivals[i].Step.AntID != arrivals[j].Step.AntID {
			return arrivals[i].Step.AntID < arrivals[j].Step.AntID
		}
		return arrivals[i].Step.PathLength < arrivals[j].Step.PathLength
	})
	return arrivals
}
