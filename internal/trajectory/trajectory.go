// Package trajectory converts raw per-ant observation logs into
// directed edge traversals. The reconstruction is strictly sequential
// within one ant (each step's endpoints depend on its neighbours) but
// independent across ants, so ants are processed concurrently.
package trajectory

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// Action distinguishes the two recorded behaviours at a junction.
type Action string

const (
	ActionInspect Action = "inspect"
	ActionIgnore  Action = "ignore"
)

// Sentinel node IDs for the endpoints of an ant's recorded sequence.
const (
	StartNode = "start"
	EndNode   = "end"
)

// Observation is one timestamped raw record from the field log.
// ExitedToward is present only when the ant's actual bearing differs
// from what the next visited junction would imply — the U-turn case,
// where the ant launched toward a node but reversed before arriving.
type Observation struct {
	Colony       string
	AntID        string
	Timestamp    time.Time
	Junction     string
	ExitedToward string // empty unless the bearing was recorded explicitly
	Action       Action
}

// Step is one reconstructed directed traversal:
// NodeFrom → Junction → NodeTo.
type Step struct {
	Colony     string
	AntID      string
	PairID     string // first byte of AntID, labels the release pair
	PairMember string // remainder of AntID

	NodeFrom string
	Junction string
	NodeTo   string

	PathLength       int  // 1-based ordinal within the ant's sequence
	InspectionCount  int  // inspect actions completed strictly before this step
	ExplorationPhase bool // true until the first inspection
}

// Reconstruct rebuilds every ant's trajectory from the raw log. The
// observations may arrive in any order; they are grouped by
// (colony, ant) and time-sorted per group. Unknown junction IDs pass
// through untouched — validation against the catalog happens at the
// join, where tip arrivals drop out naturally.
//
// Groups are reconstructed on a bounded worker pool and the merged
// result is deterministic: sorted by colony, ant, then path length.
func Reconstruct(obs []Observation) []Step {
	type groupKey struct{ colony, ant string }
	grouped := make(map[groupKey][]Observation)
	for _, o := range obs {
		k := groupKey{o.Colony, o.AntID}
		grouped[k] = append(grouped[k], o)
	}

	groups := make([][]Observation, 0, len(grouped))
	for _, g := range grouped {
		groups = append(groups, g)
	}

	workers := runtime.NumCPU()
	if workers > len(groups) {
		workers = len(groups)
	}
	if workers < 1 {
		workers = 1
	}

	var (
		mu    sync.Mutex
		steps []Step
		wg    sync.WaitGroup
	)
	work := make(chan []Observation)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range work {
				result := reconstructAnt(g)
				mu.Lock()
				steps = append(steps, result...)
				mu.Unlock()
			}
		}()
	}
	for _, g := range groups {
		work <- g
	}
	close(work)
	wg.Wait()

	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Colony != steps[j].Colony {
			return steps[i].Colony < steps[j].Colony
		}
		if steps[i].AntID != steps[j].AntID {
			return steps[i].AntID < steps[j].AntID
		}
		return steps[i].PathLength < steps[j].PathLength
	})
	return steps
}

// reconstructAnt is the sequential fold over one ant's observations.
// The naive endpoints come from the adjacent records; an explicit
// ExitedToward overrides the step's own NodeTo and the next step's
// NodeFrom. The latter is what encodes a U-turn correctly: when the
// ant left junction J toward node N, never arrived, and was observed
// at J again, the naive lag would claim it came from J itself, while
// the recorded bearing preserves that it launched toward N.
func reconstructAnt(obs []Observation) []Step {
	ordered := make([]Observation, len(obs))
	copy(ordered, obs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	steps := make([]Step, 0, len(ordered))
	inspections := 0
	for i, o := range ordered {
		nodeFrom := StartNode
		if i > 0 {
			nodeFrom = ordered[i-1].Junction
			if prev := ordered[i-1].ExitedToward; prev != "" {
				nodeFrom = prev
			}
		}

		nodeTo := EndNode
		if i < len(ordered)-1 {
			nodeTo = ordered[i+1].Junction
		}
		if o.ExitedToward != "" {
			nodeTo = o.ExitedToward
		}

		pairID, pairMember := SplitAntID(o.AntID)
		steps = append(steps, Step{
			Colony:           o.Colony,
			AntID:            o.AntID,
			PairID:           pairID,
			PairMember:       pairMember,
			NodeFrom:         nodeFrom,
			Junction:         o.Junction,
			NodeTo:           nodeTo,
			PathLength:       i + 1,
			InspectionCount:  inspections,
			ExplorationPhase: inspections == 0,
		})

		if o.Action == ActionInspect {
			inspections++
		}
	}
	return steps
}

// SplitAntID separates an ant label into its pair identity (first
// byte) and member tag (remainder). A purely notational derivation;
// reconstruction never branches on it.
func SplitAntID(antID string) (pairID, member string) {
	if antID == "" {
		return "", ""
	}
	return antID[:1], antID[1:]
}
