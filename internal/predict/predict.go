// Package predict fuses the two externally fitted conditional models —
// probability of a U-turn, and probability of taking the sharp exit
// given no U-turn — into a full three-way exit distribution for every
// junction approach, and verifies conservation of probability.
package predict

import (
	"sort"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/turns"
)

// DefaultRelTol is the relative tolerance for the conservation check.
const DefaultRelTol = 1e-9

// ModelKey is the categorical key the regression models are fitted
// over: how the ant entered, and which side the sharp exit is on.
type ModelKey struct {
	EntryAngle  turns.EntryAngle
	SharpIsLeft bool
}

// FittedModel holds the two conditional probability lookups returned
// by the external regression fit.
type FittedModel struct {
	PUTurn          map[ModelKey]float64
	PSharpGivenNotU map[ModelKey]float64
}

// ExitClass labels the three possible exits from an approach.
type ExitClass string

const (
	ExitUTurn   ExitClass = "uturn"
	ExitSharp   ExitClass = "sharp"
	ExitShallow ExitClass = "shallow"
)

// Prediction is one row of the terminal artifact: the probability of
// exiting toward NodeTo when entering Junction from NodeFrom.
type Prediction struct {
	Junction string
	NodeFrom string
	NodeTo   string
	Exit     ExitClass
	P        float64
}

// Assemble computes the full exit distribution for every turn in the
// table. Each of a junction's nine turns yields exactly one row: the
// three self pairs carry the U-turn probability and the six directed
// transitions split the remainder between sharp and shallow. The
// probabilities are computed once per (entry angle, sharp side)
// combination and broadcast to every matching turn.
func Assemble(table *turns.Table, model FittedModel) ([]Prediction, error) {
	preds := make([]Prediction, 0, len(table.All()))
	for _, turn := range table.All() {
		key := ModelKey{EntryAngle: turn.EntryAngle, SharpIsLeft: turn.SharpIsLeft}

		pU, ok := model.PUTurn[key]
		if !ok {
			return nil, &IncompleteModelError{Key: key, Model: "p_uturn"}
		}
		pSharp, ok := model.PSharpGivenNotU[key]
		if !ok {
			return nil, &IncompleteModelError{Key: key, Model: "p_sharp_given_not_u"}
		}

		pred := Prediction{
			Junction: turn.Junction,
			NodeFrom: turn.DestFrom,
			NodeTo:   turn.DestTo,
		}
		switch {
		case turn.Type == turns.TurnU:
			pred.Exit = ExitUTurn
			pred.P = pU
		case turn.Angle == turns.AngleSharp:
			pred.Exit = ExitSharp
			pred.P = (1 - pU) * pSharp
		default:
			pred.Exit = ExitShallow
			pred.P = (1 - pU) * (1 - pSharp)
		}
		preds = append(preds, pred)
	}

	sort.SliceStable(preds, func(i, j int) bool {
		if preds[i].Junction != preds[j].Junction {
			return preds[i].Junction < preds[j].Junction
		}
		if preds[i].NodeFrom != preds[j].NodeFrom {
			return preds[i].NodeFrom < preds[j].NodeFrom
		}
		return preds[i].NodeTo < preds[j].NodeTo
	})
	return preds, nil
}

// Validate checks conservation: for every way of entering a junction,
// the probabilities across the three possible exits must sum to one.
// A violation indicates a classification or join defect upstream and
// is never recoverable, so the first offending group is returned as a
// ConservationError.
func Validate(preds []Prediction, relTol float64) error {
	if relTol <= 0 {
		relTol = DefaultRelTol
	}

	type approach struct{ junction, nodeFrom string }
	sums := make(map[approach]float64)
	counts := make(map[approach]int)
	for _, p := range preds {
		a := approach{p.Junction, p.NodeFrom}
		sums[a] += p.P
		counts[a]++
	}

	ordered := make([]approach, 0, len(sums))
	for a := range sums {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].junction != ordered[j].junction {
			return ordered[i].junction < ordered[j].junction
		}
		return ordered[i].nodeFrom < ordered[j].nodeFrom
	})

	for _, a := range ordered {
		if counts[a] != 3 {
			return &ConservationError{Junction: a.junction, NodeFrom: a.nodeFrom, Exits: counts[a], Sum: sums[a]}
		}
		if !scalar.EqualWithinRel(sums[a], 1, relTol) {
			return &ConservationError{Junction: a.junction, NodeFrom: a.nodeFrom, Exits: counts[a], Sum: sums[a]}
		}
	}
	return nil
}
