package predict

import "fmt"

// IncompleteModelError reports a (entry angle, sharp side) combination
// present in the turn table but absent from a fitted model lookup.
type IncompleteModelError struct {
	Key   ModelKey
	Model string // "p_uturn" or "p_sharp_given_not_u"
}

func (e *IncompleteModelError) Error() string {
	return fmt.Sprintf("fitted model %s has no entry for angle_from=%s sharp_is_left=%t",
		e.Model, e.Key.EntryAngle, e.Key.SharpIsLeft)
}

// ConservationError reports an approach whose assembled exit
// probabilities do not sum to one. Fatal: it means the upstream
// classification or join is defective, not that the input data is
// merely noisy.
type ConservationError struct {
	Junction string
	NodeFrom string
	Exits    int
	Sum      float64
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("exit probabilities for junction %q entered from %q sum to %v across %d exits, want 1",
		e.Junction, e.NodeFrom, e.Sum, e.Exits)
}
