package turns

import "fmt"

// ClassificationError reports a junction whose geometry cannot be
// classified: handedness unresolvable from widths and the override
// table, or corrupt width data. Classification of the whole catalog is
// aborted rather than emitting a partial turn table.
type ClassificationError struct {
	Junction string
	Reason   string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify junction %q: %s", e.Junction, e.Reason)
}
