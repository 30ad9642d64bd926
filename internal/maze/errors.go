package maze

import "fmt"

// SchemaError reports a malformed branch catalog: a junction without
// exactly three branches, a duplicate or unknown role, or a
// non-positive width. The catalog is rejected whole rather than loaded
// partially.
type SchemaError struct {
	Junction string
	Reason   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("catalog schema error at junction %q: %s", e.Junction, e.Reason)
}
