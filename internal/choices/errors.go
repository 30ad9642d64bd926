package choices

import "fmt"

// JoinAmbiguityError reports a feature-table row whose endpoint pair
// matched more than one classified turn. The row set is rejected whole:
// an ambiguous match in the regression input would silently break the
// downstream conservation invariant.
type JoinAmbiguityError struct {
	Junction string
	NodeFrom string
	NodeTo   string
}

func (e *JoinAmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous turn match at junction %q for %s→%s", e.Junction, e.NodeFrom, e.NodeTo)
}
