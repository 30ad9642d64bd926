package maze

import "sort"

// Tip is a terminal node of the network: a nest, a food source, or a
// plain dead end. Tips are not junctions; trajectory steps ending at a
// tip never join the turn table and are reported separately.
type Tip struct {
	ID                  string
	Kind                string // e.g. "nest", "food", "empty"
	Location            string
	DistanceFromTrunkMM float64
}

// TipTable is the immutable tip reference table keyed by tip ID.
type TipTable map[string]Tip

// NewTipTable builds a TipTable from raw rows. Later duplicates win,
// matching how the reference sheet is maintained (corrections are
// appended).
func NewTipTable(tips []Tip) TipTable {
	table := make(TipTable, len(tips))
	for _, t := range tips {
		table[t.ID] = t
	}
	return table
}

// Lookup returns the tip for the given node ID, if any.
func (t TipTable) Lookup(id string) (Tip, bool) {
	tip, ok := t[id]
	return tip, ok
}

// IDs returns the sorted tip IDs.
func (t TipTable) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
