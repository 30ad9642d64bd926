// Package maze models the physical branching network the ants walk: a
// tree of three-way junctions connecting a start point to the terminal
// tips. The catalog is loaded once from the reference table and is
// immutable afterwards; everything downstream (turn classification,
// joining, prediction) reads from it.
package maze

import (
	"fmt"
	"sort"
)

// Role identifies one of the three physical openings at a junction.
type Role string

const (
	RoleMain  Role = "main"  // Branch continuing the trunk toward the root
	RoleLeft  Role = "left"  // Left offshoot
	RoleRight Role = "right" // Right offshoot
)

// Roles lists the three junction roles in canonical order.
var Roles = []Role{RoleMain, RoleLeft, RoleRight}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleMain || r == RoleLeft || r == RoleRight
}

// RelWidth ranks a branch within its junction by physical width.
type RelWidth string

const (
	WidthNarrow RelWidth = "narrow"
	WidthWide   RelWidth = "wide"
)

// Branch is one opening at a junction. WidthMM and DestNode come from
// the reference table; RelWidth is computed by NewCatalog.
type Branch struct {
	Junction string
	Role     Role
	WidthMM  float64
	DestNode string
	RelWidth RelWidth
}

// Catalog holds the immutable branch table, indexed by junction.
type Catalog struct {
	byJunction map[string][3]Branch // indexed main, left, right
	junctions  []string             // sorted junction IDs
}

// NewCatalog validates the raw branch rows and builds the catalog.
// Every junction must carry exactly three branches, one per role, each
// with a positive width. Width ties at the junction minimum are legal
// (all tied branches rank narrow); the turn classifier resolves them
// via the handedness override table.
func NewCatalog(branches []Branch) (*Catalog, error) {
	grouped := make(map[string][]Branch)
	for _, b := range branches {
		if !b.Role.Valid() {
			return nil, &SchemaError{Junction: b.Junction, Reason: fmt.Sprintf("unknown role %q", b.Role)}
		}
		if b.WidthMM <= 0 {
			return nil, &SchemaError{Junction: b.Junction, Reason: fmt.Sprintf("non-positive width %v on %s branch", b.WidthMM, b.Role)}
		}
		grouped[b.Junction] = append(grouped[b.Junction], b)
	}

	cat := &Catalog{byJunction: make(map[string][3]Branch, len(grouped))}
	for junction, group := range grouped {
		if len(group) != 3 {
			return nil, &SchemaError{Junction: junction, Reason: fmt.Sprintf("expected 3 branches, got %d", len(group))}
		}

		var ordered [3]Branch
		seen := make(map[Role]bool, 3)
		for _, b := range group {
			if seen[b.Role] {
				return nil, &SchemaError{Junction: junction, Reason: fmt.Sprintf("duplicate %s branch", b.Role)}
			}
			seen[b.Role] = true
			ordered[roleIndex(b.Role)] = b
		}

		// Rank by width: every branch tied at the junction minimum is
		// narrow, the rest wide.
		min := ordered[0].WidthMM
		for _, b := range ordered[1:] {
			if b.WidthMM < min {
				min = b.WidthMM
			}
		}
		for i := range ordered {
			if ordered[i].WidthMM == min {
				ordered[i].RelWidth = WidthNarrow
			} else {
				ordered[i].RelWidth = WidthWide
			}
		}

		cat.byJunction[junction] = ordered
		cat.junctions = append(cat.junctions, junction)
	}
	sort.Strings(cat.junctions)
	return cat, nil
}

// Junctions returns the sorted junction IDs.
func (c *Catalog) Junctions() []string {
	out := make([]string, len(c.junctions))
	copy(out, c.junctions)
	return out
}

// HasJunction reports whether the catalog knows the given junction.
// Nodes absent from the catalog are tips or the start point.
func (c *Catalog) HasJunction(junction string) bool {
	_, ok := c.byJunction[junction]
	return ok
}

// Branches returns the three branches of a junction in main, left,
// right order.
func (c *Catalog) Branches(junction string) ([]Branch, bool) {
	ordered, ok := c.byJunction[junction]
	if !ok {
		return nil, false
	}
	out := make([]Branch, 3)
	copy(out, ordered[:])
	return out, true
}

// Branch returns a single branch by junction and role.
func (c *Catalog) Branch(junction string, role Role) (Branch, bool) {
	ordered, ok := c.byJunction[junction]
	if !ok || !role.Valid() {
		return Branch{}, false
	}
	return ordered[roleIndex(role)], true
}

// NarrowRoles returns the roles tied at the junction's minimum width.
// A single element means width ranking alone determines handedness;
// more than one means the junction is width-degenerate.
func (c *Catalog) NarrowRoles(junction string) []Role {
	ordered, ok := c.byJunction[junction]
	if !ok {
		return nil
	}
	var roles []Role
	for _, b := range ordered {
		if b.RelWidth == WidthNarrow {
			roles = append(roles, b.Role)
		}
	}
	return roles
}

func roleIndex(r Role) int {
	switch r {
	case RoleMain:
		return 0
	case RoleLeft:
		return 1
	default:
		return 2
	}
}
