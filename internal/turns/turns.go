// Package turns derives, for every junction in the catalog, the full
// matrix of possible entry→exit transitions and their static geometric
// attributes. All nine ordered role pairs exist per junction, including
// the three same-branch pairs which model an immediate reversal.
package turns

import (
	"fmt"
	"sort"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/maze"
)

// TurnType is the rotational direction of a transition.
type TurnType string

const (
	TurnLeft  TurnType = "L"
	TurnRight TurnType = "R"
	TurnU     TurnType = "U" // entry and exit on the same branch
)

// WidthChange compares the entry branch width rank to the exit's.
type WidthChange string

const (
	WidthNarrowing WidthChange = "narrowing"
	WidthWidening  WidthChange = "widening"
	WidthEqual     WidthChange = "equal"
	WidthUndefined WidthChange = "undefined"
)

// TrunkRelation states whether the transition moves toward or away
// from the trunk of the tree.
type TrunkRelation string

const (
	TowardTrunk    TrunkRelation = "toward_trunk"
	AwayFromTrunk  TrunkRelation = "away_from_trunk"
	TrunkUndefined TrunkRelation = "undefined"
)

// AngleClass classifies the exit's deviation angle relative to the
// entry bearing.
type AngleClass string

const (
	AngleSharp     AngleClass = "sharp"
	AngleShallow   AngleClass = "shallow"
	AngleUndefined AngleClass = "undefined"
)

// EntryAngle classifies the entry branch itself: the trunk, the
// sharper offshoot, or the shallower offshoot.
type EntryAngle string

const (
	EntryMain    EntryAngle = "main"
	EntrySharp   EntryAngle = "sharp"
	EntryShallow EntryAngle = "shallow"
)

// Handedness records which side the narrower, more sharply angled
// offshoot is on.
type Handedness string

const (
	LeftHanded  Handedness = "LH"
	RightHanded Handedness = "RH"
)

// Turn is one classified entry→exit transition at a junction.
type Turn struct {
	Junction string
	From     maze.Role
	To       maze.Role

	// Destination nodes of the entry and exit branches. The joiner
	// matches trajectory steps on (Junction, DestFrom, DestTo).
	DestFrom string
	DestTo   string

	Type        TurnType
	Width       WidthChange
	Trunk       TrunkRelation
	Angle       AngleClass
	EntryAngle  EntryAngle
	Handedness  Handedness
	SharpIsLeft bool
}

// turnTypes is the fixed rotation table for distinct-role pairs. It
// encodes a consistent rotational convention around the three-way
// junction; same-role pairs are U and handled separately.
var turnTypes = map[[2]maze.Role]TurnType{
	{maze.RoleMain, maze.RoleLeft}:  TurnLeft,
	{maze.RoleMain, maze.RoleRight}: TurnRight,
	{maze.RoleLeft, maze.RoleRight}: TurnLeft,
	{maze.RoleLeft, maze.RoleMain}:  TurnRight,
	{maze.RoleRight, maze.RoleMain}: TurnLeft,
	{maze.RoleRight, maze.RoleLeft}: TurnRight,
}

// Table holds every classified turn, indexed for the joiner and the
// prediction assembler. Immutable once built.
type Table struct {
	turns      []Turn
	byKey      map[matchKey][]Turn
	byJunction map[string][]Turn
	handedness map[string]Handedness
}

type matchKey struct {
	junction string
	destFrom string
	destTo   string
}

// Classify enumerates and classifies all nine turns of every junction
// in the catalog. The overrides map supplies ground-truth handedness
// for width-degenerate junctions; it is consulted only when width
// ranking alone cannot resolve a junction.
func Classify(cat *maze.Catalog, overrides map[string]Handedness) (*Table, error) {
	table := &Table{
		byKey:      make(map[matchKey][]Turn),
		byJunction: make(map[string][]Turn),
		handedness: make(map[string]Handedness),
	}

	for _, junction := range cat.Junctions() {
		hand, err := resolveHandedness(cat, junction, overrides)
		if err != nil {
			return nil, err
		}
		table.handedness[junction] = hand

		for _, fromRole := range maze.Roles {
			from, _ := cat.Branch(junction, fromRole)
			for _, toRole := range maze.Roles {
				to, _ := cat.Branch(junction, toRole)
				turn := classifyPair(junction, from, to, hand)
				table.turns = append(table.turns, turn)
				key := matchKey{junction, turn.DestFrom, turn.DestTo}
				table.byKey[key] = append(table.byKey[key], turn)
				table.byJunction[junction] = append(table.byJunction[junction], turn)
			}
		}
	}
	return table, nil
}

func classifyPair(junction string, from, to maze.Branch, hand Handedness) Turn {
	turn := Turn{
		Junction:    junction,
		From:        from.Role,
		To:          to.Role,
		DestFrom:    from.DestNode,
		DestTo:      to.DestNode,
		Handedness:  hand,
		EntryAngle:  entryAngle(from.Role, hand),
		SharpIsLeft: sharpExitRole(from.Role, hand) == maze.RoleLeft,
	}

	if from.Role == to.Role {
		turn.Type = TurnU
	} else {
		turn.Type = turnTypes[[2]maze.Role{from.Role, to.Role}]
	}

	// Width is undefined whenever entry and exit resolve to the same
	// destination node: structurally a U-turn regardless of role
	// labels. This covers the three self pairs and any co-destination
	// data quirk.
	switch {
	case from.DestNode == to.DestNode:
		turn.Width = WidthUndefined
	case from.RelWidth == maze.WidthWide && to.RelWidth == maze.WidthNarrow:
		turn.Width = WidthNarrowing
	case from.RelWidth == maze.WidthNarrow:
		turn.Width = WidthEqual
	default:
		turn.Width = WidthWidening
	}

	switch {
	case from.Role == to.Role:
		turn.Trunk = TrunkUndefined
	case to.Role == maze.RoleMain:
		turn.Trunk = TowardTrunk
	default:
		// Entry from main, or a transition between the two offshoots:
		// either way the ant moves deeper into the tree.
		turn.Trunk = AwayFromTrunk
	}

	turn.Angle = exitAngle(from.Role, to.Role, hand)
	return turn
}

// exitAngle classifies the deviation of the exit branch given the
// entry role. From main the sharper exit is the narrow offshoot, which
// is what handedness records. Between the two offshoots the relative
// ordering is fixed: leaving via the right branch from the left is the
// sharper of the two remaining exits, and symmetrically the left exit
// from the right branch is the shallower.
func exitAngle(from, to maze.Role, hand Handedness) AngleClass {
	if from == to {
		return AngleUndefined
	}
	if to == sharpExitRole(from, hand) {
		return AngleSharp
	}
	return AngleShallow
}

// sharpExitRole returns the role of the sharp exit for a given entry
// role and junction handedness.
func sharpExitRole(from maze.Role, hand Handedness) maze.Role {
	switch from {
	case maze.RoleMain:
		if hand == LeftHanded {
			return maze.RoleLeft
		}
		return maze.RoleRight
	case maze.RoleLeft:
		return maze.RoleRight
	default: // RoleRight
		return maze.RoleMain
	}
}

// entryAngle classifies the entry branch itself. The offshoot with the
// larger deviation angle is always the sharp one, regardless of width.
func entryAngle(from maze.Role, hand Handedness) EntryAngle {
	switch from {
	case maze.RoleMain:
		return EntryMain
	case maze.RoleLeft:
		if hand == LeftHanded {
			return EntrySharp
		}
		return EntryShallow
	default: // RoleRight
		if hand == RightHanded {
			return EntrySharp
		}
		return EntryShallow
	}
}

// resolveHandedness infers junction handedness from the narrow
// branch's role, falling back to the override table for junctions the
// width ranking cannot resolve (width-degenerate ties, or a narrow
// trunk). When multiple narrow candidates disagree and no override
// exists, the majority among them wins; an exact tie is an error.
func resolveHandedness(cat *maze.Catalog, junction string, overrides map[string]Handedness) (Handedness, error) {
	narrow := cat.NarrowRoles(junction)
	if len(narrow) == 0 {
		return "", &ClassificationError{Junction: junction, Reason: "no narrow branch (width data corrupt)"}
	}

	var votes []Handedness
	for _, role := range narrow {
		switch role {
		case maze.RoleLeft:
			votes = append(votes, LeftHanded)
		case maze.RoleRight:
			votes = append(votes, RightHanded)
		}
	}

	if len(narrow) == 1 && len(votes) == 1 {
		return votes[0], nil
	}

	// Ambiguous from width alone: the override table carries the
	// physical ground truth recorded out-of-band.
	if hand, ok := overrides[junction]; ok {
		if hand != LeftHanded && hand != RightHanded {
			return "", &ClassificationError{Junction: junction, Reason: fmt.Sprintf("invalid handedness override %q", hand)}
		}
		return hand, nil
	}

	lh, rh := 0, 0
	for _, v := range votes {
		if v == LeftHanded {
			lh++
		} else {
			rh++
		}
	}
	switch {
	case lh > rh:
		return LeftHanded, nil
	case rh > lh:
		return RightHanded, nil
	default:
		return "", &ClassificationError{Junction: junction, Reason: "handedness unresolved: width tie without override entry"}
	}
}

// All returns every classified turn, ordered by junction then entry
// and exit role.
func (t *Table) All() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Junction returns the nine turns of one junction.
func (t *Table) Junction(junction string) []Turn {
	turns := t.byJunction[junction]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Match returns every turn whose entry and exit destinations match the
// given node pair at the given junction. More than one result means
// two distinct branch pairs lead between the same nodes; callers must
// treat that as ambiguous rather than picking one.
func (t *Table) Match(junction, nodeFrom, nodeTo string) []Turn {
	matches := t.byKey[matchKey{junction, nodeFrom, nodeTo}]
	out := make([]Turn, len(matches))
	copy(out, matches)
	return out
}

// Handedness returns the resolved handedness for a junction.
func (t *Table) Handedness(junction string) (Handedness, bool) {
	hand, ok := t.handedness[junction]
	return hand, ok
}

// Junctions returns the sorted junction IDs present in the table.
func (t *Table) Junctions() []string {
	out := make([]string, 0, len(t.byJunction))
	for j := range t.byJunction {
		out = append(out, j)
	}
	sort.Strings(out)
	return out
}
