package turns

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/maze"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/testutil"
)

// fixtureOverrides resolves the width-degenerate junction J2 of the
// shared fixture network.
var fixtureOverrides = map[string]Handedness{"J2": RightHanded}

func classifyFixture(t *testing.T) *Table {
	t.Helper()
	table, err := Classify(testutil.FixtureCatalog(t), fixtureOverrides)
	require.NoError(t, err)
	return table
}

func TestClassifyTurnCounts(t *testing.T) {
	t.Parallel()
	table := classifyFixture(t)

	for _, junction := range table.Junctions() {
		turns := table.Junction(junction)
		require.Len(t, turns, 9, "junction %s", junction)

		uTurns := 0
		for _, turn := range turns {
			if turn.Type == TurnU {
				uTurns++
				assert.Equal(t, turn.From, turn.To)
			}
		}
		assert.Equal(t, 3, uTurns, "junction %s", junction)
	}
}

func TestClassifyUndefinedExactlyForSelfPairs(t *testing.T) {
	t.Parallel()
	table := classifyFixture(t)

	for _, turn := range table.All() {
		if turn.From == turn.To {
			assert.Equal(t, WidthUndefined, turn.Width)
			assert.Equal(t, TrunkUndefined, turn.Trunk)
			assert.Equal(t, AngleUndefined, turn.Angle)
		} else {
			assert.NotEqual(t, WidthUndefined, turn.Width, "turn %+v", turn)
			assert.NotEqual(t, TrunkUndefined, turn.Trunk, "turn %+v", turn)
			assert.NotEqual(t, AngleUndefined, turn.Angle, "turn %+v", turn)
		}
	}
}

func TestClassifyRotationTable(t *testing.T) {
	t.Parallel()
	table := classifyFixture(t)

	want := map[[2]maze.Role]TurnType{
		{maze.RoleMain, maze.RoleLeft}:  TurnLeft,
		{maze.RoleMain, maze.RoleRight}: TurnRight,
		{maze.RoleLeft, maze.RoleRight}: TurnLeft,
		{maze.RoleLeft, maze.RoleMain}:  TurnRight,
		{maze.RoleRight, maze.RoleMain}: TurnLeft,
		{maze.RoleRight, maze.RoleLeft}: TurnRight,
	}
	for _, turn := range table.Junction("J1") {
		if turn.From == turn.To {
			continue
		}
		assert.Equal(t, want[[2]maze.Role{turn.From, turn.To}], turn.Type,
			"%s→%s", turn.From, turn.To)
	}
}

// TestClassifyLeftHandedJunction pins down every derived attribute of
// the fixture's J1 (narrow left branch, so left-handed).
func TestClassifyLeftHandedJunction(t *testing.T) {
	t.Parallel()
	table := classifyFixture(t)

	hand, ok := table.Handedness("J1")
	require.True(t, ok)
	assert.Equal(t, LeftHanded, hand)

	type attrs struct {
		Width       WidthChange
		Trunk       TrunkRelation
		Angle       AngleClass
		EntryAngle  EntryAngle
		SharpIsLeft bool
	}
	want := map[[2]maze.Role]attrs{
		{maze.RoleMain, maze.RoleLeft}:  {WidthNarrowing, AwayFromTrunk, AngleSharp, EntryMain, true},
		{maze.RoleMain, maze.RoleRight}: {WidthWidening, AwayFromTrunk, AngleShallow, EntryMain, true},
		{maze.RoleLeft, maze.RoleMain}:  {WidthEqual, TowardTrunk, AngleShallow, EntrySharp, false},
		{maze.RoleLeft, maze.RoleRight}: {WidthEqual, AwayFromTrunk, AngleSharp, EntrySharp, false},
		{maze.RoleRight, maze.RoleMain}: {WidthWidening, TowardTrunk, AngleSharp, EntryShallow, false},
		{maze.RoleRight, maze.RoleLeft}: {WidthNarrowing, AwayFromTrunk, AngleShallow, EntryShallow, false},
	}
	seen := 0
	for _, turn := range table.Junction("J1") {
		if turn.From == turn.To {
			continue
		}
		got := attrs{turn.Width, turn.Trunk, turn.Angle, turn.EntryAngle, turn.SharpIsLeft}
		if diff := cmp.Diff(want[[2]maze.Role{turn.From, turn.To}], got); diff != "" {
			t.Errorf("%s→%s attrs mismatch (-want +got):\n%s", turn.From, turn.To, diff)
		}
		seen++
	}
	assert.Equal(t, 6, seen)
}

func TestClassifyWidthDegenerateJunction(t *testing.T) {
	t.Parallel()

	t.Run("override resolves the tie", func(t *testing.T) {
		t.Parallel()
		table := classifyFixture(t)

		hand, ok := table.Handedness("J2")
		require.True(t, ok)
		assert.Equal(t, RightHanded, hand)
		assert.Len(t, table.Junction("J2"), 9)
	})

	t.Run("missing override is a classification error", func(t *testing.T) {
		t.Parallel()
		_, err := Classify(testutil.FixtureCatalog(t), nil)

		var classErr *ClassificationError
		require.ErrorAs(t, err, &classErr)
		assert.Equal(t, "J2", classErr.Junction)
	})

	t.Run("invalid override value is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := Classify(testutil.FixtureCatalog(t), map[string]Handedness{"J2": "ambidextrous"})
		assert.Error(t, err)
	})
}

func TestClassifyMajorityVote(t *testing.T) {
	t.Parallel()

	// All three branches tie; main contributes no vote, so left+right
	// split 1-1 and nothing can decide without an override.
	cat, err := maze.NewCatalog([]maze.Branch{
		{Junction: "JX", Role: maze.RoleMain, WidthMM: 3, DestNode: "A"},
		{Junction: "JX", Role: maze.RoleLeft, WidthMM: 3, DestNode: "B"},
		{Junction: "JX", Role: maze.RoleRight, WidthMM: 3, DestNode: "C"},
	})
	require.NoError(t, err)

	_, err = Classify(cat, nil)
	var classErr *ClassificationError
	require.ErrorAs(t, err, &classErr)

	// A main+left tie leaves a single vote, which wins without an
	// override.
	cat, err = maze.NewCatalog([]maze.Branch{
		{Junction: "JY", Role: maze.RoleMain, WidthMM: 3, DestNode: "A"},
		{Junction: "JY", Role: maze.RoleLeft, WidthMM: 3, DestNode: "B"},
		{Junction: "JY", Role: maze.RoleRight, WidthMM: 4, DestNode: "C"},
	})
	require.NoError(t, err)

	table, err := Classify(cat, nil)
	require.NoError(t, err)
	hand, _ := table.Handedness("JY")
	assert.Equal(t, LeftHanded, hand)
}

// TestClassifyIdempotent re-runs classification on identical input and
// expects identical output: handedness is a pure function of the
// catalog and overrides.
func TestClassifyIdempotent(t *testing.T) {
	t.Parallel()

	first := classifyFixture(t)
	second := classifyFixture(t)

	if diff := cmp.Diff(first.All(), second.All()); diff != "" {
		t.Errorf("classification not idempotent (-first +second):\n%s", diff)
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()
	table := classifyFixture(t)

	t.Run("unique destination pair", func(t *testing.T) {
		t.Parallel()
		matches := table.Match("J1", "start", "T1")
		require.Len(t, matches, 1)
		assert.Equal(t, maze.RoleMain, matches[0].From)
		assert.Equal(t, maze.RoleLeft, matches[0].To)
	})

	t.Run("self destination pair is the branch U-turn", func(t *testing.T) {
		t.Parallel()
		matches := table.Match("J1", "start", "start")
		require.Len(t, matches, 1)
		assert.Equal(t, TurnU, matches[0].Type)
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, table.Match("J1", "start", "nowhere"))
	})

	t.Run("co-destination branches produce multiple matches", func(t *testing.T) {
		t.Parallel()
		cat, err := maze.NewCatalog([]maze.Branch{
			{Junction: "JZ", Role: maze.RoleMain, WidthMM: 5, DestNode: "A"},
			{Junction: "JZ", Role: maze.RoleLeft, WidthMM: 2, DestNode: "B"},
			{Junction: "JZ", Role: maze.RoleRight, WidthMM: 3, DestNode: "B"},
		})
		require.NoError(t, err)
		table, err := Classify(cat, nil)
		require.NoError(t, err)

		assert.Len(t, table.Match("JZ", "A", "B"), 2)
	})
}
