package trajectory

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obsAt(ant string, minute int, junction string) Observation {
	return Observation{
		Colony:    "C1",
		AntID:     ant,
		Timestamp: time.Date(2021, 6, 14, 9, minute, 0, 0, time.UTC),
		Junction:  junction,
		Action:    ActionIgnore,
	}
}

func TestReconstructRoundTrip(t *testing.T) {
	t.Parallel()

	// [J1, J2, J3] with no exited_toward: endpoints come straight from
	// the adjacent observations plus the start/end sentinels.
	steps := Reconstruct([]Observation{
		obsAt("1a", 0, "J1"),
		obsAt("1a", 1, "J2"),
		obsAt("1a", 2, "J3"),
	})
	require.Len(t, steps, 3)

	assert.Equal(t, []string{StartNode, "J1", "J2"},
		[]string{steps[0].NodeFrom, steps[1].NodeFrom, steps[2].NodeFrom})
	assert.Equal(t, []string{"J2", "J3", EndNode},
		[]string{steps[0].NodeTo, steps[1].NodeTo, steps[2].NodeTo})
	assert.Equal(t, []int{1, 2, 3},
		[]int{steps[0].PathLength, steps[1].PathLength, steps[2].PathLength})
}

func TestReconstructUTurnOverride(t *testing.T) {
	t.Parallel()

	// The ant left J1 toward J2, reversed before arriving, and was
	// observed at J1 again. The naive lag would claim the second step
	// came from J1; the recorded bearing preserves that it launched
	// toward J2.
	first := obsAt("1a", 0, "J1")
	first.ExitedToward = "J2"
	second := obsAt("1a", 1, "J1")

	steps := Reconstruct([]Observation{first, second})
	require.Len(t, steps, 2)

	assert.Equal(t, "J2", steps[0].NodeTo, "override replaces the naive lead")
	assert.Equal(t, "J2", steps[1].NodeFrom, "previous override replaces the naive lag")
}

func TestReconstructOwnOverrideOnly(t *testing.T) {
	t.Parallel()

	// An override on the middle record rewrites its own NodeTo and the
	// following step's NodeFrom, but not the preceding step.
	mid := obsAt("1a", 1, "J2")
	mid.ExitedToward = "J9"

	steps := Reconstruct([]Observation{
		obsAt("1a", 0, "J1"),
		mid,
		obsAt("1a", 2, "J3"),
	})
	require.Len(t, steps, 3)

	assert.Equal(t, "J2", steps[0].NodeTo, "first step keeps the naive lead")
	assert.Equal(t, "J9", steps[1].NodeTo)
	assert.Equal(t, "J9", steps[2].NodeFrom)
}

func TestReconstructExplorationPhase(t *testing.T) {
	t.Parallel()

	inspect := obsAt("1a", 1, "J2")
	inspect.Action = ActionInspect

	steps := Reconstruct([]Observation{
		obsAt("1a", 0, "J1"),
		inspect,
		obsAt("1a", 2, "J3"),
	})
	require.Len(t, steps, 3)

	// The inspection at step 2 counts strictly before step 3 only.
	assert.Equal(t, []int{0, 0, 1},
		[]int{steps[0].InspectionCount, steps[1].InspectionCount, steps[2].InspectionCount})
	assert.Equal(t, []bool{true, true, false},
		[]bool{steps[0].ExplorationPhase, steps[1].ExplorationPhase, steps[2].ExplorationPhase})
}

func TestReconstructSortsOutOfOrderInput(t *testing.T) {
	t.Parallel()

	steps := Reconstruct([]Observation{
		obsAt("1a", 2, "J3"),
		obsAt("1a", 0, "J1"),
		obsAt("1a", 1, "J2"),
	})
	require.Len(t, steps, 3)
	assert.Equal(t, "J1", steps[0].Junction)
	assert.Equal(t, "J3", steps[2].Junction)
}

func TestReconstructManyAntsDeterministic(t *testing.T) {
	t.Parallel()

	// Enough ants to exercise the worker pool; the merged output must
	// be identical across runs.
	var obs []Observation
	for ant := 0; ant < 40; ant++ {
		id := fmt.Sprintf("%da", ant%10)
		colonyObs := []Observation{
			obsAt(id, 0, "J1"),
			obsAt(id, 1, "J2"),
		}
		colonyObs[0].Colony = fmt.Sprintf("C%d", ant/10)
		colonyObs[1].Colony = fmt.Sprintf("C%d", ant/10)
		obs = append(obs, colonyObs...)
	}

	first := Reconstruct(obs)
	second := Reconstruct(obs)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("non-deterministic reconstruction (-first +second):\n%s", diff)
	}

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		ordered := prev.Colony < cur.Colony ||
			(prev.Colony == cur.Colony && prev.AntID < cur.AntID) ||
			(prev.Colony == cur.Colony && prev.AntID == cur.AntID && prev.PathLength < cur.PathLength)
		assert.True(t, ordered, "rows %d..%d out of order", i-1, i)
	}
}

func TestReconstructEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Reconstruct(nil))
}

func TestSplitAntID(t *testing.T) {
	t.Parallel()

	pair, member := SplitAntID("1a")
	assert.Equal(t, "1", pair)
	assert.Equal(t, "a", member)

	pair, member = SplitAntID("7")
	assert.Equal(t, "7", pair)
	assert.Equal(t, "", member)

	pair, member = SplitAntID("")
	assert.Equal(t, "", pair)
	assert.Equal(t, "", member)
}
