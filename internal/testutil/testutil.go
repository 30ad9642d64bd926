// Package testutil provides shared test fixtures: a small canned
// branch catalog covering the classifier's interesting cases and a
// throwaway sqlite database path.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/maze"
)

// FixtureBranches returns the branch rows of a two-junction network:
//
//	J1 — left-handed, unambiguous widths (left branch narrowest);
//	J2 — width-degenerate, left and right tied at the minimum, so
//	     handedness needs the override table.
//
// Node layout: start → J1; J1's left leads to tip T1, its right to J2;
// J2's offshoots lead to tips T2 and T3.
func FixtureBranches() []maze.Branch {
	return []maze.Branch{
		{Junction: "J1", Role: maze.RoleMain, WidthMM: 5.0, DestNode: "start"},
		{Junction: "J1", Role: maze.RoleLeft, WidthMM: 2.0, DestNode: "T1"},
		{Junction: "J1", Role: maze.RoleRight, WidthMM: 4.0, DestNode: "J2"},
		{Junction: "J2", Role: maze.RoleMain, WidthMM: 4.0, DestNode: "J1"},
		{Junction: "J2", Role: maze.RoleLeft, WidthMM: 2.5, DestNode: "T2"},
		{Junction: "J2", Role: maze.RoleRight, WidthMM: 2.5, DestNode: "T3"},
	}
}

// FixtureCatalog builds the fixture network's catalog, failing the
// test on schema errors.
func FixtureCatalog(t *testing.T) *maze.Catalog {
	t.Helper()
	cat, err := maze.NewCatalog(FixtureBranches())
	if err != nil {
		t.Fatalf("fixture catalog: %v", err)
	}
	return cat
}

// FixtureTips returns the tip reference rows matching FixtureBranches.
func FixtureTips() []maze.Tip {
	return []maze.Tip{
		{ID: "T1", Kind: "empty", Location: "lower canopy", DistanceFromTrunkMM: 120},
		{ID: "T2", Kind: "nest", Location: "upper canopy", DistanceFromTrunkMM: 310},
		{ID: "T3", Kind: "food", Location: "upper canopy", DistanceFromTrunkMM: 340},
	}
}

// TempDBPath returns a database path inside the test's temp dir.
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "analysis.db")
}
