// Package ingest reads the three static input tables (branch catalog,
// tip reference, observation log) from CSV and the fitted model
// lookup from JSON. Schema coercion stops here: everything downstream
// operates on typed, validated values.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/maze"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/trajectory"
)

// Timestamp layouts accepted in the observation log. The field sheets
// use the second form; exports from newer tooling use RFC3339.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ReadBranches parses the branch catalog table
// (junction_id, role, width, destination_node).
func ReadBranches(r io.Reader) ([]maze.Branch, error) {
	rows, err := readTable(r, []string{"junction_id", "role", "width", "destination_node"})
	if err != nil {
		return nil, fmt.Errorf("branch catalog: %w", err)
	}

	branches := make([]maze.Branch, 0, len(rows))
	for i, row := range rows {
		width, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("branch catalog row %d: bad width %q: %w", i+2, row[2], err)
		}
		branches = append(branches, maze.Branch{
			Junction: row[0],
			Role:     maze.Role(row[1]),
			WidthMM:  width,
			DestNode: row[3],
		})
	}
	return branches, nil
}

// ReadTips parses the tip reference table
// (tip_id, type, location, distance_from_trunk).
func ReadTips(r io.Reader) ([]maze.Tip, error) {
	rows, err := readTable(r, []string{"tip_id", "type", "location", "distance_from_trunk"})
	if err != nil {
		return nil, fmt.Errorf("tip reference: %w", err)
	}

	tips := make([]maze.Tip, 0, len(rows))
	for i, row := range rows {
		dist, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("tip reference row %d: bad distance %q: %w", i+2, row[3], err)
		}
		tips = append(tips, maze.Tip{
			ID:                  row[0],
			Kind:                row[1],
			Location:            row[2],
			DistanceFromTrunkMM: dist,
		})
	}
	return tips, nil
}

// ReadObservations parses the observation log
// (colony, ant_id, timestamp, junction_visited, exited_toward, action).
// The exited_toward column is empty on most rows; it is recorded only
// when the ant's true bearing differs from what the next visited
// junction would imply.
func ReadObservations(r io.Reader) ([]trajectory.Observation, error) {
	rows, err := readTable(r, []string{"colony", "ant_id", "timestamp", "junction_visited", "exited_toward", "action"})
	if err != nil {
		return nil, fmt.Errorf("observation log: %w", err)
	}

	obs := make([]trajectory.Observation, 0, len(rows))
	for i, row := range rows {
		ts, err := parseTimestamp(row[2])
		if err != nil {
			return nil, fmt.Errorf("observation log row %d: %w", i+2, err)
		}
		action := trajectory.Action(row[5])
		if action != trajectory.ActionInspect && action != trajectory.ActionIgnore {
			return nil, fmt.Errorf("observation log row %d: unknown action %q", i+2, row[5])
		}
		obs = append(obs, trajectory.Observation{
			Colony:       row[0],
			AntID:        row[1],
			Timestamp:    ts,
			Junction:     row[3],
			ExitedToward: row[4],
			Action:       action,
		})
	}
	return obs, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// readTable reads a CSV table, validates the header against the
// expected column names (case-insensitive), and returns the data rows.
func readTable(r io.Reader, columns []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) != len(columns) {
		return nil, fmt.Errorf("expected %d columns %v, got %d", len(columns), columns, len(header))
	}
	for i, want := range columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return nil, fmt.Errorf("expected column %d to be %q, got %q", i+1, want, header[i])
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return rows, nil
}

// ReadBranchesFile, ReadTipsFile and ReadObservationsFile are
// path-based conveniences for the CLI drivers.

func ReadBranchesFile(path string) ([]maze.Branch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBranches(f)
}

func ReadTipsFile(path string) ([]maze.Tip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTips(f)
}

func ReadObservationsFile(path string) ([]trajectory.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadObservations(f)
}
