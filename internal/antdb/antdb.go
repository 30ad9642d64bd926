// Package antdb persists the analysis tables to sqlite: the static
// reference tables, the raw observation log, the joined turn-choice
// feature table, and the terminal prediction table. Each batch run is
// recorded as an analysis run with a unique ID so table rows can be
// traced back to the inputs that produced them.
package antdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/choices"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/maze"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/predict"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/trajectory"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the analysis database and ensures the
// schema exists. The schema here matches migrations/0001_init; the
// migration files exist for operational upgrades of long-lived
// databases.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS branches (
			junction_id        TEXT NOT NULL,
			role               TEXT NOT NULL,
			width_mm           DOUBLE NOT NULL,
			destination_node   TEXT NOT NULL,
			rel_width          TEXT NOT NULL,
			UNIQUE(junction_id, role)
		);
		CREATE TABLE IF NOT EXISTS tips (
			tip_id                  TEXT PRIMARY KEY,
			kind                    TEXT,
			location                TEXT,
			distance_from_trunk_mm  DOUBLE
		);
		CREATE TABLE IF NOT EXISTS observations (
			colony            TEXT NOT NULL,
			ant_id            TEXT NOT NULL,
			observed_at       TIMESTAMP NOT NULL,
			junction_visited  TEXT NOT NULL,
			exited_toward     TEXT,
			action            TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_observations_ant ON observations(colony, ant_id);
		CREATE TABLE IF NOT EXISTS turn_choices (
			run_id            TEXT NOT NULL,
			colony            TEXT NOT NULL,
			ant_id            TEXT NOT NULL,
			pair_id           TEXT,
			pair_member       TEXT,
			node_from         TEXT NOT NULL,
			junction          TEXT NOT NULL,
			node_to           TEXT NOT NULL,
			path_length       BIGINT NOT NULL,
			inspection_count  BIGINT NOT NULL,
			exploration_phase BOOLEAN NOT NULL,
			turn_type         TEXT NOT NULL,
			width_change      TEXT NOT NULL,
			trunk_relation    TEXT NOT NULL,
			angle_class       TEXT NOT NULL,
			entry_angle       TEXT NOT NULL,
			handedness        TEXT NOT NULL,
			sharp_is_left     BOOLEAN NOT NULL,
			ambiguous         BOOLEAN NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_turn_choices_run ON turn_choices(run_id);
		CREATE TABLE IF NOT EXISTS arrivals (
			run_id       TEXT NOT NULL,
			colony       TEXT NOT NULL,
			ant_id       TEXT NOT NULL,
			junction     TEXT NOT NULL,
			tip_id       TEXT NOT NULL,
			tip_kind     TEXT,
			tip_location TEXT,
			path_length  BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS predictions (
			run_id     TEXT NOT NULL,
			junction   TEXT NOT NULL,
			node_from  TEXT NOT NULL,
			node_to    TEXT NOT NULL,
			exit_class TEXT NOT NULL,
			p          DOUBLE NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_predictions_run ON predictions(run_id);
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id            TEXT PRIMARY KEY,
			kind              TEXT NOT NULL,
			started_at        TIMESTAMP NOT NULL,
			finished_at       TIMESTAMP,
			row_count         BIGINT,
			mean_path_length  DOUBLE
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// AnalysisRun records one batch invocation.
type AnalysisRun struct {
	RunID          string
	Kind           string // "antpaths" or "assemble"
	StartedAt      time.Time
	FinishedAt     time.Time
	RowCount       int
	MeanPathLength float64
}

// BeginRun creates a new analysis run row and returns its ID.
func (db *DB) BeginRun(kind string) (string, error) {
	runID := fmt.Sprintf("run_%s", uuid.NewString())
	_, err := db.Exec(
		`INSERT INTO analysis_runs (run_id, kind, started_at) VALUES (?, ?, ?)`,
		runID, kind, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return runID, nil
}

// FinishRun stamps a run complete with its output row count and the
// mean path length across the persisted steps (zero when no steps).
func (db *DB) FinishRun(runID string, rowCount int, pathLengths []float64) error {
	mean := 0.0
	if len(pathLengths) > 0 {
		mean = stat.Mean(pathLengths, nil)
	}
	_, err := db.Exec(
		`UPDATE analysis_runs SET finished_at = ?, row_count = ?, mean_path_length = ? WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339), rowCount, mean, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// GetRun loads one analysis run row.
func (db *DB) GetRun(runID string) (*AnalysisRun, error) {
	row := db.QueryRow(
		`SELECT run_id, kind, started_at, COALESCE(finished_at, ''), COALESCE(row_count, 0), COALESCE(mean_path_length, 0)
		 FROM analysis_runs WHERE run_id = ?`, runID)

	var run AnalysisRun
	var started, finished string
	if err := row.Scan(&run.RunID, &run.Kind, &started, &finished, &run.RowCount, &run.MeanPathLength); err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	run.StartedAt, _ = time.Parse(time.RFC3339, started)
	if finished != "" {
		run.FinishedAt, _ = time.Parse(time.RFC3339, finished)
	}
	return &run, nil
}

// InsertBranches replaces the branch reference table.
func (db *DB) InsertBranches(branches []maze.Branch) error {
	return db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM branches`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(
			`INSERT INTO branches (junction_id, role, width_mm, destination_node, rel_width) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, b := range branches {
			if _, err := stmt.Exec(b.Junction, string(b.Role), b.WidthMM, b.DestNode, string(b.RelWidth)); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertTips replaces the tip reference table.
func (db *DB) InsertTips(tips []maze.Tip) error {
	return db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM tips`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(
			`INSERT INTO tips (tip_id, kind, location, distance_from_trunk_mm) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, t := range tips {
			if _, err := stmt.Exec(t.ID, t.Kind, t.Location, t.DistanceFromTrunkMM); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertObservations appends raw observation rows.
func (db *DB) InsertObservations(obs []trajectory.Observation) error {
	return db.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			`INSERT INTO observations (colony, ant_id, observed_at, junction_visited, exited_toward, action)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, o := range obs {
			if _, err := stmt.Exec(o.Colony, o.AntID, o.Timestamp.UTC().Format(time.RFC3339), o.Junction, o.ExitedToward, string(o.Action)); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertTurnChoices appends joined feature-table rows for a run.
func (db *DB) InsertTurnChoices(runID string, rows []choices.TurnChoice) error {
	return db.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			`INSERT INTO turn_choices (run_id, colony, ant_id, pair_id, pair_member, node_from, junction, node_to,
			                           path_length, inspection_count, exploration_phase, turn_type, width_change,
			                           trunk_relation, angle_class, entry_angle, handedness, sharp_is_left, ambiguous)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range rows {
			if _, err := stmt.Exec(
				runID, c.Step.Colony, c.Step.AntID, c.Step.PairID, c.Step.PairMember,
				c.Step.NodeFrom, c.Step.Junction, c.Step.NodeTo,
				c.Step.PathLength, c.Step.InspectionCount, c.Step.ExplorationPhase,
				string(c.Turn.Type), string(c.Turn.Width), string(c.Turn.Trunk),
				string(c.Turn.Angle), string(c.Turn.EntryAngle), string(c.Turn.Handedness),
				c.Turn.SharpIsLeft, c.Ambiguous,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertArrivals appends tip-arrival rows for a run.
func (db *DB) InsertArrivals(runID string, rows []choices.Arrival) error {
	return db.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			`INSERT INTO arrivals (run_id, colony, ant_id, junction, tip_id, tip_kind, tip_location, path_length)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, a := range rows {
			if _, err := stmt.Exec(
				runID, a.Step.Colony, a.Step.AntID, a.Step.Junction,
				a.Tip.ID, a.Tip.Kind, a.Tip.Location, a.Step.PathLength,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertPredictions appends the validated prediction table for a run.
func (db *DB) InsertPredictions(runID string, preds []predict.Prediction) error {
	return db.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			`INSERT INTO predictions (run_id, junction, node_from, node_to, exit_class, p)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range preds {
			if _, err := stmt.Exec(runID, p.Junction, p.NodeFrom, p.NodeTo, string(p.Exit), p.P); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListPredictions loads a run's prediction table in stable order.
func (db *DB) ListPredictions(runID string) ([]predict.Prediction, error) {
	rows, err := db.Query(
		`SELECT junction, node_from, node_to, exit_class, p
		 FROM predictions WHERE run_id = ?
		 ORDER BY junction, node_from, node_to`, runID)
	if err != nil {
		return nil, fmt.Errorf("list predictions for %s: %w", runID, err)
	}
	defer rows.Close()

	var preds []predict.Prediction
	for rows.Next() {
		var p predict.Prediction
		var exit string
		if err := rows.Scan(&p.Junction, &p.NodeFrom, &p.NodeTo, &exit, &p.P); err != nil {
			return nil, err
		}
		p.Exit = predict.ExitClass(exit)
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

// CountRows returns the row count of one of the known tables.
func (db *DB) CountRows(table string) (int, error) {
	switch table {
	case "branches", "tips", "observations", "turn_choices", "arrivals", "predictions", "analysis_runs":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (db *DB) inTx(fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
