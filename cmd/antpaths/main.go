// Command antpaths runs the reconstruction half of the pipeline: it
// loads the branch catalog, tip reference and observation log, builds
// the turn table, reconstructs every ant's trajectory, joins the two,
// and persists the feature table and tip arrivals as a new analysis
// run. The feature table is what the external regression fit consumes.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/antdb"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/choices"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/config"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/ingest"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/maze"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/trajectory"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/turns"
)

func main() {
	var (
		catalogPath   = flag.String("catalog", "data/branches.csv", "branch catalog CSV")
		tipsPath      = flag.String("tips", "data/tips.csv", "tip reference CSV")
		obsPath       = flag.String("obs", "data/observations.csv", "observation log CSV")
		configPath    = flag.String("config", "", "analysis config JSON (handedness overrides, policy)")
		dbPath        = flag.String("db", "analysis.db", "sqlite output database")
		csvOut        = flag.String("csv-out", "", "optional CSV path for the feature table")
		migrationsDir = flag.String("migrations", "", "optional migrations directory to apply before writing")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	branches, err := ingest.ReadBranchesFile(*catalogPath)
	if err != nil {
		log.Fatalf("loading branch catalog: %v", err)
	}
	cat, err := maze.NewCatalog(branches)
	if err != nil {
		log.Fatalf("building catalog: %v", err)
	}

	tipRows, err := ingest.ReadTipsFile(*tipsPath)
	if err != nil {
		log.Fatalf("loading tip reference: %v", err)
	}
	tips := maze.NewTipTable(tipRows)

	obs, err := ingest.ReadObservationsFile(*obsPath)
	if err != nil {
		log.Fatalf("loading observation log: %v", err)
	}

	table, err := turns.Classify(cat, cfg.Overrides())
	if err != nil {
		log.Fatalf("classifying turns: %v", err)
	}
	log.Printf("classified %d turns across %d junctions", len(table.All()), len(cat.Junctions()))

	steps := trajectory.Reconstruct(obs)
	log.Printf("reconstructed %d steps from %d observations", len(steps), len(obs))

	joined := choices.Join(steps, table, cat)
	features, err := choices.FeatureTable(joined, choices.Policy{
		ExplorationOnly:     cfg.GetExplorationOnly(),
		FirstPairMemberOnly: cfg.GetFirstPairMemberOnly(),
	})
	if err != nil {
		log.Fatalf("building feature table: %v", err)
	}
	arrivals := choices.Arrivals(steps, tips)
	log.Printf("feature table: %d rows (of %d joined); arrivals: %d", len(features), len(joined), len(arrivals))

	db, err := antdb.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if *migrationsDir != "" {
		if err := db.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("applying migrations: %v", err)
		}
	}

	runID, err := db.BeginRun("antpaths")
	if err != nil {
		log.Fatalf("beginning run: %v", err)
	}

	if err := db.InsertBranches(branches); err != nil {
		log.Fatalf("persisting branches: %v", err)
	}
	if err := db.InsertTips(tipRows); err != nil {
		log.Fatalf("persisting tips: %v", err)
	}
	if err := db.InsertObservations(obs); err != nil {
		log.Fatalf("persisting observations: %v", err)
	}
	if err := db.InsertTurnChoices(runID, features); err != nil {
		log.Fatalf("persisting feature table: %v", err)
	}
	if err := db.InsertArrivals(runID, arrivals); err != nil {
		log.Fatalf("persisting arrivals: %v", err)
	}

	pathLengths := make([]float64, len(features))
	for i, c := range features {
		pathLengths[i] = float64(c.Step.PathLength)
	}
	if err := db.FinishRun(runID, len(features), pathLengths); err != nil {
		log.Fatalf("finishing run: %v", err)
	}

	if *csvOut != "" {
		if err := writeFeatureCSV(*csvOut, features); err != nil {
			log.Fatalf("writing feature CSV: %v", err)
		}
	}

	log.Printf("run %s complete", runID)
}

func writeFeatureCSV(path string, features []choices.TurnChoice) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"colony", "ant_id", "pair_id", "pair_member",
		"node_from", "junction", "node_to",
		"path_length", "inspection_count", "exploration_phase",
		"turn_type", "width_change", "trunk_relation", "angle_class",
		"entry_angle", "handedness", "sharp_is_left",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, c := range features {
		row := []string{
			c.Step.Colony, c.Step.AntID, c.Step.PairID, c.Step.PairMember,
			c.Step.NodeFrom, c.Step.Junction, c.Step.NodeTo,
			strconv.Itoa(c.Step.PathLength),
			strconv.Itoa(c.Step.InspectionCount),
			strconv.FormatBool(c.Step.ExplorationPhase),
			string(c.Turn.Type), string(c.Turn.Width), string(c.Turn.Trunk), string(c.Turn.Angle),
			string(c.Turn.EntryAngle), string(c.Turn.Handedness),
			strconv.FormatBool(c.Turn.SharpIsLeft),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
