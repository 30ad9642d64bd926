// Command assemble runs the prediction half of the pipeline: it
// rebuilds the turn table, reads the fitted model probabilities the
// external regression produced, fuses them into a full three-way exit
// distribution per junction approach, verifies conservation, and
// persists the validated prediction table.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/antdb"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/config"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/ingest"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/maze"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/predict"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/turns"
)

func main() {
	var (
		catalogPath   = flag.String("catalog", "data/branches.csv", "branch catalog CSV")
		modelPath     = flag.String("model", "data/fitted_model.json", "fitted model JSON from the regression")
		configPath    = flag.String("config", "", "analysis config JSON (handedness overrides, tolerance)")
		dbPath        = flag.String("db", "analysis.db", "sqlite output database")
		csvOut        = flag.String("csv-out", "", "optional CSV path for the prediction table")
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

	table, err := turns.Classify(cat, cfg.Overrides())
	if err != nil {
		log.Fatalf("classifying turns: %v", err)
	}

	model, err := ingest.ReadFittedModelFile(*modelPath)
	if err != nil {
		log.Fatalf("loading fitted model: %v", err)
	}

	preds, err := predict.Assemble(table, model)
	if err != nil {
		log.Fatalf("assembling predictions: %v", err)
	}
	if err := predict.Validate(preds, cfg.GetConservationRelTol()); err != nil {
		log.Fatalf("conservation check failed: %v", err)
	}
	log.Printf("assembled %d validated predictions", len(preds))

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

	runID, err := db.BeginRun("assemble")
	if err != nil {
		log.Fatalf("beginning run: %v", err)
	}
	if err := db.InsertPredictions(runID, preds); err != nil {
		log.Fatalf("persisting predictions: %v", err)
	}
	if err := db.FinishRun(runID, len(preds), nil); err != nil {
		log.Fatalf("finishing run: %v", err)
	}

	if *csvOut != "" {
		if err := writePredictionCSV(*csvOut, preds); err != nil {
			log.Fatalf("writing prediction CSV: %v", err)
		}
	}

	log.Printf("run %s complete", runID)
}

func writePredictionCSV(path string, preds []predict.Prediction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"junction", "node_from", "node_to", "exit_class", "p"}); err != nil {
		return err
	}
	for _, p := range preds {
		row := []string{
			p.Junction, p.NodeFrom, p.NodeTo, string(p.Exit),
			strconv.FormatFloat(p.P, 'g', -1, 64),
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
