package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/predict"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/turns"
)

// fittedModelFile is the JSON shape the external regression fit
// writes back: one probability per (angle_from, sharp_is_left) cell
// for each of the two conditional models.
type fittedModelFile struct {
	PUTurn          []fittedCell `json:"p_uturn"`
	PSharpGivenNotU []fittedCell `json:"p_sharp_given_not_u"`
}

type fittedCell struct {
	AngleFrom   string  `json:"angle_from"`
	SharpIsLeft bool    `json:"sharp_is_left"`
	P           float64 `json:"p"`
}

// ReadFittedModel parses the fitted model lookup from JSON.
func ReadFittedModel(r io.Reader) (predict.FittedModel, error) {
	var file fittedModelFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return predict.FittedModel{}, fmt.Errorf("fitted model: %w", err)
	}

	model := predict.FittedModel{
		PUTurn:          make(map[predict.ModelKey]float64, len(file.PUTurn)),
		PSharpGivenNotU: make(map[predict.ModelKey]float64, len(file.PSharpGivenNotU)),
	}
	if err := fillLookup(model.PUTurn, file.PUTurn, "p_uturn"); err != nil {
		return predict.FittedModel{}, err
	}
	if err := fillLookup(model.PSharpGivenNotU, file.PSharpGivenNotU, "p_sharp_given_not_u"); err != nil {
		return predict.FittedModel{}, err
	}
	return model, nil
}

func fillLookup(dst map[predict.ModelKey]float64, cells []fittedCell, name string) error {
	for _, cell := range cells {
		angle := turns.EntryAngle(cell.AngleFrom)
		if angle != turns.EntryMain && angle != turns.EntrySharp && angle != turns.EntryShallow {
			return fmt.Errorf("fitted model %s: unknown angle_from %q", name, cell.AngleFrom)
		}
		if cell.P < 0 || cell.P > 1 {
			return fmt.Errorf("fitted model %s: probability %v out of [0,1]", name, cell.P)
		}
		key := predict.ModelKey{EntryAngle: angle, SharpIsLeft: cell.SharpIsLeft}
		if _, dup := dst[key]; dup {
			return fmt.Errorf("fitted model %s: duplicate cell angle_from=%s sharp_is_left=%t", name, angle, cell.SharpIsLeft)
		}
		dst[key] = cell.P
	}
	return nil
}

// ReadFittedModelFile is the path-based convenience for the CLI.
func ReadFittedModelFile(path string) (predict.FittedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return predict.FittedModel{}, err
	}
	defer f.Close()
	return ReadFittedModel(f)
}
