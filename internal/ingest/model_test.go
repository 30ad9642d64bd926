package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/predict"
	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/turns"
)

func TestReadFittedModel(t *testing.T) {
	t.Parallel()

	t.Run("valid model", func(t *testing.T) {
		t.Parallel()
		model, err := ReadFittedModel(strings.NewReader(`{
			"p_uturn": [
				{"angle_from": "main", "sharp_is_left": true, "p": 0.2},
				{"angle_from": "sharp", "sharp_is_left": false, "p": 0.1}
			],
			"p_sharp_given_not_u": [
				{"angle_from": "main", "sharp_is_left": true, "p": 0.3}
			]
		}`))
		require.NoError(t, err)

		key := predict.ModelKey{EntryAngle: turns.EntryMain, SharpIsLeft: true}
		assert.Equal(t, 0.2, model.PUTurn[key])
		assert.Equal(t, 0.3, model.PSharpGivenNotU[key])
		assert.Len(t, model.PUTurn, 2)
	})

	t.Run("unknown angle", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFittedModel(strings.NewReader(`{"p_uturn": [{"angle_from": "oblique", "p": 0.2}]}`))
		assert.ErrorContains(t, err, "unknown angle_from")
	})

	t.Run("probability out of range", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFittedModel(strings.NewReader(`{"p_uturn": [{"angle_from": "main", "p": 1.2}]}`))
		assert.ErrorContains(t, err, "out of [0,1]")
	})

	t.Run("duplicate cell", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFittedModel(strings.NewReader(`{"p_uturn": [
			{"angle_from": "main", "sharp_is_left": true, "p": 0.2},
			{"angle_from": "main", "sharp_is_left": true, "p": 0.4}
		]}`))
		assert.ErrorContains(t, err, "duplicate cell")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFittedModel(strings.NewReader(`{"p_uturn": [`))
		assert.Error(t, err)
	})
}
