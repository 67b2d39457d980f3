package linkage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateThresholds(t *testing.T) {
	scored := []ScoredPair{
		{A: "a", B: "b", Probability: 0.99},
		{A: "a", B: "c", Probability: 0.80},
		{A: "d", B: "e", Probability: 0.60},
		{A: "f", B: "g", Probability: 0.10},
	}
	labels := []LabeledPair{
		{A: "b", B: "a", Match: true},
		{A: "a", B: "c", Match: false},
		{A: "d", B: "e", Match: true},
		{A: "f", B: "g", Match: false},
		{A: "x", B: "y", Match: true},
	}

	results := EvaluateThresholds(scored, labels, []float64{0.5, 0.7, 0.9})
	require.Len(t, results, 3)

	tests := []struct {
		threshold      float64
		tp, fp, tn, fn int
	}{
		{0.5, 2, 1, 1, 1},
		{0.7, 1, 1, 1, 2},
		{0.9, 1, 0, 2, 2},
	}
	for i, tt := range tests {
		r := results[i]
		assert.Equal(t, tt.threshold, r.Threshold)
		assert.Equal(t, tt.tp, r.TruePositives, "tp at %v", tt.threshold)
		assert.Equal(t, tt.fp, r.FalsePositives, "fp at %v", tt.threshold)
		assert.Equal(t, tt.tn, r.TrueNegatives, "tn at %v", tt.threshold)
		assert.Equal(t, tt.fn, r.FalseNegatives, "fn at %v", tt.threshold)
	}
	assert.InDelta(t, 2.0/3.0, results[0].Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, results[0].Recall, 1e-9)
	assert.InDelta(t, 1.0, results[2].Precision, 1e-9)
}

func TestOptimalThreshold(t *testing.T) {
	assert.Nil(t, OptimalThreshold(nil, 0))

	results := []*TuningResult{
		{Threshold: 0.5, Precision: 0.70, F1Score: 0.80},
		{Threshold: 0.7, Precision: 0.90, F1Score: 0.78},
		{Threshold: 0.9, Precision: 0.97, F1Score: 0.60},
	}
	assert.Equal(t, 0.5, OptimalThreshold(results, 0).Threshold)
	assert.Equal(t, 0.7, OptimalThreshold(results, 0.85).Threshold)
	// nothing reaches the precision floor
	assert.Equal(t, 0.5, OptimalThreshold(results, 0.99).Threshold)
}

func TestReadLabels(t *testing.T) {
	labels, err := ReadLabels(strings.NewReader("match,id_a,id_b\nyes,a,b\n0,c,d\ntrue, e ,f\n"))
	require.NoError(t, err)
	assert.Equal(t, []LabeledPair{
		{A: "a", B: "b", Match: true},
		{A: "c", B: "d", Match: false},
		{A: "e", B: "f", Match: true},
	}, labels)

	_, err = ReadLabels(strings.NewReader("id_a,id_b\na,b\n"))
	assert.ErrorContains(t, err, "no match column")

	_, err = ReadLabels(strings.NewReader("id_a,id_b,match\na,b,maybe\n"))
	assert.ErrorContains(t, err, "label line 2")
}
