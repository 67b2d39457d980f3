package linkage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LabeledPair is a reviewed pair of ids from a validation set.
type LabeledPair struct {
	A     string
	B     string
	Match bool
}

// TuningResult holds the confusion counts of one threshold against the
// labeled pairs.
type TuningResult struct {
	Threshold      float64
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1Score        float64
}

// DefaultThresholds are the posteriors tried by tuning.
var DefaultThresholds = []float64{0.50, 0.55, 0.60, 0.65, 0.70, 0.75, 0.80, 0.85, 0.90, 0.95}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// EvaluateThresholds scores every threshold against labels. A labeled pair
// that was never compared has probability zero: blocking did not propose
// it, so no threshold can match it.
func EvaluateThresholds(scored []ScoredPair, labels []LabeledPair, thresholds []float64) []*TuningResult {
	prob := make(map[[2]string]float64, len(scored))
	for _, p := range scored {
		prob[pairKey(p.A, p.B)] = p.Probability
	}

	results := make([]*TuningResult, 0, len(thresholds))
	for _, th := range thresholds {
		result := &TuningResult{Threshold: th}
		for _, l := range labels {
			predicted := prob[pairKey(l.A, l.B)] >= th
			switch {
			case predicted && l.Match:
				result.TruePositives++
			case predicted:
				result.FalsePositives++
			case l.Match:
				result.FalseNegatives++
			default:
				result.TrueNegatives++
			}
		}

		if result.TruePositives+result.FalsePositives > 0 {
			result.Precision = float64(result.TruePositives) / float64(result.TruePositives+result.FalsePositives)
		}
		if result.TruePositives+result.FalseNegatives > 0 {
			result.Recall = float64(result.TruePositives) / float64(result.TruePositives+result.FalseNegatives)
		}
		if result.Precision+result.Recall > 0 {
			result.F1Score = 2 * (result.Precision * result.Recall) / (result.Precision + result.Recall)
		}
		results = append(results, result)
	}
	return results
}

// OptimalThreshold returns the result with the best F1 among those reaching
// minPrecision, or the best F1 overall when none does. Ties keep the
// earlier threshold.
func OptimalThreshold(results []*TuningResult, minPrecision float64) *TuningResult {
	if len(results) == 0 {
		return nil
	}

	var best *TuningResult
	for _, result := range results {
		if result.Precision >= minPrecision {
			if best == nil || result.F1Score > best.F1Score {
				best = result
			}
		}
	}

	if best == nil {
		for _, result := range results {
			if best == nil || result.F1Score > best.F1Score {
				best = result
			}
		}
	}

	return best
}

// ReadLabels parses a labeled pair file with a header row naming id_a, id_b
// and match. match accepts the usual boolean spellings plus yes/no.
func ReadLabels(r io.Reader) ([]LabeledPair, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read label header: %w", err)
	}
	pos := map[string]int{"id_a": -1, "id_b": -1, "match": -1}
	for i, h := range header {
		if _, ok := pos[strings.ToLower(strings.TrimSpace(h))]; ok {
			pos[strings.ToLower(strings.TrimSpace(h))] = i
		}
	}
	for name, i := range pos {
		if i < 0 {
			return nil, fmt.Errorf("label file has no %s column", name)
		}
	}

	var labels []LabeledPair
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read labels: %w", err)
		}
		match, err := parseLabel(rec[pos["match"]])
		if err != nil {
			return nil, fmt.Errorf("label line %d: %w", line, err)
		}
		labels = append(labels, LabeledPair{
			A:     strings.TrimSpace(rec[pos["id_a"]]),
			B:     strings.TrimSpace(rec[pos["id_b"]]),
			Match: match,
		})
	}
	return labels, nil
}

func parseLabel(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}
