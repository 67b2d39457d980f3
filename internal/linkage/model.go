package linkage

import (
	"math"
	"math/rand"
)

// minProbability floors m and u so a level never yields an infinite weight.
const minProbability = 1e-12

// Model holds the fitted Fellegi-Sunter parameters: Lambda is the share of
// blocked pairs that are matches, M[k][l] and U[k][l] the probability of
// level l on comparison k among matches and non-matches.
type Model struct {
	Lambda float64
	M      [][]float64
	U      [][]float64

	Iterations int
	Converged  bool
	Delta      float64
}

func newModel(cfg *Config) *Model {
	m := &Model{
		Lambda: cfg.MatchPrior,
		M:      make([][]float64, len(cfg.Comparisons)),
		U:      make([][]float64, len(cfg.Comparisons)),
	}
	for k, c := range cfg.Comparisons {
		m.M[k] = append([]float64(nil), c.M...)
		m.U[k] = append([]float64(nil), c.U...)
	}
	return m
}

// estimateU measures level frequencies over random row pairs, which are
// almost all non-matches. Small tables use every pair; larger ones draw
// sampleSize pairs from a generator seeded with seed. Counts are smoothed
// toward the configured u with weight pseudo-observations.
func (m *Model) estimateU(cols columns, cmps []Comparison, n, sampleSize int, seed int64, weight float64) {
	if n < 2 {
		return
	}
	counts := make([][]float64, len(cmps))
	totals := make([]float64, len(cmps))
	for k := range cmps {
		counts[k] = make([]float64, cmps[k].Levels())
	}
	visit := func(i, j int) {
		for k := range cmps {
			l := cmps[k].Level(cols[k][i], cols[k][j])
			if l == Null {
				continue
			}
			counts[k][l]++
			totals[k]++
		}
	}

	if all := int64(n) * int64(n-1) / 2; all <= int64(sampleSize) {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				visit(i, j)
			}
		}
	} else {
		rng := rand.New(rand.NewSource(seed))
		for s := 0; s < sampleSize; s++ {
			i := rng.Intn(n)
			j := rng.Intn(n - 1)
			if j >= i {
				j++
			}
			visit(i, j)
		}
	}

	for k := range cmps {
		for l := range counts[k] {
			m.U[k][l] = (counts[k][l] + weight*cmps[k].U[l]) / (totals[k] + weight)
		}
	}
}

// fit runs EM over the comparison vectors of the blocked pairs. Every
// M-step is smoothed toward the configured priors; comparisons with FixM
// keep their configured m.
func (m *Model) fit(gammas [][]int8, cfg *Config) {
	cmps := cfg.Comparisons
	w := cfg.PriorWeight
	post := make([]float64, len(gammas))
	for it := 1; it <= cfg.MaxIterations; it++ {
		for p, g := range gammas {
			post[p] = Probability(m.MatchWeight(g, nil))
		}

		sum := 0.0
		counts := make([][]float64, len(cmps))
		totals := make([]float64, len(cmps))
		for k := range cmps {
			counts[k] = make([]float64, len(m.M[k]))
		}
		for p, g := range gammas {
			sum += post[p]
			for k, l := range g {
				if l == Null {
					continue
				}
				counts[k][l] += post[p]
				totals[k] += post[p]
			}
		}

		lambda := (sum + w*cfg.MatchPrior) / (float64(len(gammas)) + w)
		delta := math.Abs(lambda - m.Lambda)
		m.Lambda = lambda
		for k, c := range cmps {
			if c.FixM {
				continue
			}
			for l := range m.M[k] {
				v := (counts[k][l] + w*c.M[l]) / (totals[k] + w)
				delta = math.Max(delta, math.Abs(v-m.M[k][l]))
				m.M[k][l] = v
			}
		}

		m.Iterations, m.Delta = it, delta
		if delta < cfg.EMConvergence {
			m.Converged = true
			return
		}
	}
}

// MatchWeight returns the log2 posterior odds of a match for one comparison
// vector. uExact, when non-nil, may replace the u of an exact agreement on
// comparison k; it returns 0 to keep the fitted value.
func (m *Model) MatchWeight(g []int8, uExact func(k int) float64) float64 {
	w := math.Log2(m.Lambda / (1 - m.Lambda))
	for k, l := range g {
		if l == Null {
			continue
		}
		u := m.U[k][l]
		if l == 0 && uExact != nil {
			if v := uExact(k); v > 0 {
				u = v
			}
		}
		w += math.Log2(math.Max(m.M[k][l], minProbability) / math.Max(u, minProbability))
	}
	return w
}

// Probability converts a log2 match weight to a posterior probability.
func Probability(weight float64) float64 {
	return 1 / (1 + math.Exp2(-weight))
}

// termFrequencies counts values per comparison for the comparisons that
// adjust exact agreement by frequency.
type termFrequencies struct {
	counts []map[string]int
	n      int
}

func newTermFrequencies(cols columns, cmps []Comparison) *termFrequencies {
	tf := &termFrequencies{counts: make([]map[string]int, len(cmps))}
	for k, c := range cmps {
		if !c.TermFrequency {
			continue
		}
		counts := make(map[string]int)
		for _, v := range cols[k] {
			if v != "" {
				counts[v]++
			}
		}
		tf.counts[k] = counts
		if len(cols[k]) > tf.n {
			tf.n = len(cols[k])
		}
	}
	return tf
}

// uExact returns the frequency-adjusted u for an exact agreement on row i,
// smoothed toward the fitted u so small tables are not dominated by it.
// Common values get a larger u and so a smaller weight.
func (tf *termFrequencies) uExact(m *Model, cols columns, weight float64, i int) func(k int) float64 {
	return func(k int) float64 {
		counts := tf.counts[k]
		if counts == nil {
			return 0
		}
		return (float64(counts[cols[k][i]]) + weight*m.U[k][0]) / (float64(tf.n) + weight)
	}
}
