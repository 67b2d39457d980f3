package linkage

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cfdb/internal/normalize"
	"github.com/cfdb/internal/table"
)

// Null marks a comparison with a null on either side. It carries no
// evidence either way.
const Null int8 = -1

// chunkSize is the number of pairs one worker compares at a time.
const chunkSize = 1024

// Level returns the agreement level of a and b under c.
func (c *Comparison) Level(a, b string) int8 {
	if a == "" || b == "" {
		return Null
	}
	if a == b {
		return 0
	}
	next := int8(1)
	if c.Nicknames {
		if normalize.NicknameMatch(a, b) {
			return next
		}
		next++
	}
	switch c.Method {
	case MethodJaroWinkler, MethodJaccard:
		sim := JaroWinkler(a, b)
		if c.Method == MethodJaccard {
			sim = JaccardSimilarity(a, b)
		}
		for k, th := range c.Thresholds {
			if sim >= th {
				return next + int8(k)
			}
		}
		return next + int8(len(c.Thresholds))
	case MethodLevenshtein:
		d := float64(LevenshteinDistance(a, b))
		for k, th := range c.Thresholds {
			if d <= th {
				return next + int8(k)
			}
		}
		return next + int8(len(c.Thresholds))
	}
	return next
}

// columns holds the comparison column values of every row, trimmed, with
// null as "".
type columns [][]string

func extractColumns(t *table.Table, cmps []Comparison) columns {
	out := make(columns, len(cmps))
	for k, c := range cmps {
		vals := make([]string, t.Len())
		for i := range t.Rows {
			s, _ := t.String(i, c.Column)
			vals[i] = strings.TrimSpace(s)
		}
		out[k] = vals
	}
	return out
}

// vector compares rows i and j on every comparison.
func (cols columns) vector(cmps []Comparison, i, j int) []int8 {
	g := make([]int8, len(cmps))
	for k := range cmps {
		g[k] = cmps[k].Level(cols[k][i], cols[k][j])
	}
	return g
}

// compareAll computes the comparison vector of every pair, in parallel
// chunks. The result is indexed like pairs and independent of workers.
func compareAll(ctx context.Context, pairs []pair, cols columns, cmps []Comparison, workers int) ([][]int8, error) {
	gammas := make([][]int8, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for start := 0; start < len(pairs); start += chunkSize {
		start, end := start, min(start+chunkSize, len(pairs))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for p := start; p < end; p++ {
				gammas[p] = cols.vector(cmps, pairs[p].A, pairs[p].B)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return gammas, nil
}
