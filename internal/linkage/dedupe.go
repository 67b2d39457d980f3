package linkage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cfdb/internal/debug"
	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/metrics"
	"github.com/cfdb/internal/table"
)

// Options carries the runtime collaborators of a linkage run.
type Options struct {
	// Workers bounds parallel comparison; 0 means unbounded.
	Workers int
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Debug   bool
}

// ScoredPair is one compared candidate pair; A < B.
type ScoredPair struct {
	A           string
	B           string
	Rule        string
	Weight      float64
	Probability float64
}

// Stats summarizes one linkage run.
type Stats struct {
	Rows            int
	ExactDuplicates int
	CandidatePairs  int
	MatchedPairs    int
	// Clusters counts clusters with more than one input row.
	Clusters   int
	MergedRows int
	Iterations int
	Converged  bool
	Lambda     float64
	Oversized  []OversizedBlock
}

// Result is the deduplicated table plus everything needed to re-key
// references to it.
type Result struct {
	Table *table.Table
	// Mapping sends every id of a multi-row cluster, the canonical one
	// included, to the canonical id. Singletons are absent.
	Mapping  map[string]string
	Pairs    []ScoredPair
	Model    *Model
	Stats    Stats
	Warnings []error
}

// Deduplicate clusters the rows of t that refer to the same entity and
// returns one row per cluster. Every row needs a unique id. Rows are
// processed in id order, so any permutation of the same rows gives the same
// clusters and canonical ids.
func Deduplicate(ctx context.Context, t *table.Table, cfg *Config, opts Options) (*Result, error) {
	logger := debug.OrNop(opts.Logger)
	debug.DebugHeader(logger, opts.Debug)
	defer debug.DebugFooter(logger, opts.Debug)

	if cfg == nil {
		return nil, &errs.ConfigurationError{Kind: "linkage table", Name: t.Name}
	}
	if err := cfg.Validate(t.Schema); err != nil {
		return nil, err
	}
	name := cfg.Table
	if name == "" {
		name = t.Name
	}
	defer debug.DebugTiming(logger, opts.Debug, "deduplicate "+name)()

	rows, err := sortByID(t, cfg.IDColumn)
	if err != nil {
		return nil, err
	}
	reps, members := exactDuplicates(rows, cfg.IDColumn)
	debug.DebugOutput(logger, opts.Debug, "%s: %d rows, %d after exact duplicates", name, rows.Len(), reps.Len())

	pairs, oversized := block(reps, cfg.BlockingRules, cfg.MaxBlockSize)
	for _, o := range oversized {
		logger.Warn("skipped oversized block",
			zap.String("table", name),
			zap.String("rule", o.Rule),
			zap.String("key", o.Key),
			zap.Int("size", o.Size))
	}

	cols := extractColumns(reps, cfg.Comparisons)
	gammas, err := compareAll(ctx, pairs, cols, cfg.Comparisons, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("comparing %s pairs: %w", name, err)
	}

	model := newModel(cfg)
	model.estimateU(cols, cfg.Comparisons, reps.Len(), cfg.USampleSize, cfg.Seed, cfg.PriorWeight)
	model.fit(gammas, cfg)
	debug.DebugOutput(logger, opts.Debug, "%s: EM lambda=%.4f iterations=%d delta=%.3g",
		name, model.Lambda, model.Iterations, model.Delta)

	var warnings []error
	if !model.Converged {
		w := &errs.ConvergenceWarning{
			Table:      name,
			Iterations: model.Iterations,
			Delta:      model.Delta,
			Tolerance:  cfg.EMConvergence,
		}
		logger.Warn(w.Error())
		warnings = append(warnings, w)
	}

	ids := reps.Column(cfg.IDColumn)
	tf := newTermFrequencies(cols, cfg.Comparisons)
	uf := newUnionFind(reps.Len())
	scored := make([]ScoredPair, len(pairs))
	matched := 0
	for p, pr := range pairs {
		weight := model.MatchWeight(gammas[p], tf.uExact(model, cols, cfg.PriorWeight, pr.A))
		prob := Probability(weight)
		scored[p] = ScoredPair{
			A:           table.Format(ids[pr.A]),
			B:           table.Format(ids[pr.B]),
			Rule:        cfg.BlockingRules[pr.Rule].Name,
			Weight:      weight,
			Probability: prob,
		}
		if prob >= cfg.MatchThreshold {
			uf.union(pr.A, pr.B)
			matched++
		}
	}

	out, mapping, clusters := collapse(reps, members, uf)
	res := &Result{
		Table:    out,
		Mapping:  mapping,
		Pairs:    scored,
		Model:    model,
		Warnings: warnings,
		Stats: Stats{
			Rows:            t.Len(),
			ExactDuplicates: rows.Len() - reps.Len(),
			CandidatePairs:  len(pairs),
			MatchedPairs:    matched,
			Clusters:        clusters,
			MergedRows:      t.Len() - out.Len(),
			Iterations:      model.Iterations,
			Converged:       model.Converged,
			Lambda:          model.Lambda,
			Oversized:       oversized,
		},
	}

	opts.Metrics.Linkage(name, len(pairs), clusters, res.Stats.MergedRows, model.Iterations)
	logger.Info("linkage complete",
		zap.String("table", name),
		zap.Int("rows", res.Stats.Rows),
		zap.Int("exact_duplicates", res.Stats.ExactDuplicates),
		zap.Int("candidate_pairs", len(pairs)),
		zap.Int("matched_pairs", matched),
		zap.Int("clusters", clusters),
		zap.Int("merged_rows", res.Stats.MergedRows))
	return res, nil
}

// sortByID returns a copy of t sorted by id. Null and repeated ids are
// errors.
func sortByID(t *table.Table, idColumn string) (*table.Table, error) {
	j := t.Schema.Index(idColumn)
	out := t.Clone()
	seen := make(map[string]bool, len(out.Rows))
	for i, r := range out.Rows {
		id := table.Format(r[j])
		if id == "" {
			return nil, fmt.Errorf("table %s: row %d has no %s", t.Name, i+1, idColumn)
		}
		if seen[id] {
			return nil, fmt.Errorf("table %s: duplicate %s %q", t.Name, idColumn, id)
		}
		seen[id] = true
	}
	sort.SliceStable(out.Rows, func(a, b int) bool {
		return table.Format(out.Rows[a][j]) < table.Format(out.Rows[b][j])
	})
	return out, nil
}

// exactDuplicates keeps the first (smallest id) row of every group of rows
// equal on all non-id columns. members[i] lists the ids folded into
// representative i, its own id first.
func exactDuplicates(rows *table.Table, idColumn string) (*table.Table, [][]string) {
	j := rows.Schema.Index(idColumn)
	reps := table.New(rows.Name, rows.Schema)
	var members [][]string
	index := make(map[string]int, len(rows.Rows))
	var b strings.Builder
	for _, r := range rows.Rows {
		b.Reset()
		for c, v := range r {
			if c == j {
				continue
			}
			b.WriteString(table.Format(v))
			b.WriteString(keySep)
		}
		id := table.Format(r[j])
		if pos, ok := index[b.String()]; ok {
			members[pos] = append(members[pos], id)
			continue
		}
		index[b.String()] = len(reps.Rows)
		reps.Rows = append(reps.Rows, r)
		members = append(members, []string{id})
	}
	return reps, members
}

// collapse emits the root row of every cluster and maps the ids of
// multi-row clusters to the root's id.
func collapse(reps *table.Table, members [][]string, uf *unionFind) (*table.Table, map[string]string, int) {
	size := make([]int, reps.Len())
	for i := range reps.Rows {
		size[uf.find(i)] += len(members[i])
	}

	out := table.New(reps.Name, reps.Schema)
	mapping := make(map[string]string)
	clusters := 0
	for i, r := range reps.Rows {
		root := uf.find(i)
		if root == i {
			out.Rows = append(out.Rows, r)
			if size[i] > 1 {
				clusters++
			}
		}
		if size[root] < 2 {
			continue
		}
		canonical := members[root][0]
		for _, id := range members[i] {
			mapping[id] = canonical
		}
	}
	return out, mapping, clusters
}
