package pipeline

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cfdb/internal/audit"
	"github.com/cfdb/internal/dataset"
	"github.com/cfdb/internal/debug"
	"github.com/cfdb/internal/identity"
	"github.com/cfdb/internal/linkage"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

// LinkedTables are the entity tables deduplicated by Run, in order.
var LinkedTables = []schema.TableType{schema.Individuals, schema.Organizations}

// referenceColumns are the foreign keys rewritten to canonical ids.
// election_results.candidate_id is never filled by a source and is not
// re-keyed.
var referenceColumns = map[schema.TableType][]string{
	schema.Transactions: {schema.ColDonorID, schema.ColRecipientID},
}

// Summary is the outcome of an end-to-end run.
type Summary struct {
	Tables  schema.TableSet
	Report  *audit.Report
	Linkage map[schema.TableType]*linkage.Result
	// Dangling counts transaction references that match no entity row.
	Dangling map[string]int
	Warnings []error
}

// Run standardizes the selected states, assigns ids, deduplicates the
// entity tables, re-keys references to canonical ids and saves the tables
// plus id_map to opts.Output.
//
// Source failures do not stop the run unless FailFast is set; they are
// returned as an aggregate error alongside a complete Summary.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	logger := debug.OrNop(opts.Logger)
	defer debug.DebugTiming(logger, opts.Debug, "run")()

	tables, report, sourceErr := StandardizeStates(ctx, opts)
	if tables == nil {
		return nil, sourceErr
	}
	report.Log(logger)

	if err := assignIDs(tables); err != nil {
		return nil, err
	}

	summary, err := Link(ctx, tables, opts)
	if err != nil {
		return nil, err
	}
	summary.Report = report
	return summary, sourceErr
}

// Link deduplicates the entity tables of tables, re-keys references to
// canonical ids, writes id_map and saves to opts.Output when set. Every
// row must already carry an id. tables is updated in place. An id_map
// already in tables is carried forward and composed with this run's merges.
func Link(ctx context.Context, tables schema.TableSet, opts Options) (*Summary, error) {
	logger := debug.OrNop(opts.Logger)

	summary := &Summary{
		Tables:   tables,
		Linkage:  make(map[schema.TableType]*linkage.Result, len(LinkedTables)),
		Dangling: make(map[string]int),
	}
	mapping := make(map[string]string)
	prior := linkage.ReadMappings(tables[schema.IDMap])
	idMap := schema.NewTable(schema.IDMap)
	for _, tt := range LinkedTables {
		t, ok := tables[tt]
		if !ok {
			continue
		}
		cfg, err := linkageConfig(tt, opts)
		if err != nil {
			return nil, err
		}
		res, err := linkage.Deduplicate(ctx, t, cfg, linkage.Options{
			Workers: opts.Workers,
			Logger:  logger,
			Metrics: opts.Metrics,
			Debug:   opts.Debug,
		})
		if err != nil {
			return nil, fmt.Errorf("deduplicating %s: %w", tt, err)
		}
		tables[tt] = res.Table
		summary.Linkage[tt] = res
		summary.Warnings = append(summary.Warnings, res.Warnings...)
		for id, canonical := range res.Mapping {
			mapping[id] = canonical
		}
		// earlier links of a saved dataset stay in id_map, moved onto
		// this run's canonical ids
		composed := linkage.ComposeMapping(prior[tt], res.Mapping)
		delete(prior, tt)
		idMap.Rows = append(idMap.Rows, linkage.MappingTable(tt, composed).Rows...)
	}
	for _, tt := range sortedTypes(prior) {
		idMap.Rows = append(idMap.Rows, linkage.MappingTable(tt, prior[tt]).Rows...)
	}
	tables[schema.IDMap] = idMap

	for tt, columns := range referenceColumns {
		t, ok := tables[tt]
		if !ok {
			continue
		}
		rekeyed, changed := linkage.RekeyColumns(t, columns, mapping)
		tables[tt] = rekeyed
		debug.DebugOutput(logger, opts.Debug, "%s: re-keyed %d references", tt, changed)
	}

	for column, n := range danglingReferences(tables) {
		summary.Dangling[column] = n
		opts.Metrics.Dangling(column, n)
		if n > 0 {
			logger.Warn("dangling references", zap.String("column", column), zap.Int("count", n))
		}
	}

	if err := save(ctx, tables, opts, logger); err != nil {
		return nil, err
	}
	return summary, nil
}

// Standardize runs StandardizeStates, assigns an id to every row and saves
// the tables to opts.Output when set. Deduplication is left to Link.
func Standardize(ctx context.Context, opts Options) (schema.TableSet, *audit.Report, error) {
	logger := debug.OrNop(opts.Logger)

	tables, report, sourceErr := StandardizeStates(ctx, opts)
	if tables == nil {
		return nil, report, sourceErr
	}
	report.Log(logger)
	if err := assignIDs(tables); err != nil {
		return nil, report, err
	}
	if err := save(ctx, tables, opts, logger); err != nil {
		return nil, report, err
	}
	return tables, report, sourceErr
}

func assignIDs(tables schema.TableSet) error {
	for _, tt := range tables.Names() {
		t, err := identity.AssignIDs(tables[tt], schema.IDColumn(tt))
		if err != nil {
			return fmt.Errorf("assigning %s ids: %w", tt, err)
		}
		tables[tt] = t
	}
	return nil
}

func save(ctx context.Context, tables schema.TableSet, opts Options, logger *zap.Logger) error {
	if opts.Output == "" {
		return nil
	}
	format := opts.Format
	if format == "" {
		format = dataset.Feather
	}
	if err := dataset.Save(ctx, tables, opts.Output, format); err != nil {
		return fmt.Errorf("saving to %s: %w", opts.Output, err)
	}
	logger.Info("dataset saved", zap.String("output", opts.Output), zap.String("format", string(format)))
	return nil
}

func linkageConfig(tt schema.TableType, opts Options) (*linkage.Config, error) {
	cfg, ok := opts.Linkage[tt]
	if !ok || cfg == nil {
		var err error
		if cfg, err = linkage.DefaultConfig(tt); err != nil {
			return nil, err
		}
	} else {
		copied := *cfg
		cfg = &copied
	}
	if opts.Threshold > 0 {
		cfg.MatchThreshold = opts.Threshold
	}
	return cfg, nil
}

func sortedTypes(m map[schema.TableType]map[string]string) []schema.TableType {
	out := make([]schema.TableType, 0, len(m))
	for tt := range m {
		out = append(out, tt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// danglingReferences counts transaction donor and recipient ids that match
// no individual or organization.
func danglingReferences(tables schema.TableSet) map[string]int {
	known := make(map[string]bool)
	for _, tt := range LinkedTables {
		t, ok := tables[tt]
		if !ok {
			continue
		}
		for _, v := range t.Column(schema.ColID) {
			known[table.Format(v)] = true
		}
	}
	out := make(map[string]int)
	tx, ok := tables[schema.Transactions]
	if !ok {
		return out
	}
	for _, column := range referenceColumns[schema.Transactions] {
		n := 0
		for _, v := range tx.Column(column) {
			if id := table.Format(v); id != "" && !known[id] {
				n++
			}
		}
		out[column] = n
	}
	return out
}
