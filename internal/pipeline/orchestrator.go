// Package pipeline drives the registered source standardizers and the
// end-to-end build of the persisted database.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cfdb/internal/audit"
	"github.com/cfdb/internal/dataset"
	"github.com/cfdb/internal/debug"
	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/linkage"
	"github.com/cfdb/internal/metrics"
	"github.com/cfdb/internal/normalize"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/sources"
	"github.com/cfdb/internal/table"
)

// Options configures a standardization or end-to-end run.
type Options struct {
	RawDir string
	// States to standardize; empty means every registered state.
	States []string
	// Registry defaults to the process-wide registry.
	Registry *sources.Registry
	// FailFast stops at the first failing source instead of collecting
	// every failure.
	FailFast    bool
	MaxLossRate float64
	Address     normalize.Parser

	// Linkage overrides the built-in configuration per entity table.
	Linkage map[schema.TableType]*linkage.Config
	// Threshold replaces match_threshold when positive.
	Threshold float64
	Workers   int

	// Output is where Run saves; empty skips saving.
	Output string
	Format dataset.Format

	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Debug   bool
}

func (o Options) registry() *sources.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return sources.DiscoverAndLoad()
}

// selectStates returns the requested states in registration order. Unknown
// states are a ConfigurationError.
func selectStates(reg *sources.Registry, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return reg.States(), nil
	}
	want := make(map[string]bool, len(requested))
	for _, s := range requested {
		if _, ok := reg.Lookup(s); !ok {
			return nil, &errs.ConfigurationError{Kind: "state", Name: s}
		}
		want[strings.ToUpper(strings.TrimSpace(s))] = true
	}
	var out []string
	for _, s := range reg.States() {
		if want[s] {
			out = append(out, s)
		}
	}
	return out, nil
}

// StandardizeStates runs every pipeline of the selected states, one after
// another, and concatenates their output per table type in registration
// order. Every canonical table type is present in the result, empty when no
// source produced it.
//
// A failing source does not stop the others: all failures come back as one
// aggregate error next to the tables of the sources that succeeded. With
// FailFast the first failure is returned at once.
func StandardizeStates(ctx context.Context, opts Options) (schema.TableSet, *audit.Report, error) {
	logger := debug.OrNop(opts.Logger)
	reg := opts.registry()
	states, err := selectStates(reg, opts.States)
	if err != nil {
		return nil, nil, err
	}

	report := audit.NewReport(opts.Metrics, logger)
	env := &sources.Env{
		Report:      report,
		Metrics:     opts.Metrics,
		Logger:      logger,
		Address:     opts.Address,
		MaxLossRate: opts.MaxLossRate,
		Debug:       opts.Debug,
	}

	parts := make(map[schema.TableType][]*table.Table)
	var failures []error
	for _, state := range states {
		pipelines, _ := reg.Lookup(state)
		if len(pipelines) == 0 {
			debug.DebugOutput(logger, opts.Debug, "%s: no pipelines registered", state)
		}
		for _, p := range pipelines {
			if err := ctx.Err(); err != nil {
				return nil, report, err
			}
			out, err := p.Run(ctx, opts.RawDir, env)
			if err != nil {
				if ctx.Err() != nil {
					return nil, report, ctx.Err()
				}
				report.Fail(p.Name, err)
				logger.Error("source failed", zap.String("state", state), zap.String("source", p.Name), zap.Error(err))
				if opts.FailFast {
					return nil, report, err
				}
				failures = append(failures, err)
				continue
			}
			for _, tt := range out.Names() {
				parts[tt] = append(parts[tt], out[tt])
			}
		}
	}

	tables := make(schema.TableSet, len(schema.TableTypes))
	for _, tt := range schema.TableTypes {
		tables[tt] = schema.NewTable(tt)
	}
	for tt, ts := range parts {
		t, err := table.Concat(string(tt), ts...)
		if err != nil {
			return nil, report, fmt.Errorf("failed to combine %s: %w", tt, err)
		}
		tables[tt] = t
	}
	return tables, report, errs.Aggregate(failures)
}
