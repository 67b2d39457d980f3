package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cfdb/internal/dataset"
	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/linkage"
	"github.com/cfdb/internal/pipeline"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/sources"
	"github.com/cfdb/internal/web"
)

// createSourcesCmd lists the registered states and their pipelines
func createSourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List registered states and source pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			reg := sources.DiscoverAndLoad()
			for _, state := range reg.States() {
				pipelines, _ := reg.Lookup(state)
				if len(pipelines) == 0 {
					fmt.Fprintf(out, "%-4s (no sources)\n", state)
					continue
				}
				for _, p := range pipelines {
					types := make([]string, len(p.TableTypes))
					for i, tt := range p.TableTypes {
						types[i] = string(tt)
					}
					fmt.Fprintf(out, "%-4s %-16s %-28s %s\n", state, p.Name, p.Dir(a.settings.RawDir), strings.Join(types, ","))
				}
			}
			return nil
		},
	}
}

func createStandardizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "standardize",
		Short: "Standardize raw sources and save them without linkage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options()
			if err != nil {
				return err
			}
			tables, report, err := pipeline.Standardize(cmd.Context(), opts)
			out := cmd.OutOrStdout()
			if report != nil {
				fmt.Fprint(out, report.String())
			}
			if tables != nil {
				printCounts(out, tables)
			}
			return err
		},
	}
}

// createLinkCmd deduplicates a dataset saved by standardize, in place.
func createLinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Deduplicate the entity tables of a saved dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options()
			if err != nil {
				return err
			}
			tables, err := dataset.Load(cmd.Context(), opts.Output, opts.Format)
			if err != nil {
				return err
			}
			summary, err := pipeline.Link(cmd.Context(), dataset.Recoerce(tables), opts)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func createRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Standardize, assign ids, link and save in one pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options()
			if err != nil {
				return err
			}
			summary, err := pipeline.Run(cmd.Context(), opts)
			if summary != nil {
				printSummary(cmd.OutOrStdout(), summary)
			}
			return err
		},
	}
}

// createTuneCmd scores a standardized dataset against reviewed pairs and
// reports precision and recall per threshold.
func createTuneCmd(a *app) *cobra.Command {
	var (
		labelsPath   string
		tableName    string
		minPrecision float64
	)
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Evaluate match thresholds against a labeled pair file",
		Long: `tune deduplicates one entity table of a dataset saved by standardize
and compares the scored pairs with a CSV of reviewed pairs (id_a, id_b,
match). The threshold with the best F1 score among those reaching
--min-precision is reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options()
			if err != nil {
				return err
			}
			tt, err := schema.ParseTableType(tableName)
			if err != nil {
				return err
			}
			if tt != schema.Individuals && tt != schema.Organizations {
				return &errs.ConfigurationError{Kind: "linkage table", Name: tableName}
			}

			f, err := os.Open(labelsPath)
			if err != nil {
				return fmt.Errorf("failed to open labels: %w", err)
			}
			labels, err := linkage.ReadLabels(f)
			f.Close()
			if err != nil {
				return err
			}

			tables, err := dataset.Load(cmd.Context(), opts.Output, opts.Format)
			if err != nil {
				return err
			}
			t, ok := dataset.Recoerce(tables)[tt]
			if !ok {
				return fmt.Errorf("dataset at %s has no %s table", opts.Output, tt)
			}

			cfg := opts.Linkage[tt]
			if cfg == nil {
				if cfg, err = linkage.DefaultConfig(tt); err != nil {
					return err
				}
			}
			res, err := linkage.Deduplicate(cmd.Context(), t, cfg, linkage.Options{
				Workers: opts.Workers,
				Logger:  a.logger,
				Debug:   opts.Debug,
			})
			if err != nil {
				return err
			}

			results := linkage.EvaluateThresholds(res.Pairs, labels, linkage.DefaultThresholds)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %6s %6s %6s %6s %10s %8s %8s\n", "threshold", "tp", "fp", "tn", "fn", "precision", "recall", "f1")
			for _, r := range results {
				fmt.Fprintf(out, "%-10.2f %6d %6d %6d %6d %10.3f %8.3f %8.3f\n",
					r.Threshold, r.TruePositives, r.FalsePositives, r.TrueNegatives, r.FalseNegatives,
					r.Precision, r.Recall, r.F1Score)
			}
			if best := linkage.OptimalThreshold(results, minPrecision); best != nil {
				fmt.Fprintf(out, "optimal threshold: %.2f (f1 %.3f, configured %.2f)\n", best.Threshold, best.F1Score, cfg.MatchThreshold)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&labelsPath, "labels", "", "CSV of labeled pairs with id_a, id_b and match columns")
	cmd.Flags().StringVar(&tableName, "table", string(schema.Individuals), "entity table to tune")
	cmd.Flags().Float64Var(&minPrecision, "min-precision", 0.9, "minimum precision of the reported threshold")
	_ = cmd.MarkFlagRequired("labels")
	return cmd
}

func createServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve record and cluster lookups over a saved dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options()
			if err != nil {
				return err
			}
			tables, err := dataset.Load(cmd.Context(), opts.Output, opts.Format)
			if err != nil {
				return err
			}

			cfg := web.DefaultConfig()
			if host != "" {
				cfg.Server.Host = host
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			a.logger.Info("dataset loaded", zap.String("location", opts.Output), zap.Int("tables", len(tables)))
			return web.NewServer(cfg, dataset.Recoerce(tables), a.metrics, a.logger).Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default CFDB_WEB_HOST or localhost)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default CFDB_WEB_PORT or 8080)")
	return cmd
}

func printCounts(out io.Writer, tables schema.TableSet) {
	for _, tt := range tables.Names() {
		fmt.Fprintf(out, "%-18s %d rows\n", tt, tables[tt].Len())
	}
}

func printSummary(out io.Writer, summary *pipeline.Summary) {
	if summary.Report != nil {
		fmt.Fprint(out, summary.Report.String())
	}
	printCounts(out, summary.Tables)
	for _, tt := range pipeline.LinkedTables {
		res, ok := summary.Linkage[tt]
		if !ok {
			continue
		}
		s := res.Stats
		fmt.Fprintf(out, "%s: %d rows -> %d, %d clusters, %d candidate pairs, %d matched, %d EM iterations\n",
			tt, s.Rows, res.Table.Len(), s.Clusters, s.CandidatePairs, s.MatchedPairs, s.Iterations)
	}
	for _, column := range []string{schema.ColDonorID, schema.ColRecipientID} {
		if n := summary.Dangling[column]; n > 0 {
			fmt.Fprintf(out, "dangling %s: %d\n", column, n)
		}
	}
	for _, w := range summary.Warnings {
		fmt.Fprintf(out, "warning: %v\n", w)
	}
}
