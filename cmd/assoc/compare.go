package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/assockit/pkg/assocparser"
	"github.com/coolbeans/assockit/pkg/compare"
	"github.com/coolbeans/assockit/pkg/metrics"
	"github.com/coolbeans/assockit/pkg/report"
	"github.com/coolbeans/assockit/pkg/source"
	"github.com/coolbeans/assockit/pkg/store"
)

func compareCmd() *cobra.Command {
	var file1, file2 string
	var output string
	var countBy []string
	var excludeDetails bool
	var gpiFiles []string
	var configPath string
	var metricsFile string
	var dsn string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two annotation files",
		Long: `Compare the associations of file1 against file2.

Every association of file1 is scored against all associations of file2 and
classified as an exact match, a close match or unmatched. The comparison is
one-directional: swapping the files can change the tallies.

Outputs:
  <output>_compare_report    line-by-line DIFF SUMMARY (unless --exclude-details)
  <output>_group_by_report   per-column value counts (with --count-by)

Example:
  assoc compare --file1 mgi.gaf --file2 mgi.gpad --output mgi
  assoc compare --file1 a.gpad --file2 b.gpad --output ab --count-by Evidence_type --count-by Relation`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			date := time.Now().Format("2006-01-02")

			config, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			entityReport := report.New()
			registry := loadRegistry(config, gpiFiles, entityReport)
			if entityReport.HasErrors() {
				logger.Warn("some GPI files could not be read", "errors", entityReport.Count(report.LevelError))
			}

			opener := source.NewOpener(source.S3ConfigFromEnv())
			var reference, candidate *parsedFile

			// Each file gets its own parser and report; the registry is only read.
			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				parsed, err := parseFile(groupCtx, opener, file1, config, registry)
				reference = parsed
				return err
			})
			group.Go(func() error {
				parsed, err := parseFile(groupCtx, opener, file2, config, registry)
				candidate = parsed
				return err
			})
			if err := group.Wait(); err != nil {
				return err
			}

			if len(countBy) > 0 {
				groupReport, err := buildGroupReport(ctx, opener, date, countBy, reference, candidate)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), groupReport)
				if err := writeReport(output+"_group_by_report", groupReport); err != nil {
					return err
				}
			}

			if excludeDetails {
				return nil
			}

			result := compare.Compare(reference.Collection.Associations, candidate.Collection.Associations)
			fmt.Fprint(cmd.OutOrStdout(), result.Summary(date))
			if err := writeReport(output+"_compare_report", result.ToMarkdown(date)); err != nil {
				return err
			}

			if metricsFile != "" {
				collectors := metrics.New()
				collectors.ObserveCollection(reference.Dataset, reference.Collection, reference.Elapsed)
				collectors.ObserveCollection(candidate.Dataset, candidate.Collection, candidate.Elapsed)
				collectors.ObserveComparison(result)
				if err := collectors.WriteTextfile(metricsFile); err != nil {
					return err
				}
			}

			if dsn != "" {
				id, err := saveComparison(ctx, dsn, reference, candidate, result)
				if err != nil {
					return err
				}
				logger.Info("stored comparison run", "id", id.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file1, "file1", "", "Reference annotation file (required)")
	cmd.Flags().StringVar(&file2, "file2", "", "Candidate annotation file (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "assoc", "Prefix for report files")
	cmd.Flags().StringSliceVar(&countBy, "count-by", nil, "Columns to group and count rows by")
	cmd.Flags().BoolVar(&excludeDetails, "exclude-details", false, "Skip the line-by-line comparison")
	cmd.Flags().StringSliceVar(&gpiFiles, "gpi", nil, "GPI files describing annotation subjects")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML parser configuration")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&dsn, "db", "", "Record the comparison run (sqlite path or postgres:// DSN)")
	_ = cmd.MarkFlagRequired("file1")
	_ = cmd.MarkFlagRequired("file2")

	return cmd
}

// buildGroupReport re-reads both files as raw tables and counts rows per
// value of each requested column.
func buildGroupReport(ctx context.Context, opener *source.Opener, date string, columns []string, files ...*parsedFile) (string, error) {
	groups := make([]compare.FileGroups, 0, len(files))
	for _, file := range files {
		table, err := loadTable(ctx, opener, file)
		if err != nil {
			return "", err
		}
		groupings, err := compare.GroupBy(table, columns)
		if err != nil {
			return "", fmt.Errorf("grouping %s: %w", file.URI, err)
		}
		groups = append(groups, compare.FileGroups{
			Filename:  file.URI,
			TotalRows: len(table.Rows),
			Groupings: groupings,
		})
	}
	return compare.GroupReport(date, columns, groups), nil
}

func loadTable(ctx context.Context, opener *source.Opener, file *parsedFile) (*compare.Table, error) {
	reader, err := opener.Open(ctx, file.URI)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	format := file.Collection.Declaration.Format
	if format == "" {
		format = assocparser.FormatGPAD
	}
	return compare.LoadTable(reader, format, nil)
}

func saveComparison(ctx context.Context, dsn string, reference, candidate *parsedFile, result *compare.Result) (uuid.UUID, error) {
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return uuid.Nil, err
	}
	defer db.Close()

	return db.SaveComparison(ctx, store.ComparisonRun{
		ReferenceName: reference.Dataset,
		CandidateName: candidate.Dataset,
		Processed:     result.Processed,
		Exact:         result.Exact,
		Close:         result.Close,
		Unmatched:     result.Unmatched,
	})
}

func writeReport(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	logger.Info("wrote report", "path", path)
	return nil
}
