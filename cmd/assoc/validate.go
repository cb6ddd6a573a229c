package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coolbeans/assockit/pkg/metrics"
	"github.com/coolbeans/assockit/pkg/report"
	"github.com/coolbeans/assockit/pkg/source"
	"github.com/coolbeans/assockit/pkg/store"
)

// validateOptions holds the flags shared by validate and watch.
type validateOptions struct {
	gpiFiles    []string
	configPath  string
	format      string
	metricsFile string
	dsn         string
}

func (o *validateOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.gpiFiles, "gpi", nil, "GPI files describing annotation subjects")
	cmd.Flags().StringVar(&o.configPath, "config", "", "YAML parser configuration")
	cmd.Flags().StringVar(&o.format, "format", "md", "Report format: md, json")
	cmd.Flags().StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&o.dsn, "db", "", "Store parsed associations (sqlite path or postgres:// DSN)")
}

func validateCmd() *cobra.Command {
	options := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Parse and validate a GAF or GPAD file",
		Long: `Parse a GAF or GPAD file and print a report of every problem found.

FILE may be a local path or an s3://bucket/key URI; .gz inputs are decompressed.

Example:
  assoc validate mgi.gaf
  assoc validate mgi.gpad.gz --gpi mgi.gpi --format json
  assoc validate s3://go-data/mgi.gpad --db annotations.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, options, args[0], cmd.OutOrStdout())
		},
	}
	options.bind(cmd)
	return cmd
}

// runValidate parses one file and writes its report to out.
func runValidate(cmd *cobra.Command, options *validateOptions, uri string, out io.Writer) error {
	ctx := cmd.Context()

	config, err := loadConfig(options.configPath)
	if err != nil {
		return err
	}
	entityReport := report.New()
	registry := loadRegistry(config, options.gpiFiles, entityReport)

	parsed, err := parseFile(ctx, source.NewOpener(source.S3ConfigFromEnv()), uri, config, registry)
	if err != nil {
		return err
	}
	rep := parsed.Collection.Report
	rep.Merge(entityReport)

	switch options.format {
	case "md", "markdown":
		fmt.Fprint(out, rep.ToMarkdown(fmt.Sprintf("%s (%s)", uri, parsed.Collection.Declaration)))
	case "json":
		data, err := json.MarshalIndent(rep.ToStructured(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprintln(out, string(data))
	default:
		return fmt.Errorf("unknown format: %s (use md or json)", options.format)
	}

	if options.metricsFile != "" {
		collectors := metrics.New()
		collectors.ObserveCollection(parsed.Dataset, parsed.Collection, parsed.Elapsed)
		if err := collectors.WriteTextfile(options.metricsFile); err != nil {
			return err
		}
	}

	if options.dsn != "" {
		db, err := store.Open(ctx, options.dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveAssociations(ctx, parsed.Dataset, parsed.Collection.Associations); err != nil {
			return err
		}
		logger.Info("stored associations", "set", parsed.Dataset, "count", len(parsed.Collection.Associations))
	}

	logger.Debug("validation finished", "errors", rep.Count(report.LevelError), "warnings", rep.Count(report.LevelWarning))
	return nil
}
