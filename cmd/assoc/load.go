package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/coolbeans/assockit/pkg/assocparser"
	"github.com/coolbeans/assockit/pkg/entity"
	"github.com/coolbeans/assockit/pkg/report"
	"github.com/coolbeans/assockit/pkg/source"
)

// loadConfig reads the YAML parser configuration, or returns the defaults.
func loadConfig(path string) (*assocparser.Config, error) {
	if path == "" {
		return assocparser.DefaultConfig(), nil
	}
	return assocparser.LoadConfig(path)
}

// loadRegistry merges the GPI files named in the config with those given on
// the command line. Unreadable files are reported and skipped.
func loadRegistry(config *assocparser.Config, gpiFiles []string, rep *report.Report) *entity.Registry {
	registry := entity.NewRegistry()
	paths := append(append([]string{}, config.Entities...), gpiFiles...)
	for _, path := range paths {
		registry.Merge(entity.LoadOrEmpty(path, rep, logger))
	}
	return registry
}

// parsedFile is one parsed annotation source.
type parsedFile struct {
	URI        string
	Dataset    string
	Collection *assocparser.Collection
	Elapsed    time.Duration
}

// parseFile opens and parses a GAF or GPAD source with its own report.
func parseFile(ctx context.Context, opener *source.Opener, uri string, config *assocparser.Config, registry *entity.Registry) (*parsedFile, error) {
	reader, err := opener.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	started := time.Now()
	collection, err := assocparser.Parse(ctx, reader, assocparser.Options{
		Config:   config,
		Report:   report.New(),
		Registry: registry,
		Logger:   logger.With("source", uri),
	})
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", uri, err)
	}

	parsed := &parsedFile{
		URI:        uri,
		Dataset:    datasetName(uri),
		Collection: collection,
		Elapsed:    time.Since(started),
	}
	logger.Info("parsed annotations",
		"source", uri,
		"declaration", collection.Declaration.String(),
		"lines", collection.Report.LineCount(),
		"associations", len(collection.Associations),
		"skipped", collection.Skipped,
		"elapsed", parsed.Elapsed)
	return parsed, nil
}

// datasetName derives a short dataset name such as "mgi" from a source URI.
func datasetName(uri string) string {
	name := filepath.Base(strings.TrimPrefix(uri, "file://"))
	name = strings.TrimSuffix(name, ".gz")
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
