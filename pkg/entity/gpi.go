package entity

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/coolbeans/assockit/pkg/association"
	"github.com/coolbeans/assockit/pkg/curie"
)

// ErrMalformedLine is returned for GPI lines that do not fit the declared layout.
var ErrMalformedLine = errors.New("malformed gpi line")

// Supported GPI versions.
const (
	GPIVersion12 = "1.2"
	GPIVersion20 = "2.0"
)

var gpiVersionPattern = regexp.MustCompile(`^!\s*gpi-version:\s*(\d+\.\d+)`)

// gpiLayout describes the column positions of one GPI version.
type gpiLayout struct {
	minColumns int
	maxColumns int
	combinedID bool
	symbol     int
	name       int
	synonyms   int
	objectType int
	taxon      int
}

var gpiLayouts = map[string]gpiLayout{
	GPIVersion12: {minColumns: 7, maxColumns: 10, symbol: 2, name: 3, synonyms: 4, objectType: 5, taxon: 6},
	GPIVersion20: {minColumns: 6, maxColumns: 11, combinedID: true, symbol: 1, name: 2, synonyms: 3, objectType: 4, taxon: 5},
}

// Read parses GPI content into a registry. The version is taken from the
// "!gpi-version:" header and defaults to 1.2.
func Read(reader io.Reader, logger *slog.Logger) (*Registry, error) {
	registry := NewRegistry()
	version := GPIVersion12
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.HasPrefix(line, "!") {
			if match := gpiVersionPattern.FindStringSubmatch(line); match != nil {
				if _, ok := gpiLayouts[match[1]]; ok {
					version = match[1]
				} else {
					logger.Warn("unsupported GPI version, keeping previous layout", "version", match[1], "layout", version)
				}
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		subjects, err := ParseLine(line, version)
		if err != nil {
			logger.Warn("skipping malformed GPI line", "line", lineNumber, "error", err)
			continue
		}
		for _, subject := range subjects {
			registry.Add(subject)
		}
	}
	if err := scanner.Err(); err != nil {
		return NewRegistry(), fmt.Errorf("reading gpi: %w", err)
	}
	return registry, nil
}

// ParseLine converts one GPI data line into subjects.
func ParseLine(line string, version string) ([]*association.Subject, error) {
	layout, ok := gpiLayouts[version]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrMalformedLine, version)
	}

	columns := strings.Split(line, "\t")
	if len(columns) < layout.minColumns || len(columns) > layout.maxColumns {
		return nil, fmt.Errorf("%w: expected %d-%d columns, got %d",
			ErrMalformedLine, layout.minColumns, layout.maxColumns, len(columns))
	}
	for len(columns) < layout.maxColumns {
		columns = append(columns, "")
	}

	var rawID string
	if layout.combinedID {
		rawID = columns[0]
	} else {
		if columns[0] == "" || columns[1] == "" {
			return nil, fmt.Errorf("%w: empty DB or DB_Object_ID", ErrMalformedLine)
		}
		rawID = columns[0] + ":" + columns[1]
	}
	id, err := curie.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}

	taxonField, _, _ := strings.Cut(columns[layout.taxon], "|")
	taxon, err := association.ParseTaxon(taxonField)
	if err != nil {
		return nil, fmt.Errorf("%w: taxon: %w", ErrMalformedLine, err)
	}

	subject := &association.Subject{
		ID:       id,
		Label:    columns[layout.symbol],
		FullName: columns[layout.name],
		Synonyms: splitPipe(columns[layout.synonyms]),
		Type:     columns[layout.objectType],
		Taxon:    taxon,
	}
	return []*association.Subject{subject}, nil
}

func splitPipe(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var parts []string
	for _, part := range strings.Split(value, "|") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
