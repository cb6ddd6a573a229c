// Package assocparser parses GAF and GPAD annotation files into typed GO
// associations. Parsing is tolerant: malformed content is recorded in a
// report and the offending line skipped; only a missing version declaration
// or an impossible column layout stops a file.
package assocparser

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coolbeans/assockit/pkg/association"
	"github.com/coolbeans/assockit/pkg/curie"
	"github.com/coolbeans/assockit/pkg/ecomap"
	"github.com/coolbeans/assockit/pkg/entity"
	"github.com/coolbeans/assockit/pkg/relation"
	"github.com/coolbeans/assockit/pkg/report"
)

// Format identifies an annotation file format.
type Format string

const (
	FormatGAF  Format = "gaf"
	FormatGPAD Format = "gpad"
)

// Declaration is a parsed "!<format>-version: <version>" header.
type Declaration struct {
	Format  Format
	Version string
}

// String renders the declaration as it appears in a header.
func (d Declaration) String() string {
	return fmt.Sprintf("%s-version: %s", d.Format, d.Version)
}

// Supported reports whether a parser exists for the declared version.
func (d Declaration) Supported() bool {
	switch d.Format {
	case FormatGAF:
		_, ok := gafLayouts[d.Version]
		return ok
	case FormatGPAD:
		_, ok := gpadLayouts[d.Version]
		return ok
	default:
		return false
	}
}

// Parser converts the lines of one file into associations. A Parser owns its
// report and header list and processes a single file from start to end.
type Parser interface {
	// Declaration returns the format and version this parser reads.
	Declaration() Declaration

	// IsHeader reports whether the line is a '!' comment/header line.
	IsHeader(line string) bool

	// ValidateLine applies the checks shared by every version: column count
	// and non-empty mandatory columns. When valid is false the returned
	// result is a skip and an ERROR has been reported.
	ValidateLine(line string) (fields []string, result association.ParseResult, valid bool)

	// ToAssociation builds an association from a field vector laid out for
	// version. It returns ErrSchemaMismatch only when the vector cannot
	// belong to that version; content problems become report entries.
	ToAssociation(fields []string, version string) (association.ParseResult, error)

	// ParseLine handles headers, validation and conversion of a raw line.
	ParseLine(line string) (association.ParseResult, error)

	// Headers returns header lines seen so far, in order.
	Headers() []string

	// Report returns the report this parser writes to.
	Report() *report.Report
}

// Options carries the collaborators shared by every parser.
type Options struct {
	Config   *Config
	Report   *report.Report
	Registry *entity.Registry
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Config == nil {
		o.Config = DefaultConfig()
	}
	if o.Report == nil {
		o.Report = report.New()
	}
	if o.Registry == nil {
		o.Registry = entity.NewRegistry()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// NewParser selects the concrete parser for a declaration.
func NewParser(declaration Declaration, options Options) (Parser, error) {
	switch declaration.Format {
	case FormatGAF:
		return NewGAFParser(declaration.Version, options)
	case FormatGPAD:
		return NewGPADParser(declaration.Version, options)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrSchemaMismatch, declaration.Format)
	}
}

// columnLayout is the accepted column range of one format version. Lines
// with fewer than columns (but at least minColumns) are padded with empty
// trailing columns.
type columnLayout struct {
	columns    int
	minColumns int
}

// mandatoryColumn names a column that must not be empty.
type mandatoryColumn struct {
	index int
	name  string
}

// baseParser holds the state and helpers shared by the GAF and GPAD parsers.
type baseParser struct {
	declaration Declaration
	layout      columnLayout
	mandatory   []mandatoryColumn

	config    *Config
	report    *report.Report
	registry  *entity.Registry
	logger    *slog.Logger
	relations *relation.Table
	evidence  *ecomap.Mapper

	excludedEvidence map[string]bool
	validTaxa        map[curie.Curie]bool

	headers []string

	// current is the raw line being converted by parseLine.
	current string
}

func newBaseParser(declaration Declaration, layout columnLayout, mandatory []mandatoryColumn, options Options) baseParser {
	options = options.withDefaults()

	excluded := make(map[string]bool, len(options.Config.ExcludeEvidence))
	for _, code := range options.Config.ExcludeEvidence {
		excluded[strings.ToUpper(strings.TrimSpace(code))] = true
	}

	validTaxa := make(map[curie.Curie]bool, len(options.Config.ValidTaxa))
	for _, rawTaxon := range options.Config.ValidTaxa {
		taxon, err := association.ParseTaxon(rawTaxon)
		if err != nil {
			options.Logger.Warn("ignoring invalid taxon in config", "taxon", rawTaxon, "error", err)
			continue
		}
		validTaxa[taxon] = true
	}

	return baseParser{
		declaration:      declaration,
		layout:           layout,
		mandatory:        mandatory,
		config:           options.Config,
		report:           options.Report,
		registry:         options.Registry,
		logger:           options.Logger.With("format", string(declaration.Format), "version", declaration.Version),
		relations:        options.Config.RelationTable(),
		evidence:         options.Config.EvidenceMap(),
		excludedEvidence: excluded,
		validTaxa:        validTaxa,
	}
}

func (p *baseParser) Declaration() Declaration { return p.declaration }

func (p *baseParser) Headers() []string { return p.headers }

func (p *baseParser) Report() *report.Report { return p.report }

func (p *baseParser) IsHeader(line string) bool {
	return strings.HasPrefix(line, "!")
}

func (p *baseParser) ValidateLine(line string) ([]string, association.ParseResult, bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil, association.Skip(line), false
	}

	fields := strings.Split(line, "\t")
	if len(fields) < p.layout.minColumns || len(fields) > p.layout.columns {
		expected := fmt.Sprintf("%d", p.layout.columns)
		if p.layout.minColumns != p.layout.columns {
			expected = fmt.Sprintf("%d-%d", p.layout.minColumns, p.layout.columns)
		}
		p.report.Error(report.RuleColumnCount, line, "",
			fmt.Sprintf("expected %s columns for %s, got %d", expected, p.declaration, len(fields)))
		return nil, association.Skip(line), false
	}
	for len(fields) < p.layout.columns {
		fields = append(fields, "")
	}

	for _, column := range p.mandatory {
		if strings.TrimSpace(fields[column.index]) == "" {
			p.report.Error(report.RuleMissingField, line, "", fmt.Sprintf("%s is empty", column.name))
			return nil, association.Skip(line), false
		}
	}
	return fields, association.ParseResult{SourceLine: line}, true
}

// parseLine is the ParseLine flow shared by both formats; convert is the
// format's ToAssociation.
func (p *baseParser) parseLine(line string, convert func([]string, string) (association.ParseResult, error)) (association.ParseResult, error) {
	if p.IsHeader(line) {
		p.headers = append(p.headers, line)
		return association.ParseResult{SourceLine: line}, nil
	}
	if strings.TrimSpace(line) == "" {
		return association.Skip(line), nil
	}

	p.report.IncrementLines()
	fields, result, valid := p.ValidateLine(line)
	if !valid {
		return result, nil
	}

	p.current = strings.TrimRight(line, "\r\n")
	result, err := convert(fields, p.declaration.Version)
	p.current = ""
	if err != nil {
		return association.Skip(line), err
	}
	for range result.Associations {
		p.report.AddAssociation()
	}
	return result, nil
}

// checkSchema rejects field vectors that cannot belong to the layout of version.
func checkSchema(declaration Declaration, layouts map[string]columnLayout, fields []string, version string) (columnLayout, error) {
	layout, ok := layouts[version]
	if !ok {
		return columnLayout{}, fmt.Errorf("%w: no %s layout for version %q", ErrSchemaMismatch, declaration.Format, version)
	}
	if len(fields) != layout.columns {
		return columnLayout{}, fmt.Errorf("%w: %s %s has %d columns, got %d",
			ErrSchemaMismatch, declaration.Format, version, layout.columns, len(fields))
	}
	return layout, nil
}

// lineState collects the content problems found while converting one line.
type lineState struct {
	parser *baseParser
	line   string
	failed bool
}

func (p *baseParser) newLineState(fields []string) *lineState {
	line := p.current
	if line == "" {
		line = strings.Join(fields, "\t")
	}
	return &lineState{parser: p, line: line}
}

func (s *lineState) fail(rule, object, message string) {
	s.parser.report.Error(rule, s.line, object, message)
	s.failed = true
}

func (s *lineState) warn(rule, object, message string) {
	s.parser.report.Warning(rule, s.line, object, message)
}

// curie parses a mandatory identifier column.
func (s *lineState) curie(column, value string) curie.Curie {
	parsed, err := curie.Parse(value)
	if err != nil {
		s.fail(report.RuleInvalidIdentifier, value, fmt.Sprintf("%s: %v", column, err))
		return curie.Curie{}
	}
	return parsed
}

// optionalTaxon parses a taxon column that may be empty.
func (s *lineState) optionalTaxon(column, value string) curie.Curie {
	if strings.TrimSpace(value) == "" {
		return curie.Curie{}
	}
	taxon, err := association.ParseTaxon(value)
	if err != nil {
		s.fail(report.RuleInvalidIdentifier, value, fmt.Sprintf("%s: %v", column, err))
		return curie.Curie{}
	}
	return taxon
}

// leafSink reports dropped compound elements, as errors when the parser is strict.
func (s *lineState) leafSink(column string) LeafErrorSink {
	return func(leaf string, err error) {
		message := fmt.Sprintf("%s: dropped element %q: %v", column, leaf, err)
		if s.parser.config.StrictCompoundFields {
			s.fail(report.RuleInvalidElement, leaf, message)
			return
		}
		s.warn(report.RuleInvalidElement, leaf, message)
	}
}

func (s *lineState) withFrom(value string) []association.ConjunctiveSet[curie.Curie] {
	return DecodeField(value, curie.Parse, s.leafSink("with/from"))
}

func (s *lineState) references(value string) []curie.Curie {
	return DecodeList(value, curie.Parse, s.leafSink("reference"))
}

func (s *lineState) extensions(value string) []association.ConjunctiveSet[association.ExtensionUnit] {
	return DecodeField(value, ExtensionUnitParser(s.parser.relations), s.leafSink("annotation extension"))
}

func (s *lineState) properties(value string) []association.Property {
	return DecodeList(value, ParseProperty, func(leaf string, err error) {
		s.warn(report.RuleInvalidProperty, leaf, fmt.Sprintf("annotation property: %v", err))
	})
}

// date validates a date column against the accepted layouts.
func (s *lineState) date(value string, layouts ...string) string {
	trimmed := strings.TrimSpace(value)
	for _, layout := range layouts {
		if _, err := time.Parse(layout, trimmed); err == nil {
			return trimmed
		}
	}
	s.fail(report.RuleInvalidDate, value, fmt.Sprintf("date %q does not match %s", value, strings.Join(layouts, " or ")))
	return ""
}

// excluded reports whether the evidence of the line is filtered by config.
func (p *baseParser) excluded(code string, eco curie.Curie) bool {
	if len(p.excludedEvidence) == 0 {
		return false
	}
	if code != "" && p.excludedEvidence[strings.ToUpper(code)] {
		return true
	}
	return !eco.IsZero() && p.excludedEvidence[strings.ToUpper(eco.String())]
}

// taxonAllowed applies the ValidTaxa filter. Unknown taxa pass.
func (p *baseParser) taxonAllowed(taxon curie.Curie) bool {
	if len(p.validTaxa) == 0 || taxon.IsZero() {
		return true
	}
	return p.validTaxa[taxon]
}

// splitNegation separates NOT tokens from the remaining qualifier tokens.
func splitNegation(tokens []string) (negated bool, rest []string) {
	for _, token := range tokens {
		if strings.EqualFold(token, "NOT") {
			negated = true
			continue
		}
		rest = append(rest, token)
	}
	return negated, rest
}
