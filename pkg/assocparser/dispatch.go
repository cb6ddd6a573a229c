package assocparser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/coolbeans/assockit/pkg/association"
	"github.com/coolbeans/assockit/pkg/report"
)

var versionHeaderPattern = regexp.MustCompile(`^!\s*(\w+)-version:\s*(\d+\.\d+(?:\.\d+)?)`)

// ParseVersionHeader recognises "!gaf-version: 2.2" style declarations. The
// "gpa" spelling is accepted for gpad.
func ParseVersionHeader(line string) (Declaration, bool) {
	match := versionHeaderPattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return Declaration{}, false
	}
	format := Format(strings.ToLower(match[1]))
	if format == "gpa" {
		format = FormatGPAD
	}
	if format != FormatGAF && format != FormatGPAD {
		return Declaration{}, false
	}
	return Declaration{Format: format, Version: match[2]}, true
}

// GeneralParser reads header lines until a supported version declaration
// selects a concrete parser, then delegates every line to it.
type GeneralParser struct {
	options Options
	parser  Parser
	headers []string
}

// NewGeneralParser creates a dispatcher. The report and registry in options
// are shared with whichever parser gets selected.
func NewGeneralParser(options Options) *GeneralParser {
	return &GeneralParser{options: options.withDefaults()}
}

// Selected returns the chosen parser, or nil before a declaration was seen.
func (g *GeneralParser) Selected() Parser { return g.parser }

// Headers returns every header line seen, including those before the declaration.
func (g *GeneralParser) Headers() []string { return g.headers }

// Report returns the report shared with the selected parser.
func (g *GeneralParser) Report() *report.Report { return g.options.Report }

// ParseLine routes a raw line. A data line arriving before any supported
// declaration returns ErrMissingVersionDeclaration.
func (g *GeneralParser) ParseLine(line string) (association.ParseResult, error) {
	if strings.HasPrefix(line, "!") {
		g.headers = append(g.headers, strings.TrimRight(line, "\r\n"))
		if g.parser == nil {
			g.selectParser(line)
			return association.ParseResult{SourceLine: line}, nil
		}
	}
	if g.parser == nil {
		if strings.TrimSpace(line) == "" {
			return association.Skip(line), nil
		}
		return association.Skip(line), fmt.Errorf("%w: data line before any gaf/gpad version header", ErrMissingVersionDeclaration)
	}
	return g.parser.ParseLine(line)
}

func (g *GeneralParser) selectParser(line string) {
	declaration, ok := ParseVersionHeader(line)
	if !ok {
		return
	}
	if !declaration.Supported() {
		g.options.Report.Warning(report.RuleUnsupportedVersion, line, declaration.Version,
			fmt.Sprintf("%s is not supported; looking for another declaration", declaration))
		g.options.Logger.Warn("unsupported version declaration", "declaration", declaration.String())
		return
	}

	parser, err := NewParser(declaration, g.options)
	if err != nil {
		g.options.Logger.Error("creating parser", "declaration", declaration.String(), "error", err)
		return
	}
	g.options.Logger.Debug("selected parser", "declaration", declaration.String())
	g.parser = parser
}

// Collection is a fully parsed file.
type Collection struct {
	Declaration  Declaration
	Headers      []string
	Associations []*association.GoAssociation
	Report       *report.Report

	// Skipped counts data lines that produced no association.
	Skipped int
}

// maxLineBytes bounds a single annotation line.
const maxLineBytes = 4 * 1024 * 1024

// Parse reads a whole GAF or GPAD stream. It stops early on a missing
// version declaration, a schema mismatch, a read error or a cancelled
// context; every other problem is left in the collection's report.
func Parse(ctx context.Context, reader io.Reader, options Options) (*Collection, error) {
	general := NewGeneralParser(options)
	collection := &Collection{Report: general.Report()}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		result, err := general.ParseLine(line)
		if err != nil {
			return nil, err
		}
		collection.Associations = append(collection.Associations, result.Associations...)
		if !strings.HasPrefix(line, "!") && strings.TrimSpace(line) != "" {
			collection.Skipped += result.Skipped
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading annotations: %w", err)
	}

	collection.Headers = general.Headers()
	if selected := general.Selected(); selected != nil {
		collection.Declaration = selected.Declaration()
	}
	return collection, nil
}
