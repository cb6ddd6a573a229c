package compare

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/coolbeans/assockit/pkg/assocparser"
	"github.com/coolbeans/assockit/pkg/curie"
	"github.com/coolbeans/assockit/pkg/ecomap"
)

// ErrUnknownColumn is returned when a group-by column is not part of the table.
var ErrUnknownColumn = errors.New("unknown column")

// Column names of the raw tables, per format.
var (
	GAFColumns = []string{
		"DB", "DB_Object_ID", "DB_Object_Symbol", "Qualifier", "GO_ID", "DB_Reference",
		"Evidence_code", "With_or_From", "Aspect", "DB_Object_Name", "DB_Object_Synonym",
		"DB_Object_Type", "Taxon", "Date", "Assigned_By", "Annotation_Extension",
		"Gene_Product_Form_ID",
	}
	GPADColumns = []string{
		"DB", "DB_Object_ID", "Relation", "Ontology_Class_ID", "Reference", "Evidence_type",
		"With_or_From", "Interacting_taxon_ID", "Date", "Assigned_by", "Annotation_Extensions",
		"Annotation_Properties",
	}
)

// Table is an annotation file read as plain named columns, without validation.
type Table struct {
	Columns []string
	Rows    [][]string
}

// LoadTable reads the data rows of a GAF or GPAD file. Evidence columns
// holding ECO classes are translated back to GO evidence codes so that both
// formats group by the same vocabulary.
func LoadTable(reader io.Reader, format assocparser.Format, mapper *ecomap.Mapper) (*Table, error) {
	var columns []string
	var evidenceColumn int
	switch format {
	case assocparser.FormatGAF:
		columns, evidenceColumn = GAFColumns, 6
	case assocparser.FormatGPAD:
		columns, evidenceColumn = GPADColumns, 5
	default:
		return nil, fmt.Errorf("no table layout for format %q", format)
	}
	if mapper == nil {
		mapper = ecomap.Default()
	}

	table := &Table{Columns: columns}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "!") || strings.TrimSpace(line) == "" {
			continue
		}
		row := make([]string, len(columns))
		copy(row, strings.Split(line, "\t"))
		if eco, err := curie.Parse(row[evidenceColumn]); err == nil {
			if code, ok := mapper.ECOToCode(eco); ok {
				row[evidenceColumn] = code
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	return table, nil
}

// GroupCount is the number of rows holding one value.
type GroupCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Grouping holds the value counts of one column, sorted by value.
type Grouping struct {
	Column string       `json:"column"`
	Counts []GroupCount `json:"counts"`
}

// GroupBy counts the rows per distinct value of each requested column.
func GroupBy(table *Table, columns []string) ([]Grouping, error) {
	groupings := make([]Grouping, 0, len(columns))
	for _, column := range columns {
		index := -1
		for i, name := range table.Columns {
			if name == column {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
		}

		counts := make(map[string]int)
		for _, row := range table.Rows {
			counts[row[index]]++
		}
		grouping := Grouping{Column: column, Counts: make([]GroupCount, 0, len(counts))}
		for value, count := range counts {
			grouping.Counts = append(grouping.Counts, GroupCount{Value: value, Count: count})
		}
		sort.Slice(grouping.Counts, func(i, j int) bool {
			return grouping.Counts[i].Value < grouping.Counts[j].Value
		})
		groupings = append(groupings, grouping)
	}
	return groupings, nil
}

// FileGroups is the group-by summary of one file.
type FileGroups struct {
	Filename  string
	TotalRows int
	Groupings []Grouping
}

// GroupReport renders the GROUP BY SUMMARY for the compared files.
func GroupReport(date string, columns []string, files []FileGroups) string {
	var markdownBuilder strings.Builder

	filenames := make([]string, len(files))
	for i, file := range files {
		filenames[i] = file.Filename
	}

	markdownBuilder.WriteString("\n\n## GROUP BY SUMMARY \n\n")
	markdownBuilder.WriteString(fmt.Sprintf("This report generated on %s\n\n", date))
	markdownBuilder.WriteString(fmt.Sprintf("  * Group By Columns: %s\n", strings.Join(columns, ", ")))
	markdownBuilder.WriteString(fmt.Sprintf("  * Compared Files: %s\n\n", strings.Join(filenames, ", ")))

	for _, file := range files {
		markdownBuilder.WriteString(fmt.Sprintf("### %s\n\n", file.Filename))
		markdownBuilder.WriteString(fmt.Sprintf("* total rows: %d\n\n", file.TotalRows))
		for _, grouping := range file.Groupings {
			markdownBuilder.WriteString(fmt.Sprintf("#### %s\n\n", grouping.Column))
			markdownBuilder.WriteString("| Value | Count |\n")
			markdownBuilder.WriteString("|-------|-------|\n")
			for _, count := range grouping.Counts {
				markdownBuilder.WriteString(fmt.Sprintf("| %s | %d |\n", count.Value, count.Count))
			}
			markdownBuilder.WriteString("\n")
		}
	}

	return markdownBuilder.String()
}
