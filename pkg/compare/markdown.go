package compare

import (
	"fmt"
	"strings"

	"github.com/coolbeans/assockit/pkg/report"
)

// ToMarkdown renders the DIFF SUMMARY for the comparison, with one section
// per report rule.
func (r *Result) ToMarkdown(date string) string {
	return r.Summary(date) + report.RenderRuleSections(r.Report)
}

// Summary renders only the DIFF SUMMARY totals, without per-line messages.
func (r *Result) Summary(date string) string {
	var markdownBuilder strings.Builder

	markdownBuilder.WriteString("\n\n## DIFF SUMMARY\n\n")
	markdownBuilder.WriteString(fmt.Sprintf("This report generated on %s\n\n", date))
	markdownBuilder.WriteString(fmt.Sprintf("  * Total Unmatched Associations: %d\n", r.Report.AssociationCount()))
	markdownBuilder.WriteString(fmt.Sprintf("  * Total Lines Compared: %d\n", r.Processed))
	markdownBuilder.WriteString(fmt.Sprintf("  * Total Exact matches: %d\n", r.Exact))
	markdownBuilder.WriteString(fmt.Sprintf("  * Total Close matches: %d\n\n", r.Close))

	return markdownBuilder.String()
}
