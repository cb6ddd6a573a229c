package report

import (
	"fmt"
	"strings"
)

// ToMarkdown renders the report as Markdown with one section per rule.
func (r *Report) ToMarkdown(title string) string {
	var markdownBuilder strings.Builder

	markdownBuilder.WriteString(fmt.Sprintf("## %s\n\n", title))
	markdownBuilder.WriteString(fmt.Sprintf("  * Lines: %d\n", r.lines))
	markdownBuilder.WriteString(fmt.Sprintf("  * Associations: %d\n", r.associations))
	markdownBuilder.WriteString(fmt.Sprintf("  * Errors: %d\n", r.Count(LevelError)))
	markdownBuilder.WriteString(fmt.Sprintf("  * Warnings: %d\n\n", r.Count(LevelWarning)))

	markdownBuilder.WriteString(RenderRuleSections(r))
	return markdownBuilder.String()
}

// RenderRuleSections renders every rule of the report in sorted order. It is
// shared by the parse and comparison summaries.
func RenderRuleSections(r *Report) string {
	var markdownBuilder strings.Builder

	for _, rule := range r.Rules() {
		messages := r.messages[rule]
		markdownBuilder.WriteString(fmt.Sprintf("### %s\n\n", rule))
		markdownBuilder.WriteString(fmt.Sprintf("* total: %d\n\n", len(messages)))
		if len(messages) == 0 {
			continue
		}
		markdownBuilder.WriteString("#### Messages\n\n")
		for _, message := range messages {
			object := ""
			if message.Object != "" {
				object = fmt.Sprintf(" (%s)", message.Object)
			}
			markdownBuilder.WriteString(fmt.Sprintf("* %s - %s: %s%s -- `%s`\n",
				message.Level, message.Rule, message.Message, object, escapeBackticks(message.Line)))
		}
		markdownBuilder.WriteString("\n")
	}

	return markdownBuilder.String()
}

// escapeBackticks keeps an input line from terminating the inline code span.
func escapeBackticks(line string) string {
	return strings.ReplaceAll(line, "`", "'")
}
