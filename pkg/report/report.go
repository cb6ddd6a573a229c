// Package report accumulates validation messages produced while parsing and
// comparing annotation files.
package report

import (
	"sort"
)

// Level is the severity of a report message.
type Level string

const (
	LevelError   Level = "ERROR"
	LevelWarning Level = "WARNING"
	LevelInfo    Level = "INFO"
)

// Message is a single validation finding tied to a rule and an input line.
type Message struct {
	Level   Level  `json:"level"`
	Rule    string `json:"rule"`
	Line    string `json:"line"`
	Object  string `json:"obj,omitempty"`
	Message string `json:"message"`
}

// Report is an append-only accumulator of messages keyed by rule. A Report
// belongs to one parse or one comparison and is not safe for concurrent use.
type Report struct {
	messages     map[string][]Message
	lines        int
	associations int
}

// New creates an empty report.
func New() *Report {
	return &Report{messages: make(map[string][]Message)}
}

// Add records a message under its rule. Identical messages are kept once per
// occurrence.
func (r *Report) Add(message Message) {
	r.messages[message.Rule] = append(r.messages[message.Rule], message)
}

// Error records an ERROR message.
func (r *Report) Error(rule, line, object, message string) {
	r.Add(Message{Level: LevelError, Rule: rule, Line: line, Object: object, Message: message})
}

// Warning records a WARNING message.
func (r *Report) Warning(rule, line, object, message string) {
	r.Add(Message{Level: LevelWarning, Rule: rule, Line: line, Object: object, Message: message})
}

// Info records an INFO message.
func (r *Report) Info(rule, line, object, message string) {
	r.Add(Message{Level: LevelInfo, Rule: rule, Line: line, Object: object, Message: message})
}

// AddAssociation counts one association towards the summary.
func (r *Report) AddAssociation() {
	r.associations++
}

// IncrementLines counts one processed input line.
func (r *Report) IncrementLines() {
	r.lines++
}

// LineCount returns the number of processed lines.
func (r *Report) LineCount() int {
	return r.lines
}

// AssociationCount returns the number of counted associations.
func (r *Report) AssociationCount() int {
	return r.associations
}

// Messages returns the messages recorded for a rule.
func (r *Report) Messages(rule string) []Message {
	return r.messages[rule]
}

// All returns every message ordered by rule, then insertion order.
func (r *Report) All() []Message {
	var all []Message
	for _, rule := range r.Rules() {
		all = append(all, r.messages[rule]...)
	}
	return all
}

// Rules returns the rules that have at least one message, sorted.
func (r *Report) Rules() []string {
	rules := make([]string, 0, len(r.messages))
	for rule := range r.messages {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	return rules
}

// Count returns the number of messages at the given level.
func (r *Report) Count(level Level) int {
	total := 0
	for _, messages := range r.messages {
		for _, message := range messages {
			if message.Level == level {
				total++
			}
		}
	}
	return total
}

// HasErrors reports whether any ERROR message was recorded.
func (r *Report) HasErrors() bool {
	return r.Count(LevelError) > 0
}

// Merge appends every message and counter of other into r.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	for _, rule := range other.Rules() {
		r.messages[rule] = append(r.messages[rule], other.messages[rule]...)
	}
	r.lines += other.lines
	r.associations += other.associations
}

// Structured is the serializable form of a report consumed by formatters.
type Structured struct {
	Messages     map[string][]Message `json:"messages"`
	Associations int                  `json:"associations"`
	Lines        int                  `json:"lines"`
}

// ToStructured copies the report into its serializable form.
func (r *Report) ToStructured() Structured {
	messages := make(map[string][]Message, len(r.messages))
	for rule, ruleMessages := range r.messages {
		copied := make([]Message, len(ruleMessages))
		copy(copied, ruleMessages)
		messages[rule] = copied
	}
	return Structured{
		Messages:     messages,
		Associations: r.associations,
		Lines:        r.lines,
	}
}
