package report

// Rule identifiers shared by the parsers and the comparator.
const (
	RuleColumnCount        = "wrong-column-count"
	RuleMissingField       = "missing-mandatory-field"
	RuleInvalidIdentifier  = "invalid-identifier"
	RuleInvalidElement     = "invalid-compound-element"
	RuleInvalidDate        = "invalid-date"
	RuleInvalidAspect      = "invalid-aspect"
	RuleInvalidQualifier   = "invalid-qualifier"
	RuleInvalidProperty    = "invalid-property"
	RuleUnknownEvidence    = "unknown-evidence-code"
	RuleUnknownRelation    = "unknown-relation"
	RuleTaxonNotAllowed    = "taxon-not-allowed"
	RuleUnknownSubject     = "unknown-subject"
	RuleEntityLoad         = "entity-load"
	RuleUnsupportedVersion = "unsupported-version"

	RuleCloseMatch = "close-match"
	RuleNoMatch    = "no-match"
)
