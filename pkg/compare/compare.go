// Package compare classifies the associations of one annotation set against
// another as exact, close or unmatched using a tiered score.
package compare

import (
	"fmt"
	"strings"

	"github.com/coolbeans/assockit/pkg/association"
	"github.com/coolbeans/assockit/pkg/report"
)

// Score tiers. Each tier requires every earlier one.
const (
	ScoreNone            = 0
	ScoreSubjectObject   = 1
	ScoreQualifiers      = 2
	ScoreEvidenceType    = 3
	ScoreWithSupportFrom = 4
	ScoreExact           = 5
)

// Classification is the outcome for one reference association.
type Classification string

const (
	Exact     Classification = "exact"
	Close     Classification = "close"
	Unmatched Classification = "unmatched"
)

// Classify maps a best score to its classification. Any score from 1 to 4
// is a close match.
func Classify(score int) Classification {
	switch {
	case score > ScoreWithSupportFrom:
		return Exact
	case score >= ScoreSubjectObject:
		return Close
	default:
		return Unmatched
	}
}

// MatchScore scores b as a match for a. Tiers stop advancing at the first
// disagreement; negation must agree for any score above zero.
func MatchScore(a, b *association.GoAssociation) int {
	if a.Negated != b.Negated {
		return ScoreNone
	}
	if a.Subject != b.Subject || a.Object != b.Object {
		return ScoreNone
	}
	if !sameFoldedSet(a.Qualifiers, b.Qualifiers) {
		return ScoreSubjectObject
	}
	if a.Evidence.Type != b.Evidence.Type {
		return ScoreQualifiers
	}
	if !sameFoldedSet(a.Evidence.WithSupportFrom, b.Evidence.WithSupportFrom) {
		return ScoreEvidenceType
	}
	if !sameFoldedSet(a.Evidence.HasSupportingReference, b.Evidence.HasSupportingReference) {
		return ScoreWithSupportFrom
	}
	return ScoreExact
}

// sameFoldedSet compares two slices as sets of upper-cased string forms.
func sameFoldedSet[T any](left, right []T) bool {
	leftSet, rightSet := foldedSet(left), foldedSet(right)
	if len(leftSet) != len(rightSet) {
		return false
	}
	for value := range leftSet {
		if !rightSet[value] {
			return false
		}
	}
	return true
}

func foldedSet[T any](values []T) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, value := range values {
		set[strings.ToUpper(fmt.Sprint(value))] = true
	}
	return set
}

// Match is the best candidate found for one reference association.
type Match struct {
	Association    *association.GoAssociation
	Best           *association.GoAssociation
	Score          int
	Classification Classification
}

// Result is the outcome of comparing a reference set against a candidate set.
type Result struct {
	Report    *report.Report
	Processed int
	Exact     int
	Close     int
	Unmatched int
	Matches   []Match
}

// Compare scores every association of reference against all of candidates
// and keeps the best score. Only the reference to candidate direction is
// checked, so swapping the arguments can change the tallies.
func Compare(reference, candidates []*association.GoAssociation) *Result {
	result := &Result{
		Report:  report.New(),
		Matches: make([]Match, 0, len(reference)),
	}

	for _, assoc := range reference {
		result.Processed++
		match := Match{Association: assoc}
		for _, candidate := range candidates {
			score := MatchScore(assoc, candidate)
			if score > match.Score {
				match.Score = score
				match.Best = candidate
			}
			if match.Score == ScoreExact {
				break
			}
		}
		match.Classification = Classify(match.Score)

		switch match.Classification {
		case Exact:
			result.Exact++
		case Close:
			result.Close++
			result.Report.AddAssociation()
			result.Report.IncrementLines()
			result.Report.Warning(report.RuleCloseMatch, assoc.SourceLine, "", "line from file1 only has CLOSE match in file2")
		default:
			result.Unmatched++
			result.Report.AddAssociation()
			result.Report.IncrementLines()
			result.Report.Error(report.RuleNoMatch, assoc.SourceLine, "", "line from file1 has NO match in file2")
		}
		result.Matches = append(result.Matches, match)
	}
	return result
}
