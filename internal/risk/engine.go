// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/clause-risk/pkg/types"
)

// Match is the raw outcome of matching one clause against the table.
type Match struct {
	// Tags is sorted and distinct.
	Tags []types.RiskTag

	// Raw is the summed weight of every matching phrase or token. Two
	// phrases carrying the same tag both count.
	Raw float64

	// Phrases lists the matched needles in table order.
	Phrases []string
}

// MatchText runs case-insensitive substring matching of every rule phrase
// and token over text. There is no word-boundary check: a phrase inside a
// longer token still matches.
func (t *RuleTable) MatchText(text string) Match {
	folded := fold(text)

	var m Match
	seen := make(map[types.RiskTag]bool)
	for _, rm := range t.matchers {
		if !strings.Contains(folded, rm.needle) {
			continue
		}
		m.Raw += rm.weight
		m.Phrases = append(m.Phrases, rm.needle)
		for _, tag := range rm.tags {
			if !seen[tag] {
				seen[tag] = true
				m.Tags = append(m.Tags, tag)
			}
		}
	}
	sort.Slice(m.Tags, func(i, j int) bool { return m.Tags[i] < m.Tags[j] })
	return m
}

// Score returns the tags and base score of text under regime.
func Score(text string, t *RuleTable, regime types.ScoringRegime) ([]types.RiskTag, float64) {
	m := t.MatchText(text)
	return m.Tags, t.base(m, regime)
}

func (t *RuleTable) base(m Match, regime types.ScoringRegime) float64 {
	if regime == types.RegimeBanded {
		return t.Band(m.Raw)
	}
	var base float64
	for _, tag := range m.Tags {
		base += t.TagWeight(tag)
	}
	return base
}

// Band buckets a raw weight into 0..3.
func (t *RuleTable) Band(raw float64) float64 {
	switch {
	case raw >= t.Bands.High:
		return 3
	case raw >= t.Bands.Medium:
		return 2
	case raw > 0:
		return 1
	default:
		return 0
	}
}

// Mitigate discounts base when text carries protective language. It never
// raises the score. Whether the clause is risky is settled by its tags, not
// by the discounted score.
func Mitigate(text string, base float64, t *RuleTable) (float64, []string) {
	folded := fold(text)
	var found []string
	for i, p := range t.mitigators {
		if strings.Contains(folded, p) {
			found = append(found, t.Mitigation.Phrases[i])
		}
	}
	if len(found) == 0 || base <= 0 {
		return base, found
	}

	final := Round2(base * t.Mitigation.Factor)
	if final > base {
		final = base
	}
	return final, found
}

// Severity maps a final score to a clause severity band. Scores at or
// below zero are LOW.
func (t *RuleTable) Severity(final float64, regime types.ScoringRegime) types.Severity {
	th := t.severityFor(regime)
	switch {
	case final <= th.Low:
		return types.SeverityLow
	case final <= th.Medium:
		return types.SeverityMedium
	default:
		return types.SeverityHigh
	}
}

func (t *RuleTable) severityFor(regime types.ScoringRegime) SeverityThresholds {
	if th, ok := t.SeverityBands[regime]; ok {
		return th
	}
	return t.SeverityBands[types.RegimeWeighted]
}

const (
	noRiskExplanation    = "No specific risky legal pattern was detected in this clause."
	noMitigationSentence = "No strong protective phrases were found, so you should read this clause carefully."
)

// Explain builds the plain-language explanation for a clause. Tag sentences
// follow the table's tag order; tags the table does not describe come last.
func (t *RuleTable) Explain(tags []types.RiskTag, mitigations []string) string {
	if len(tags) == 0 {
		return noRiskExplanation
	}

	has := make(map[types.RiskTag]bool, len(tags))
	for _, tag := range tags {
		has[tag] = true
	}

	var pieces []string
	for _, td := range t.Tags {
		if has[td.Name] {
			pieces = append(pieces, t.tagSentence(td))
			delete(has, td.Name)
		}
	}
	for _, tag := range tags {
		if has[tag] {
			pieces = append(pieces, t.tagSentence(TagDef{Name: tag}))
		}
	}

	if len(mitigations) > 0 {
		pieces = append(pieces, "However, there is also some protective language that reduces the risk: "+
			strings.Join(mitigations, "; ")+".")
	} else {
		pieces = append(pieces, noMitigationSentence)
	}
	return strings.Join(pieces, " ")
}

func (t *RuleTable) tagSentence(td TagDef) string {
	if td.Explanation != "" {
		return td.Explanation
	}
	return fmt.Sprintf("This clause matches the %q risk category.", string(td.Name))
}

// ScoreClause runs tagging, mitigation, severity and explanation for one
// clause.
func ScoreClause(c types.Clause, t *RuleTable, regime types.ScoringRegime) types.ScoredClause {
	m := t.MatchText(c.Text)
	tags, base := m.Tags, t.base(m, regime)
	final, found := Mitigate(c.Text, base, t)
	risky := len(tags) > 0

	severity := types.SeverityLow
	if risky {
		severity = t.Severity(final, regime)
	}
	if found == nil {
		found = []string{}
	}
	if tags == nil {
		tags = []types.RiskTag{}
	}

	return types.ScoredClause{
		Clause:           c,
		Tags:             tags,
		BaseScore:        base,
		MitigationsFound: found,
		FinalScore:       final,
		BandScore:        int(t.Band(m.Raw)),
		Severity:         severity,
		IsRisky:          risky,
		Explanation:      t.Explain(tags, found),
	}
}

// Round2 rounds x to two decimal places, halves away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
