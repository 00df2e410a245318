// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package learn grows the rule table from clauses already scored as risky.
// Frequent words that no rule mentions yet become per-tag token groups.
package learn

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/clause-risk/internal/risk"
	"github.com/pdiddy/clause-risk/pkg/types"
)

const (
	DefaultMinCount = 2
	minTokenLength  = 4
	groupWeight     = 1
)

var tokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// stopwords carry no risk on their own.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true, "that": true,
	"from": true, "into": true, "your": true, "you": true, "shall": true, "may": true,
	"will": true, "any": true, "all": true, "are": true, "our": true, "such": true,
	"its": true, "not": true, "been": true, "have": true, "has": true, "hereby": true,
	"thereof": true, "herein": true, "thereby": true, "whereas": true, "per": true,
	"under": true, "than": true, "more": true, "less": true, "only": true,
}

// Tokens lowercases text and splits it on anything but ASCII letters and
// digits.
func Tokens(text string) []string {
	var out []string
	for _, tok := range tokenSplit.Split(strings.ToLower(text), -1) {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Count tallies candidate tokens per tag over the risky clauses. Tokens
// that are short, stopwords or already in vocab are ignored. A token is
// counted once per occurrence under every tag of its clause.
func Count(clauses []types.ScoredClause, vocab map[string]bool) map[types.RiskTag]map[string]int {
	counts := make(map[types.RiskTag]map[string]int)
	for _, c := range clauses {
		if !c.IsRisky || len(c.Tags) == 0 {
			continue
		}
		for _, tok := range Tokens(c.Text) {
			if len(tok) < minTokenLength || stopwords[tok] || vocab[tok] {
				continue
			}
			for _, tag := range c.Tags {
				if counts[tag] == nil {
					counts[tag] = make(map[string]int)
				}
				counts[tag][tok]++
			}
		}
	}
	return counts
}

// GroupName is the token group auto-learned tokens for tag go into.
func GroupName(tag types.RiskTag) string {
	return fmt.Sprintf("auto_%s_tokens", tag)
}

// Result reports what a learning pass added.
type Result struct {
	// Added maps group name to the tokens new in this pass, sorted.
	Added map[string][]string
}

// Total returns the number of tokens added across all groups.
func (r Result) Total() int {
	n := 0
	for _, toks := range r.Added {
		n += len(toks)
	}
	return n
}

// Learn returns a table extending t with tokens seen at least minCount
// times (DefaultMinCount when minCount <= 0). When nothing new is found t
// itself is returned, so the version only moves when the table changes.
func Learn(clauses []types.ScoredClause, t *risk.RuleTable, minCount int) (*risk.RuleTable, Result, error) {
	if minCount <= 0 {
		minCount = DefaultMinCount
	}
	res := Result{Added: make(map[string][]string)}

	groups := make([]risk.TokenGroup, len(t.TokenGroups))
	byName := make(map[string]int, len(groups))
	for i, g := range t.TokenGroups {
		g.Tokens = append([]string(nil), g.Tokens...)
		groups[i] = g
		byName[g.Name] = i
	}

	counts := Count(clauses, t.Vocabulary())
	tags := make([]types.RiskTag, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	for _, tag := range tags {
		name := GroupName(tag)
		idx, ok := byName[name]
		if !ok {
			groups = append(groups, risk.TokenGroup{Name: name, Tag: tag, Weight: groupWeight})
			idx = len(groups) - 1
			byName[name] = idx
		}
		existing := make(map[string]bool, len(groups[idx].Tokens))
		for _, tok := range groups[idx].Tokens {
			existing[tok] = true
		}

		var added []string
		for tok, n := range counts[tag] {
			if n >= minCount && !existing[tok] {
				added = append(added, tok)
			}
		}
		if len(added) == 0 {
			continue
		}
		sort.Strings(added)
		res.Added[name] = added
		groups[idx].Tokens = append(groups[idx].Tokens, added...)
		sort.Strings(groups[idx].Tokens)

		log.Info().Str("tag", string(tag)).Str("group", name).Strs("tokens", added).Msg("learned tokens")
	}

	if res.Total() == 0 {
		return t, res, nil
	}

	// Groups created for a tag that ended up with no tokens are dropped.
	kept := groups[:0]
	for _, g := range groups {
		if len(g.Tokens) > 0 {
			kept = append(kept, g)
		}
	}
	next, err := t.WithTokenGroups(kept)
	if err != nil {
		return nil, Result{}, fmt.Errorf("building learned rule table: %w", err)
	}
	return next, res, nil
}
