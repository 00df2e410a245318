// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entity finds dates, money amounts and percentages in clean text.
package entity

import (
	"regexp"
	"sort"

	"github.com/pdiddy/clause-risk/pkg/types"
)

const months = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

type pattern struct {
	kind types.EntityType
	re   *regexp.Regexp
}

var patterns = []pattern{
	{types.EntityDate, regexp.MustCompile(`\b` + months + `\.? \d{1,2}(?:st|nd|rd|th)?,? \d{4}\b`)},
	{types.EntityDate, regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)? (?:of )?` + months + `,? \d{4}\b`)},
	{types.EntityDate, regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)},
	{types.EntityDate, regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)},
	{types.EntityMoney, regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:million|billion|thousand)\b)?`)},
	{types.EntityMoney, regexp.MustCompile(`(?i)\b\d[\d,]*(?:\.\d+)?\s?(?:USD|EUR|GBP|dollars|euros|pounds)\b`)},
	{types.EntityPercent, regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:%|(?i:percent)\b)`)},
}

type span struct {
	start, end int
	kind       types.EntityType
}

// Find returns every entity in text in order of appearance. When matches
// overlap the one starting first wins, and of two starting together the
// longer one wins.
func Find(text string) []types.Entity {
	var spans []span
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			spans = append(spans, span{start: loc[0], end: loc[1], kind: p.kind})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var (
		out []types.Entity
		end = -1
	)
	for _, s := range spans {
		if s.start < end {
			continue
		}
		out = append(out, types.Entity{Text: text[s.start:s.end], Type: s.kind})
		end = s.end
	}
	return out
}
