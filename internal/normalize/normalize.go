// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize cleans raw extracted text before segmentation: running
// headers and footers, hyphenated line breaks, soft hyphens, duplicate lines
// and surrounding whitespace.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/clause-risk/pkg/types"
)

// DefaultHeaderPatterns match a "Page <n>" token and lines led by an
// all-caps HEADER or FOOTER marker.
var DefaultHeaderPatterns = []string{
	`Page \d+`,
	`(?m)^[ \t]*(?:HEADER|FOOTER)\b.*$`,
}

const (
	softHyphen = "\u00ad"
	maxPasses  = 8
)

var hyphenBreak = regexp.MustCompile(`(\w+)-\n(\w+)`)

// Normalizer holds compiled cleaning settings. It is safe for concurrent use.
type Normalizer struct {
	headers []*regexp.Regexp
	dedupe  bool
	nfkc    bool
}

// New compiles cfg. A nil HeaderPatterns slice selects DefaultHeaderPatterns;
// an empty non-nil slice disables header removal.
func New(cfg types.NormalizationConfig) (*Normalizer, error) {
	patterns := cfg.HeaderPatterns
	if patterns == nil {
		patterns = DefaultHeaderPatterns
	}

	n := &Normalizer{dedupe: cfg.DedupeLines, nfkc: cfg.UnicodeNFKC}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling header pattern %q: %w", p, err)
		}
		n.headers = append(n.headers, re)
	}
	return n, nil
}

// Clean returns the normalized form of raw. The cleaning pass is repeated
// until the text stops changing, so Clean(Clean(x)) == Clean(x).
func (n *Normalizer) Clean(raw string) string {
	text := raw
	for i := 0; i < maxPasses; i++ {
		next := n.pass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func (n *Normalizer) pass(text string) string {
	text = n.canonical(text)

	for _, re := range n.headers {
		text = re.ReplaceAllString(text, "")
	}

	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = strings.ReplaceAll(text, softHyphen, "")

	text = n.lines(strings.TrimSpace(text))
	return strings.TrimSpace(text)
}

// canonical unifies line endings, turns page and vertical breaks into
// newlines, drops other control characters and optionally applies NFKC.
func (n *Normalizer) canonical(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\t':
			return r
		case '\r', '\f', '\v':
			return '\n'
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	if n.nfkc {
		text = norm.NFKC.String(text)
	}
	return text
}

// lines right-trims every line and, when enabled, keeps only the first
// occurrence of each exact line.
func (n *Normalizer) lines(text string) string {
	lines := strings.Split(text, "\n")
	seen := make(map[string]bool, len(lines))
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if n.dedupe {
			if seen[line] {
				continue
			}
			seen[line] = true
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
