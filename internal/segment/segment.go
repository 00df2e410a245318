// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment splits clean text into ordered clauses. Two strategies
// are available: sentence detection followed by legal-connector splitting,
// and a lighter split on sentence-ending punctuation.
package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/clause-risk/pkg/types"
)

// DefaultMinClauseLength is the shortest fragment, in characters, the
// punctuation strategy keeps.
const DefaultMinClauseLength = 20

// connectors splits a sentence at semicolons and legal connector words in a
// single pass. The matched delimiter belongs to neither side.
var connectors = regexp.MustCompile(`(?i);|\bprovided that\b|\bexcept\b|\bunless\b|\bhowever\b|\bwhereas\b`)

// SentenceSplitter breaks text into sentences.
type SentenceSplitter interface {
	Split(text string) []string
}

// Segmenter turns clean text into clauses with one strategy.
type Segmenter struct {
	strategy  types.SegmentStrategy
	minLength int
	sentences SentenceSplitter
}

// New returns a Segmenter for cfg. The sentence splitter is required only
// by the sentence strategy.
func New(cfg types.SegmentationConfig, sentences SentenceSplitter) (*Segmenter, error) {
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = types.SegmentSentence
	}
	switch strategy {
	case types.SegmentSentence:
		if sentences == nil {
			return nil, fmt.Errorf("sentence strategy needs a sentence splitter")
		}
	case types.SegmentPunctuation:
	default:
		return nil, fmt.Errorf("unknown segmentation strategy %q", strategy)
	}

	minLength := cfg.MinClauseLength
	if minLength <= 0 {
		minLength = DefaultMinClauseLength
	}
	return &Segmenter{strategy: strategy, minLength: minLength, sentences: sentences}, nil
}

// Strategy reports the configured strategy.
func (s *Segmenter) Strategy() types.SegmentStrategy { return s.strategy }

// Segment splits text into clauses numbered from 1 in traversal order.
func (s *Segmenter) Segment(text string) []types.Clause {
	if s.strategy == types.SegmentPunctuation {
		return s.byPunctuation(text)
	}
	_, clauses := s.BySentence(text)
	return clauses
}

// BySentence returns the non-empty sentences of text and the clauses cut
// from them. Clause.SourceSentenceID indexes the returned sentences from 1.
func (s *Segmenter) BySentence(text string) ([]string, []types.Clause) {
	var (
		sentences []string
		clauses   []types.Clause
	)
	for _, raw := range s.sentences.Split(text) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}
		sentences = append(sentences, sentence)
		sentenceID := len(sentences)

		for _, frag := range connectors.Split(sentence, -1) {
			frag = strings.TrimSpace(frag)
			if frag == "" {
				continue
			}
			clauses = append(clauses, types.Clause{
				SequenceID:       len(clauses) + 1,
				Text:             frag,
				SourceSentenceID: sentenceID,
			})
		}
	}
	return sentences, clauses
}

func (s *Segmenter) byPunctuation(text string) []types.Clause {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	var clauses []types.Clause
	for _, piece := range splitAfterTerminators(text) {
		piece = strings.TrimSpace(piece)
		if utf8.RuneCountInString(piece) < s.minLength {
			continue
		}
		id := len(clauses) + 1
		clauses = append(clauses, types.Clause{SequenceID: id, Text: piece, SourceSentenceID: id})
	}
	return clauses
}

// splitAfterTerminators cuts text at every whitespace run that directly
// follows '.', '!' or '?'. The punctuation stays with the left piece and the
// whitespace is dropped.
func splitAfterTerminators(text string) []string {
	var (
		pieces []string
		start  int
		prev   rune
	)
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) && (prev == '.' || prev == '!' || prev == '?') {
			pieces = append(pieces, text[start:i])
			j := i
			for j < len(text) {
				r2, size2 := utf8.DecodeRuneInString(text[j:])
				if !unicode.IsSpace(r2) {
					break
				}
				j += size2
			}
			start = j
			i = j
			prev = 0
			continue
		}
		prev = r
		i += size
	}
	return append(pieces, text[start:])
}
