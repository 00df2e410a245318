// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"fmt"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// PunktSplitter detects sentence boundaries with the English Punkt model,
// which knows common abbreviations and initials.
type PunktSplitter struct {
	mu        sync.Mutex
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSplitter loads the English model. Loading is slow enough that a
// splitter should be built once and shared.
func NewPunktSplitter() (*PunktSplitter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading sentence model: %w", err)
	}
	return &PunktSplitter{tokenizer: tok}, nil
}

// Split returns the sentences of text in order.
func (p *PunktSplitter) Split(text string) []string {
	p.mu.Lock()
	sents := p.tokenizer.Tokenize(text)
	p.mu.Unlock()

	out := make([]string, 0, len(sents))
	for _, s := range sents {
		out = append(out, s.Text)
	}
	return out
}
