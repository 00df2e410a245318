// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clause-risk/pkg/types"
)

// lineSplitter treats every line as a sentence.
type lineSplitter struct{}

func (lineSplitter) Split(text string) []string { return strings.Split(text, "\n") }

func clauseTexts(clauses []types.Clause) []string {
	out := make([]string, len(clauses))
	for i, c := range clauses {
		out[i] = c.Text
	}
	return out
}

func TestBySentence(t *testing.T) {
	seg, err := New(types.SegmentationConfig{Strategy: types.SegmentSentence}, lineSplitter{})
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want []types.Clause
	}{
		{
			name: "semicolon is consumed",
			text: "We may share your data; you may object.",
			want: []types.Clause{
				{SequenceID: 1, Text: "We may share your data", SourceSentenceID: 1},
				{SequenceID: 2, Text: "you may object.", SourceSentenceID: 1},
			},
		},
		{
			name: "connectors are case-insensitive and consumed",
			text: "Fees apply PROVIDED THAT notice is given, Unless waived.",
			want: []types.Clause{
				{SequenceID: 1, Text: "Fees apply", SourceSentenceID: 1},
				{SequenceID: 2, Text: "notice is given,", SourceSentenceID: 1},
				{SequenceID: 3, Text: "waived.", SourceSentenceID: 1},
			},
		},
		{
			name: "whichever delimiter comes first splits first",
			text: "All data is kept except logs; however backups remain whereas copies expire.",
			want: []types.Clause{
				{SequenceID: 1, Text: "All data is kept", SourceSentenceID: 1},
				{SequenceID: 2, Text: "logs", SourceSentenceID: 1},
				{SequenceID: 3, Text: "backups remain", SourceSentenceID: 1},
				{SequenceID: 4, Text: "copies expire.", SourceSentenceID: 1},
			},
		},
		{
			name: "connector inside a word does not split",
			text: "The exceptional clause stands.",
			want: []types.Clause{
				{SequenceID: 1, Text: "The exceptional clause stands.", SourceSentenceID: 1},
			},
		},
		{
			name: "empty fragments and sentences dropped, ids keep counting",
			text: "First part;;\n\n  \nSecond sentence; however",
			want: []types.Clause{
				{SequenceID: 1, Text: "First part", SourceSentenceID: 1},
				{SequenceID: 2, Text: "Second sentence", SourceSentenceID: 2},
			},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, seg.Segment(tt.text))
		})
	}
}

func TestBySentenceReturnsSentences(t *testing.T) {
	seg, err := New(types.SegmentationConfig{}, lineSplitter{})
	require.NoError(t, err)
	assert.Equal(t, types.SegmentSentence, seg.Strategy())

	sentences, clauses := seg.BySentence(" one; two \n\nthree")
	assert.Equal(t, []string{"one; two", "three"}, sentences)
	require.Len(t, clauses, 3)
	assert.Equal(t, 2, clauses[2].SourceSentenceID)
}

func TestByPunctuation(t *testing.T) {
	seg, err := New(types.SegmentationConfig{Strategy: types.SegmentPunctuation}, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "splits after terminators and drops short noise",
			text: "We may share your data with partners. OK. Is this clause binding on you? Yes!",
			want: []string{"We may share your data with partners.", "Is this clause binding on you?"},
		},
		{
			name: "newlines become spaces",
			text: "The service may close\nyour account at any time.\nShort one.",
			want: []string{"The service may close your account at any time."},
		},
		{
			name: "punctuation without whitespace does not split",
			text: "Fees are 2.5 percent of the balance.Payments are monthly.",
			want: []string{"Fees are 2.5 percent of the balance.Payments are monthly."},
		},
		{
			name: "semicolons are not terminators here",
			text: "Late fees apply; interest accrues daily. Refunds are never issued to you.",
			want: []string{"Late fees apply; interest accrues daily.", "Refunds are never issued to you."},
		},
		{
			name: "exactly twenty characters kept",
			text: "abcdefghij klmnopqr. tiny.",
			want: []string{"abcdefghij klmnopqr."},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seg.Segment(tt.text)
			assert.Equal(t, tt.want, clauseTexts(got))
			for i, c := range got {
				assert.Equal(t, i+1, c.SequenceID)
				assert.Equal(t, c.SequenceID, c.SourceSentenceID)
			}
		})
	}
}

func TestMinClauseLengthConfigurable(t *testing.T) {
	seg, err := New(types.SegmentationConfig{Strategy: types.SegmentPunctuation, MinClauseLength: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"OK.", "Yes!"}, clauseTexts(seg.Segment("OK. Yes! a.")))
}

func TestNewErrors(t *testing.T) {
	_, err := New(types.SegmentationConfig{Strategy: "paragraph"}, lineSplitter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown segmentation strategy")

	_, err = New(types.SegmentationConfig{Strategy: types.SegmentSentence}, nil)
	require.Error(t, err)
}

func TestPunktSplitter(t *testing.T) {
	p, err := NewPunktSplitter()
	require.NoError(t, err)

	got := p.Split("You agree to these terms. We may share your data with partners.")
	require.Len(t, got, 2)
	assert.Equal(t, "You agree to these terms.", strings.TrimSpace(got[0]))
	assert.Equal(t, "We may share your data with partners.", strings.TrimSpace(got[1]))
}
