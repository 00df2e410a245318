// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package learn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clause-risk/internal/risk"
	"github.com/pdiddy/clause-risk/pkg/types"
)

func risky(text string, tags ...types.RiskTag) types.ScoredClause {
	return types.ScoredClause{Clause: types.Clause{Text: text}, Tags: tags, IsRisky: true}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"we", "may", "share", "data", "with", "3rd", "parties"},
		Tokens("We may SHARE data -- with 3rd-parties!"))
	assert.Nil(t, Tokens("  ...  "))
}

func TestCount(t *testing.T) {
	clauses := []types.ScoredClause{
		risky("A brokerage surcharge applies to your account.", "fees_charges"),
		risky("The brokerage fee is charged monthly.", "fees_charges", "generic_risk"),
		{Clause: types.Clause{Text: "brokerage brokerage brokerage"}}, // not risky
	}
	vocab := map[string]bool{"account": true}

	got := Count(clauses, vocab)

	assert.Equal(t, map[string]int{
		"brokerage": 2, "surcharge": 1, "applies": 1, "charged": 1, "monthly": 1,
	}, got["fees_charges"])
	assert.Equal(t, map[string]int{"brokerage": 1, "charged": 1, "monthly": 1}, got["generic_risk"])
}

func TestLearn(t *testing.T) {
	table, err := risk.DefaultRuleTable()
	require.NoError(t, err)

	clauses := []types.ScoredClause{
		risky("A brokerage surcharge applies.", "fees_charges"),
		risky("Brokerage surcharge of five dollars.", "fees_charges"),
		risky("We may share your data with analytics vendors.", "data_sharing"),
	}

	next, res, err := Learn(clauses, table, 2)
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{"auto_fees_charges_tokens": {"brokerage", "surcharge"}}, res.Added)
	assert.Equal(t, 2, res.Total())
	assert.Equal(t, table.Version+1, next.Version)
	require.Len(t, next.TokenGroups, 1)
	g := next.TokenGroups[0]
	assert.Equal(t, "auto_fees_charges_tokens", g.Name)
	assert.Equal(t, types.RiskTag("fees_charges"), g.Tag)
	assert.Equal(t, 1.0, g.Weight)
	assert.Equal(t, []string{"brokerage", "surcharge"}, g.Tokens)

	// The learned table now flags text the old one did not.
	tags, _ := risk.Score("Brokerage applies.", next, types.RegimeWeighted)
	assert.Equal(t, []types.RiskTag{"fees_charges"}, tags)
	tags, _ = risk.Score("Brokerage applies.", table, types.RegimeWeighted)
	assert.Empty(t, tags)
	assert.Empty(t, table.TokenGroups, "input table must not change")
}

func TestLearnNothingNew(t *testing.T) {
	table, err := risk.DefaultRuleTable()
	require.NoError(t, err)

	next, res, err := Learn([]types.ScoredClause{risky("Unique surcharge.", "fees_charges")}, table, 0)
	require.NoError(t, err)
	assert.Same(t, table, next)
	assert.Zero(t, res.Total())
}

func TestLearnMergesExistingGroup(t *testing.T) {
	table, err := risk.DefaultRuleTable()
	require.NoError(t, err)
	first, _, err := Learn([]types.ScoredClause{
		risky("brokerage brokerage", "fees_charges"),
	}, table, 2)
	require.NoError(t, err)

	second, res, err := Learn([]types.ScoredClause{
		risky("surcharge surcharge brokerage", "fees_charges"),
	}, first, 2)
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{"auto_fees_charges_tokens": {"surcharge"}}, res.Added)
	require.Len(t, second.TokenGroups, 1)
	assert.Equal(t, []string{"brokerage", "surcharge"}, second.TokenGroups[0].Tokens)
	assert.Equal(t, table.Version+2, second.Version)
}
