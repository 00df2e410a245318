// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package risk

import (
	"context"

	"github.com/pdiddy/clause-risk/internal/worker"
	"github.com/pdiddy/clause-risk/pkg/types"
)

// Grade maps a risky percentage to a letter under r.
func Grade(percent float64, r RatingThresholds) types.Rating {
	switch {
	case percent <= r.A:
		return types.RatingA
	case percent <= r.B:
		return types.RatingB
	case percent <= r.C:
		return types.RatingC
	default:
		return types.RatingD
	}
}

// Summarize reduces scored clauses to a document summary graded with the
// named preset thresholds. The result does not depend on clause order.
func Summarize(clauses []types.ScoredClause, preset string, r RatingThresholds) types.DocumentRiskSummary {
	s := types.DocumentRiskSummary{
		TotalClauses:  len(clauses),
		RiskBreakdown: make(map[types.RiskTag]int),
		RatingPreset:  preset,
	}
	for _, c := range clauses {
		if !c.IsRisky {
			continue
		}
		s.RiskyClauses++
		for _, tag := range c.Tags {
			s.RiskBreakdown[tag]++
		}
	}
	if s.TotalClauses > 0 {
		s.RiskyPercent = Round2(100 * float64(s.RiskyClauses) / float64(s.TotalClauses))
	}
	s.OverallRating = Grade(s.RiskyPercent, r)
	return s
}

// ScoreClauses scores every clause on up to workers goroutines. Clauses
// share nothing but the read-only table, and the result keeps input order.
func ScoreClauses(ctx context.Context, clauses []types.Clause, t *RuleTable, regime types.ScoringRegime, workers int) []types.ScoredClause {
	return worker.Map(ctx, workers, len(clauses), func(_ context.Context, i int) types.ScoredClause {
		return ScoreClause(clauses[i], t, regime)
	})
}
