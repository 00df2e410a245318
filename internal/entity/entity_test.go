// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/clause-risk/pkg/types"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []types.Entity
	}{
		{
			name: "nothing",
			text: "We may share your data with partners.",
			want: nil,
		},
		{
			name: "written date",
			text: "These terms take effect on January 5, 2024 for all users.",
			want: []types.Entity{{Text: "January 5, 2024", Type: types.EntityDate}},
		},
		{
			name: "day first date",
			text: "Signed on 3rd of March 2023.",
			want: []types.Entity{{Text: "3rd of March 2023", Type: types.EntityDate}},
		},
		{
			name: "numeric dates",
			text: "Updated 2024-02-29, previously 12/31/2023.",
			want: []types.Entity{
				{Text: "2024-02-29", Type: types.EntityDate},
				{Text: "12/31/2023", Type: types.EntityDate},
			},
		},
		{
			name: "money",
			text: "A fee of $25.00 applies, up to 1,000 USD per year or £3 million in total.",
			want: []types.Entity{
				{Text: "$25.00", Type: types.EntityMoney},
				{Text: "1,000 USD", Type: types.EntityMoney},
				{Text: "£3 million", Type: types.EntityMoney},
			},
		},
		{
			name: "percent",
			text: "Interest accrues at 1.5% monthly, or 18 percent a year.",
			want: []types.Entity{
				{Text: "1.5%", Type: types.EntityPercent},
				{Text: "18 percent", Type: types.EntityPercent},
			},
		},
		{
			name: "order of appearance across kinds",
			text: "Pay 10% of $200 by 2025-01-01.",
			want: []types.Entity{
				{Text: "10%", Type: types.EntityPercent},
				{Text: "$200", Type: types.EntityMoney},
				{Text: "2025-01-01", Type: types.EntityDate},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Find(tt.text))
		})
	}
}

func TestFindDropsOverlaps(t *testing.T) {
	// "$100" and "100 USD" overlap; the earlier start is kept.
	got := Find("Charged $100 USD monthly.")
	assert.Equal(t, []types.Entity{{Text: "$100", Type: types.EntityMoney}}, got)
}
