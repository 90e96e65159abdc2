package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealpulse/pkg/contracts/domain"
)

func TestFilterCriteriaMatches(t *testing.T) {
	record := domain.DealRecord{
		Kind:        domain.DealKindMA,
		Company:     "Acme Surgical",
		Counterpart: "MegaMed",
		RawAmount:   "$500M",
		Quarter:     "Q1 2025",
		Sector:      "Surgical Robotics",
		Description: "Robotic surgery platform acquisition",
		Extra:       map[string]string{"Conference": "JPM25"},
	}

	tests := []struct {
		name     string
		criteria FilterCriteria
		want     bool
	}{
		{
			name:     "zero criteria match everything",
			criteria: FilterCriteria{},
			want:     true,
		},
		{
			name:     "matching period",
			criteria: FilterCriteria{Periods: []string{"Q1 2025"}},
			want:     true,
		},
		{
			name:     "period matches by resolved key not raw spelling",
			criteria: FilterCriteria{Periods: []string{"q1 2025"}},
			want:     true,
		},
		{
			name:     "non-matching period",
			criteria: FilterCriteria{Periods: []string{"Q2 2025"}},
			want:     false,
		},
		{
			name:     "matching sector case-insensitive",
			criteria: FilterCriteria{Sectors: []string{"surgical robotics"}},
			want:     true,
		},
		{
			name:     "non-matching sector",
			criteria: FilterCriteria{Sectors: []string{"Diagnostics"}},
			want:     false,
		},
		{
			name:     "matching conference tag",
			criteria: FilterCriteria{Conference: "jpm25"},
			want:     true,
		},
		{
			name:     "non-matching conference tag",
			criteria: FilterCriteria{Conference: "HLTH"},
			want:     false,
		},
		{
			name:     "search hits company",
			criteria: FilterCriteria{Search: "acme"},
			want:     true,
		},
		{
			name:     "search hits counterpart",
			criteria: FilterCriteria{Search: "megamed"},
			want:     true,
		},
		{
			name:     "search hits description",
			criteria: FilterCriteria{Search: "platform"},
			want:     true,
		},
		{
			name:     "search miss",
			criteria: FilterCriteria{Search: "dialysis"},
			want:     false,
		},
		{
			name: "all criteria must pass",
			criteria: FilterCriteria{
				Periods: []string{"Q1 2025"},
				Sectors: []string{"Diagnostics"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Matches(record))
		})
	}
}

func TestFilterCriteriaApply(t *testing.T) {
	records := []domain.DealRecord{
		deal("Alpha", "$500M", "Q1 2025", "Diagnostics"),
		deal("Beta", "$250M", "Q2 2025", "Imaging"),
		deal("Gamma", "$100M", "Q1 2025", "Imaging"),
	}

	t.Run("zero criteria return input unchanged", func(t *testing.T) {
		out := FilterCriteria{}.Apply(records)
		assert.Len(t, out, 3)
	})

	t.Run("filter preserves input order", func(t *testing.T) {
		out := FilterCriteria{Sectors: []string{"Imaging"}}.Apply(records)
		require.Len(t, out, 2)
		assert.Equal(t, "Beta", out[0].Company)
		assert.Equal(t, "Gamma", out[1].Company)
	})

	t.Run("no matches yields empty non-nil slice", func(t *testing.T) {
		out := FilterCriteria{Sectors: []string{"Orthopedics"}}.Apply(records)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})
}
